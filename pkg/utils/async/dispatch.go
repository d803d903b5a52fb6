package async

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/utils/logging"
)

// Dispatcher runs handler with a context detached from the caller's
// cancellation. Dispatch is the production implementation; tests inject a
// synchronous one.
type Dispatcher func(ctx context.Context, handler func(ctx context.Context) error)

// Dispatch executes handler in a new goroutine with a background context that
// keeps the caller's logger. Errors and panics are logged, never propagated.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	bgCtx := logging.With(context.Background(), logging.From(ctx))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.From(bgCtx).Error("panic in async handler", "panic", r)
			}
		}()

		if err := handler(bgCtx); err != nil {
			logging.From(bgCtx).Error("async handler failed", "error", goerr.Unwrap(err))
		}
	}()
}

// Inline runs handler on the calling goroutine. Errors are logged.
func Inline(ctx context.Context, handler func(ctx context.Context) error) {
	if err := handler(ctx); err != nil {
		logging.From(ctx).Error("inline handler failed", "error", err)
	}
}
