package safe

import (
	"context"
	"io"
	"log/slog"

	"github.com/secmon-lab/memora/pkg/utils/logging"
)

// Close closes closer and logs a failure. nil closers are ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Error("Failed to close", slog.Any("error", err))
	}
}

// Drain discards what is left of r so the underlying connection can be reused.
func Drain(ctx context.Context, r io.Reader) {
	if r == nil {
		return
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		logging.From(ctx).Debug("Failed to drain reader", slog.Any("error", err))
	}
}
