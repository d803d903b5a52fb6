package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/service/provider"
)

// noEmbedder is used when no embedding provider is configured.
type noEmbedder struct{}

func (noEmbedder) Embed(ctx context.Context, text string) []float32 { return nil }

// noCompleter is used when no completion provider is configured.
type noCompleter struct{}

func (noCompleter) Complete(ctx context.Context, prompt, systemInstructions string) (string, error) {
	return "", goerr.Wrap(provider.ErrNotConfigured, "configure a completion provider or enable --dev-mock")
}
