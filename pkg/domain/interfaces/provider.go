package interfaces

import "context"

// Embedder converts text to a vector. It returns nil when no embedding can be
// produced; embedding is best-effort and never a hard failure.
type Embedder interface {
	Embed(ctx context.Context, text string) []float32
}

// Completer produces a chat completion. An error means no reply is possible.
type Completer interface {
	Complete(ctx context.Context, prompt, systemInstructions string) (string, error)
}

// Classifier is a zero-shot classifier returning labels ranked by confidence.
type Classifier interface {
	Classify(ctx context.Context, text string, labels []string) ([]string, error)
}
