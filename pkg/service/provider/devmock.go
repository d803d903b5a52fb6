package provider

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/secmon-lab/memora/pkg/domain/interfaces"
	"github.com/secmon-lab/memora/pkg/domain/model"
	"github.com/secmon-lab/memora/pkg/utils/vector"
)

// DevMock replaces every provider with deterministic local behavior. The
// reply echoes the user question and embeddings are derived from a hash of
// the text, so identical texts map to identical vectors.
type DevMock struct {
	dimension int
}

var (
	_ interfaces.Completer = &DevMock{}
	_ interfaces.Embedder  = &DevMock{}
)

func NewDevMock() *DevMock {
	return &DevMock{dimension: model.EmbeddingDimension}
}

const (
	memoriesLabel = "Existing Memories:"
	questionLabel = "\n\nQuestion: "
)

// Complete echoes the question of an assembled prompt. The question follows
// the first question label after the memories block, so a question that
// itself contains the label is kept whole.
func (m *DevMock) Complete(ctx context.Context, prompt, systemInstructions string) (string, error) {
	question := prompt
	text := "\n\n" + prompt
	start := max(strings.Index(text, memoriesLabel), 0)
	if idx := strings.Index(text[start:], questionLabel); idx >= 0 {
		question = text[start+idx+len(questionLabel):]
	}
	return fmt.Sprintf("(dev mock) I received your message: \"%s\"", strings.TrimSpace(question)), nil
}

func (m *DevMock) Embed(ctx context.Context, text string) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	embedding := make([]float32, m.dimension)
	for i := range embedding {
		seed = seed*6364136223846793005 + 1442695040888963407
		embedding[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}

	return vector.Normalize(embedding)
}
