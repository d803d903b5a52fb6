package provider

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/memora/pkg/domain/interfaces"
	"github.com/secmon-lab/memora/pkg/domain/model"
	"github.com/secmon-lab/memora/pkg/utils/logging"
	"github.com/secmon-lab/memora/pkg/utils/vector"
)

// Gollem adapts a gollem LLM client (Gemini, OpenAI, Claude) to the
// completion, embedding and classification interfaces.
type Gollem struct {
	llmClient gollem.LLMClient
	dimension int
}

var (
	_ interfaces.Completer  = &Gollem{}
	_ interfaces.Embedder   = &Gollem{}
	_ interfaces.Classifier = &Gollem{}
)

type GollemOption func(*Gollem)

// WithEmbeddingDimension overrides model.EmbeddingDimension.
func WithEmbeddingDimension(dim int) GollemOption {
	return func(g *Gollem) {
		g.dimension = dim
	}
}

func NewGollem(llmClient gollem.LLMClient, opts ...GollemOption) *Gollem {
	g := &Gollem{
		llmClient: llmClient,
		dimension: model.EmbeddingDimension,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gollem) Complete(ctx context.Context, prompt, systemInstructions string) (string, error) {
	if g.llmClient == nil {
		return "", goerr.Wrap(ErrNotConfigured, "LLM client is not configured")
	}

	session, err := g.llmClient.NewSession(ctx, gollem.WithSessionSystemPrompt(systemInstructions))
	if err != nil {
		return "", goerr.Wrap(ErrRequestFailed, "failed to create LLM session", goerr.V("cause", err.Error()))
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return "", goerr.Wrap(ErrRequestFailed, "failed to generate content", goerr.V("cause", err.Error()))
	}
	if resp == nil || len(resp.Texts) == 0 {
		return "", nil
	}

	return strings.Join(resp.Texts, ""), nil
}

func (g *Gollem) Embed(ctx context.Context, text string) []float32 {
	if g.llmClient == nil {
		return nil
	}

	embeddings, err := g.llmClient.GenerateEmbedding(ctx, g.dimension, []string{text})
	if err != nil {
		logging.From(ctx).Warn("failed to generate embedding", "error", err)
		return nil
	}
	if len(embeddings) == 0 {
		return nil
	}

	return vector.Float64To32(embeddings[0])
}

type classifyResponse struct {
	Labels []string `json:"labels"`
}

// Classify asks the LLM to rank labels for text as structured JSON output.
func (g *Gollem) Classify(ctx context.Context, text string, labels []string) ([]string, error) {
	if g.llmClient == nil {
		return nil, goerr.New("LLM client is not configured")
	}

	schema := &gollem.Parameter{
		Title:       "ClassificationResponse",
		Description: "Candidate labels ranked by confidence",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"labels": {
				Type:        gollem.TypeArray,
				Description: "All candidate labels, most likely first",
				Items: &gollem.Parameter{
					Type: gollem.TypeString,
					Enum: labels,
				},
				Required: true,
			},
		},
	}

	session, err := g.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(schema),
		gollem.WithSessionSystemPrompt("You are a zero-shot text classifier. Rank every candidate label by how well it describes the text."),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	prompt := "Candidate labels: " + strings.Join(labels, ", ") + "\n\nText:\n" + text
	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to classify text")
	}
	if resp == nil || len(resp.Texts) == 0 {
		return nil, goerr.New("empty classification response")
	}

	var out classifyResponse
	if err := json.Unmarshal([]byte(resp.Texts[0]), &out); err != nil {
		return nil, goerr.Wrap(err, "failed to parse classification response", goerr.V("response", resp.Texts[0]))
	}
	return out.Labels, nil
}
