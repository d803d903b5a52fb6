package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/claude"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/secmon-lab/memora/pkg/domain/interfaces"
	"github.com/secmon-lab/memora/pkg/service/provider"
	"github.com/secmon-lab/memora/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const (
	ProviderHTTP   = "http"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderMock   = "mock"
)

// Provider holds CLI flags for the LLM completion, embedding and
// classification collaborators.
type Provider struct {
	kind    string
	devMock bool
	http    provider.Config

	geminiProject  string
	geminiLocation string
	openaiAPIKey   string
	claudeAPIKey   string
	model          string

	cacheSize int64
}

// Providers is the configured collaborator set. Classifier may be nil.
type Providers struct {
	Completer  interfaces.Completer
	Embedder   interfaces.Embedder
	Classifier interfaces.Classifier
	closers    []func()
}

// Close releases resources held by the providers.
func (p *Providers) Close() {
	for _, c := range p.closers {
		c()
	}
}

func (p *Provider) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Usage:       "LLM provider (http, gemini, openai, claude, mock)",
			Value:       ProviderHTTP,
			Category:    "LLM",
			Sources:     cli.EnvVars("MEMORA_LLM_PROVIDER"),
			Destination: &p.kind,
		},
		&cli.BoolFlag{
			Name:        "dev-mock",
			Usage:       "Replace every provider with a deterministic local mock (development only)",
			Category:    "LLM",
			Sources:     cli.EnvVars("MEMORA_DEV_MOCK"),
			Destination: &p.devMock,
		},
		&cli.StringFlag{
			Name:        "completion-url",
			Usage:       "Completion endpoint URL (http provider)",
			Category:    "LLM",
			Sources:     cli.EnvVars("MEMORA_COMPLETION_URL"),
			Destination: &p.http.CompletionURL,
		},
		&cli.StringFlag{
			Name:        "completion-key",
			Usage:       "Completion endpoint API key",
			Category:    "LLM",
			Sources:     cli.EnvVars("MEMORA_COMPLETION_KEY"),
			Destination: &p.http.CompletionKey,
		},
		&cli.StringFlag{
			Name:        "completion-model",
			Usage:       "Model name sent to OpenAI compatible completion endpoints",
			Category:    "LLM",
			Sources:     cli.EnvVars("MEMORA_COMPLETION_MODEL"),
			Destination: &p.http.CompletionModel,
		},
		&cli.StringFlag{
			Name:        "embedding-url",
			Usage:       "Embedding endpoint URL",
			Category:    "LLM",
			Sources:     cli.EnvVars("MEMORA_EMBEDDING_URL"),
			Destination: &p.http.EmbeddingURL,
		},
		&cli.StringFlag{
			Name:        "embedding-key",
			Usage:       "Embedding endpoint API key",
			Category:    "LLM",
			Sources:     cli.EnvVars("MEMORA_EMBEDDING_KEY"),
			Destination: &p.http.EmbeddingKey,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Model name sent to OpenAI compatible embedding endpoints",
			Category:    "LLM",
			Sources:     cli.EnvVars("MEMORA_EMBEDDING_MODEL"),
			Destination: &p.http.EmbeddingModel,
		},
		&cli.BoolFlag{
			Name:        "embedding-list-input",
			Usage:       "Send embedding inputs as a single element list",
			Category:    "LLM",
			Sources:     cli.EnvVars("MEMORA_EMBEDDING_LIST_INPUT"),
			Destination: &p.http.EmbeddingListInput,
		},
		&cli.StringFlag{
			Name:        "classifier-url",
			Usage:       "Zero-shot classifier endpoint URL",
			Category:    "LLM",
			Sources:     cli.EnvVars("MEMORA_CLASSIFIER_URL"),
			Destination: &p.http.ClassifierURL,
		},
		&cli.StringFlag{
			Name:        "classifier-key",
			Usage:       "Zero-shot classifier endpoint API key",
			Category:    "LLM",
			Sources:     cli.EnvVars("MEMORA_CLASSIFIER_KEY"),
			Destination: &p.http.ClassifierKey,
		},
		&cli.BoolFlag{
			Name:        "require-key",
			Usage:       "Fail completions when no API key is configured, for any endpoint",
			Category:    "LLM",
			Sources:     cli.EnvVars("MEMORA_REQUIRE_KEY"),
			Destination: &p.http.RequireKey,
		},
		&cli.DurationFlag{
			Name:        "provider-timeout",
			Usage:       "Timeout of a single provider call",
			Value:       provider.DefaultTimeout,
			Category:    "LLM",
			Sources:     cli.EnvVars("MEMORA_PROVIDER_TIMEOUT"),
			Destination: &p.http.Timeout,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API",
			Category:    "LLM",
			Sources:     cli.EnvVars("MEMORA_GEMINI_PROJECT"),
			Destination: &p.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Value:       "us-central1",
			Category:    "LLM",
			Sources:     cli.EnvVars("MEMORA_GEMINI_LOCATION"),
			Destination: &p.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key (openai provider)",
			Category:    "LLM",
			Sources:     cli.EnvVars("MEMORA_OPENAI_API_KEY"),
			Destination: &p.openaiAPIKey,
		},
		&cli.StringFlag{
			Name:        "claude-api-key",
			Usage:       "Anthropic API key (claude provider)",
			Category:    "LLM",
			Sources:     cli.EnvVars("MEMORA_CLAUDE_API_KEY"),
			Destination: &p.claudeAPIKey,
		},
		&cli.StringFlag{
			Name:        "llm-model",
			Usage:       "Model name for the gemini, openai or claude provider",
			Category:    "LLM",
			Sources:     cli.EnvVars("MEMORA_LLM_MODEL"),
			Destination: &p.model,
		},
		&cli.Int64Flag{
			Name:        "embedding-cache-size",
			Usage:       "Number of embeddings memoized in process (0 disables the cache)",
			Value:       1024,
			Category:    "LLM",
			Sources:     cli.EnvVars("MEMORA_EMBEDDING_CACHE_SIZE"),
			Destination: &p.cacheSize,
		},
	}
}

func (p Provider) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("provider", p.kind),
		slog.Bool("dev_mock", p.devMock),
		slog.String("completion_url", p.http.CompletionURL),
		slog.String("embedding_url", p.http.EmbeddingURL),
		slog.String("classifier_url", p.http.ClassifierURL),
		slog.Bool("completion_key_set", p.http.CompletionKey != ""),
		slog.String("model", p.model),
		slog.Int64("embedding_cache_size", p.cacheSize),
		slog.String("timeout", p.http.Timeout.String()),
	)
}

// Configure builds the providers for the selected kind. Blank endpoints do
// not fail here; a missing completion endpoint surfaces per request as
// provider.ErrNotConfigured.
func (p *Provider) Configure(ctx context.Context) (*Providers, error) {
	kind := p.kind
	if p.devMock {
		kind = ProviderMock
	}

	var set *Providers
	switch kind {
	case ProviderMock:
		logging.Default().Warn("Using dev mock LLM provider (development only)")
		mock := provider.NewDevMock()
		set = &Providers{Completer: mock, Embedder: mock}

	case ProviderHTTP, "":
		client := provider.NewClient(p.http)
		set = &Providers{Completer: client, Embedder: client}
		if p.http.ClassifierURL != "" {
			set.Classifier = client
		}

	case ProviderGemini, ProviderOpenAI, ProviderClaude:
		llmClient, err := p.newLLMClient(ctx, kind)
		if err != nil {
			return nil, err
		}
		g := provider.NewGollem(llmClient)
		set = &Providers{Completer: g, Embedder: g, Classifier: g}
		if p.http.EmbeddingURL != "" {
			set.Embedder = provider.NewClient(p.http)
		}

	default:
		return nil, goerr.Wrap(ErrUnknownProvider, "invalid LLM provider", goerr.V(ProviderKey, p.kind))
	}

	if p.cacheSize > 0 {
		cached, err := provider.NewCachedEmbedder(set.Embedder, p.cacheSize)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to configure embedding cache")
		}
		set.Embedder = cached
		set.closers = append(set.closers, cached.Close)
	}

	return set, nil
}

func (p *Provider) newLLMClient(ctx context.Context, kind string) (gollem.LLMClient, error) {
	switch kind {
	case ProviderGemini:
		if p.geminiProject == "" {
			return nil, goerr.Wrap(ErrMissingOption, "gemini-project is required for gemini provider",
				goerr.V(OptionKey, "gemini-project"))
		}
		var opts []gemini.Option
		if p.model != "" {
			opts = append(opts, gemini.WithModel(p.model))
		}
		client, err := gemini.New(ctx, p.geminiProject, p.geminiLocation, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		return client, nil

	case ProviderOpenAI:
		if p.openaiAPIKey == "" {
			return nil, goerr.Wrap(ErrMissingOption, "openai-api-key is required for openai provider",
				goerr.V(OptionKey, "openai-api-key"))
		}
		var opts []openai.Option
		if p.model != "" {
			opts = append(opts, openai.WithModel(p.model))
		}
		client, err := openai.New(ctx, p.openaiAPIKey, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OpenAI client")
		}
		return client, nil

	default:
		if p.claudeAPIKey == "" {
			return nil, goerr.Wrap(ErrMissingOption, "claude-api-key is required for claude provider",
				goerr.V(OptionKey, "claude-api-key"))
		}
		var opts []claude.Option
		if p.model != "" {
			opts = append(opts, claude.WithModel(p.model))
		}
		client, err := claude.New(ctx, p.claudeAPIKey, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Claude client")
		}
		return client, nil
	}
}

// Timeout returns the per-call provider timeout.
func (p *Provider) Timeout() time.Duration {
	return p.http.Timeout
}
