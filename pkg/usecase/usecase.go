package usecase

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/domain/interfaces"
	"github.com/secmon-lab/memora/pkg/domain/model/config"
	"github.com/secmon-lab/memora/pkg/utils/async"
)

type UseCases struct {
	repo       interfaces.Repository
	chatConfig *config.ChatConfig
	completer  interfaces.Completer
	embedder   interfaces.Embedder
	classifier interfaces.Classifier
	dispatch   async.Dispatcher

	Chat     *ChatUseCase
	Memory   *MemoryUseCase
	Backfill *BackfillUseCase
	Auth     AuthUseCaseInterface
}

type Option func(*UseCases)

func WithChatConfig(cfg *config.ChatConfig) Option {
	return func(uc *UseCases) {
		uc.chatConfig = cfg
	}
}

func WithCompleter(completer interfaces.Completer) Option {
	return func(uc *UseCases) {
		uc.completer = completer
	}
}

func WithEmbedder(embedder interfaces.Embedder) Option {
	return func(uc *UseCases) {
		uc.embedder = embedder
	}
}

func WithClassifier(classifier interfaces.Classifier) Option {
	return func(uc *UseCases) {
		uc.classifier = classifier
	}
}

// WithDispatcher replaces async.Dispatch for background embedding updates.
func WithDispatcher(dispatch async.Dispatcher) Option {
	return func(uc *UseCases) {
		uc.dispatch = dispatch
	}
}

func WithAuth(auth AuthUseCaseInterface) Option {
	return func(uc *UseCases) {
		uc.Auth = auth
	}
}

func New(repo interfaces.Repository, opts ...Option) (*UseCases, error) {
	uc := &UseCases{
		repo:       repo,
		chatConfig: config.DefaultChatConfig(),
		embedder:   noEmbedder{},
		dispatch:   async.Dispatch,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.completer == nil {
		uc.completer = noCompleter{}
	}

	chat, err := NewChatUseCase(repo, uc.chatConfig, uc.completer, uc.embedder, uc.classifier, uc.dispatch)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build chat use case")
	}

	uc.Chat = chat
	uc.Memory = NewMemoryUseCase(repo, &memoryWriter{repo: repo, embedder: uc.embedder, dispatch: uc.dispatch})
	uc.Backfill = NewBackfillUseCase(repo, uc.embedder)

	return uc, nil
}
