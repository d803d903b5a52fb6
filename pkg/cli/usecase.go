package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/cli/config"
	"github.com/secmon-lab/memora/pkg/domain/interfaces"
	"github.com/secmon-lab/memora/pkg/usecase"
	"github.com/secmon-lab/memora/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// appConfig groups the configuration shared by commands that run the chat
// pipeline.
type appConfig struct {
	repo     config.Repository
	provider config.Provider
	chat     config.Chat
}

func (a *appConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, a.repo.Flags()...)
	flags = append(flags, a.provider.Flags()...)
	flags = append(flags, a.chat.Flags()...)
	return flags
}

// app is the assembled runtime. Close releases the repository and
// providers.
type app struct {
	repo      interfaces.Repository
	providers *config.Providers
	uc        *usecase.UseCases
}

func (a *app) Close() {
	a.providers.Close()
	if err := a.repo.Close(); err != nil {
		logging.Default().Error("failed to close repository", "error", err.Error())
	}
}

func (a *appConfig) build(ctx context.Context, opts ...usecase.Option) (*app, error) {
	logging.Default().Info("Configuration",
		"repository", a.repo,
		"provider", a.provider,
		"chat", a.chat,
	)

	chatCfg, err := a.chat.Configure()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load chat configuration")
	}

	repo, err := a.repo.Configure(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize repository")
	}

	providers, err := a.provider.Configure(ctx)
	if err != nil {
		_ = repo.Close()
		return nil, goerr.Wrap(err, "failed to initialize LLM providers")
	}

	ucOpts := []usecase.Option{
		usecase.WithChatConfig(chatCfg),
		usecase.WithCompleter(providers.Completer),
		usecase.WithEmbedder(providers.Embedder),
	}
	if providers.Classifier != nil {
		ucOpts = append(ucOpts, usecase.WithClassifier(providers.Classifier))
	}
	ucOpts = append(ucOpts, opts...)

	uc, err := usecase.New(repo, ucOpts...)
	if err != nil {
		providers.Close()
		_ = repo.Close()
		return nil, goerr.Wrap(err, "failed to initialize use cases")
	}

	return &app{repo: repo, providers: providers, uc: uc}, nil
}
