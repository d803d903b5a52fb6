package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/cli/config"
	httpctrl "github.com/secmon-lab/memora/pkg/controller/http"
	"github.com/secmon-lab/memora/pkg/service/worker"
	"github.com/secmon-lab/memora/pkg/usecase"
	"github.com/secmon-lab/memora/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var backfillInterval time.Duration
	var appCfg appConfig
	var authCfg config.Auth

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("MEMORA_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "backfill-interval",
			Usage:       "Interval of the embedding backfill worker (0 disables it)",
			Value:       10 * time.Minute,
			Sources:     cli.EnvVars("MEMORA_BACKFILL_INTERVAL"),
			Destination: &backfillInterval,
		},
	}

	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			authUC, err := authCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure authentication")
			}

			a, err := appCfg.build(ctx, usecase.WithAuth(authUC))
			if err != nil {
				return err
			}
			defer a.Close()

			var backfillWorker *worker.EmbeddingBackfillWorker
			if backfillInterval > 0 {
				backfillWorker = worker.NewEmbeddingBackfillWorker(a.uc.Backfill, backfillInterval)
				if err := backfillWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start embedding backfill worker")
				}
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(a.uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				if backfillWorker != nil {
					backfillWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
