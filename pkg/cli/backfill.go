package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/usecase"
	"github.com/secmon-lab/memora/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdBackfill() *cli.Command {
	var batchSize int
	var concurrency int
	var appCfg appConfig

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "batch-size",
			Usage:       "Memories fetched per batch",
			Value:       usecase.DefaultBackfillBatchSize,
			Destination: &batchSize,
		},
		&cli.IntFlag{
			Name:        "concurrency",
			Usage:       "Embedding calls in flight",
			Value:       usecase.DefaultBackfillConcurrency,
			Destination: &concurrency,
		},
	}
	flags = append(flags, appCfg.Flags()...)

	return &cli.Command{
		Name:  "backfill",
		Usage: "Compute embeddings for memories stored without one",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := appCfg.build(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			uc := usecase.NewBackfillUseCase(a.repo, a.providers.Embedder,
				usecase.WithBackfillBatchSize(batchSize),
				usecase.WithBackfillConcurrency(concurrency),
			)

			result, err := uc.Run(ctx)
			if err != nil {
				return goerr.Wrap(err, "backfill failed")
			}

			logging.Default().Info("Backfill completed", "updated", result.Updated, "failed", result.Failed)
			return nil
		},
	}
}
