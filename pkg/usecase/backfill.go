package usecase

import (
	"context"
	"sync/atomic"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/domain/interfaces"
	"github.com/secmon-lab/memora/pkg/domain/model"
	"github.com/secmon-lab/memora/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBackfillBatchSize   = 25
	DefaultBackfillConcurrency = 4
)

// BackfillUseCase computes embeddings for memories stored without one.
type BackfillUseCase struct {
	repo        interfaces.Repository
	embedder    interfaces.Embedder
	batchSize   int
	concurrency int
}

type BackfillOption func(*BackfillUseCase)

func WithBackfillBatchSize(n int) BackfillOption {
	return func(uc *BackfillUseCase) {
		uc.batchSize = n
	}
}

func WithBackfillConcurrency(n int) BackfillOption {
	return func(uc *BackfillUseCase) {
		uc.concurrency = n
	}
}

func NewBackfillUseCase(repo interfaces.Repository, embedder interfaces.Embedder, opts ...BackfillOption) *BackfillUseCase {
	uc := &BackfillUseCase{
		repo:        repo,
		embedder:    embedder,
		batchSize:   DefaultBackfillBatchSize,
		concurrency: DefaultBackfillConcurrency,
	}
	for _, opt := range opts {
		opt(uc)
	}
	if uc.batchSize <= 0 {
		uc.batchSize = DefaultBackfillBatchSize
	}
	if uc.concurrency <= 0 {
		uc.concurrency = 1
	}
	return uc
}

// BackfillResult counts the rows handled by one Run.
type BackfillResult struct {
	Updated int
	Failed  int
}

// Run pages through memories without an embedding in ID order until none
// are left. The cursor moves past rows that fail, so a run of failing rows
// cannot hide newer ones. Per-row failures are logged and counted.
func (uc *BackfillUseCase) Run(ctx context.Context) (*BackfillResult, error) {
	logger := logging.From(ctx)
	result := &BackfillResult{}
	var cursor model.MemoryID

	for {
		if err := ctx.Err(); err != nil {
			return result, goerr.Wrap(err, "backfill interrupted")
		}

		batch, err := uc.repo.Memory().ListWithoutEmbedding(ctx, cursor, uc.batchSize)
		if err != nil {
			return result, goerr.Wrap(err, "failed to list memories without embedding")
		}
		if len(batch) == 0 {
			break
		}

		updated, failed := uc.processBatch(ctx, batch)
		result.Updated += updated
		result.Failed += failed
		if updated == 0 {
			logger.Warn("backfill batch made no progress", "batch_size", len(batch), "failed", failed, "after", cursor)
		}

		cursor = batch[len(batch)-1].ID
		if len(batch) < uc.batchSize {
			break
		}
	}

	logger.Info("backfill finished", "updated", result.Updated, "failed", result.Failed)
	return result, nil
}

func (uc *BackfillUseCase) processBatch(ctx context.Context, batch []*model.Memory) (int, int) {
	logger := logging.From(ctx)
	var updated, failed atomic.Int64

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(uc.concurrency)

	for _, mem := range batch {
		eg.Go(func() error {
			vec := uc.embedder.Embed(ctx, mem.Content)
			if len(vec) == 0 {
				failed.Add(1)
				logger.Warn("embedding unavailable", "memory_id", mem.ID)
				return nil
			}

			if err := uc.repo.Memory().UpdateEmbedding(ctx, mem.ID, vec); err != nil {
				failed.Add(1)
				logger.Warn("failed to store embedding", "memory_id", mem.ID, "error", err)
				return nil
			}

			updated.Add(1)
			return nil
		})
	}
	_ = eg.Wait()

	return int(updated.Load()), int(failed.Load())
}
