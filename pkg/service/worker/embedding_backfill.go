package worker

import (
	"context"
	"time"

	"github.com/secmon-lab/memora/pkg/usecase"
	"github.com/secmon-lab/memora/pkg/utils/logging"
)

// BackfillRunner fills in embeddings that were unavailable at write time.
type BackfillRunner interface {
	Run(ctx context.Context) (*usecase.BackfillResult, error)
}

// EmbeddingBackfillWorker periodically embeds memories stored without a
// vector.
//
// Assumes a single server instance; concurrent workers would race on the
// same rows but UpdateEmbedding is idempotent.
type EmbeddingBackfillWorker struct {
	runner   BackfillRunner
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewEmbeddingBackfillWorker(runner BackfillRunner, interval time.Duration) *EmbeddingBackfillWorker {
	return &EmbeddingBackfillWorker{
		runner:   runner,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the first pass and the ticker loop in a goroutine. It does not
// block server startup.
func (w *EmbeddingBackfillWorker) Start(ctx context.Context) error {
	logging.Default().Info("Embedding backfill worker starting", "interval", w.interval.String())
	go w.run(ctx)
	return nil
}

// Stop signals the worker to stop and waits for the loop to exit.
func (w *EmbeddingBackfillWorker) Stop() {
	logging.Default().Info("Embedding backfill worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Embedding backfill worker stopped")
}

func (w *EmbeddingBackfillWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.backfill(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.backfill(ctx)

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("Embedding backfill worker context cancelled")
			return
		}
	}
}

func (w *EmbeddingBackfillWorker) backfill(ctx context.Context) {
	startTime := time.Now()

	result, err := w.runner.Run(ctx)
	if err != nil {
		logging.Default().Error("Embedding backfill failed (will retry next interval)", "error", err.Error())
		return
	}
	if result.Updated > 0 || result.Failed > 0 {
		logging.Default().Info("Embedding backfill completed",
			"updated", result.Updated,
			"failed", result.Failed,
			"duration", time.Since(startTime).String())
	}
}
