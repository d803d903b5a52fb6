package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/domain/interfaces"
	"github.com/secmon-lab/memora/pkg/domain/model"
	"github.com/secmon-lab/memora/pkg/utils/async"
	"github.com/secmon-lab/memora/pkg/utils/logging"
)

// memoryWriter inserts a memory row first and populates its embedding
// afterwards through the dispatcher. A failed embedding leaves the row for
// the backfill job.
type memoryWriter struct {
	repo     interfaces.Repository
	embedder interfaces.Embedder
	dispatch async.Dispatcher
}

// Write inserts mem without an embedding and schedules the embedding update
// of the new row. vec is used when already computed, otherwise the content
// is embedded in the background.
func (w *memoryWriter) Write(ctx context.Context, mem *model.Memory, vec []float32) (*model.Memory, error) {
	row := mem.Copy()
	row.Embedding = nil

	created, err := w.repo.Memory().Insert(ctx, row)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert memory", goerr.V("userID", mem.UserID))
	}

	id, content := created.ID, created.Content
	w.dispatch(ctx, func(ctx context.Context) error {
		embedding := vec
		if len(embedding) == 0 {
			embedding = w.embedder.Embed(ctx, content)
		}
		if len(embedding) == 0 {
			logging.From(ctx).Info("embedding unavailable, left for backfill", "memory_id", id)
			return nil
		}

		if err := w.repo.Memory().UpdateEmbedding(ctx, id, embedding); err != nil {
			return goerr.Wrap(err, "failed to store embedding", goerr.V("memoryID", id))
		}
		return nil
	})

	return created, nil
}
