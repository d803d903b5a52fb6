package usecase

import (
	"context"
	"sort"

	"github.com/secmon-lab/memora/pkg/domain/interfaces"
	"github.com/secmon-lab/memora/pkg/domain/model"
	"github.com/secmon-lab/memora/pkg/domain/model/config"
	"github.com/secmon-lab/memora/pkg/utils/logging"
)

// Retriever ranks a user's memories against a query. Store and embedding
// failures degrade to a smaller or empty result; Retrieve never fails.
type Retriever struct {
	repo     interfaces.Repository
	embedder interfaces.Embedder
	cfg      config.RetrievalConfig
}

func NewRetriever(repo interfaces.Repository, embedder interfaces.Embedder, cfg config.RetrievalConfig) *Retriever {
	return &Retriever{repo: repo, embedder: embedder, cfg: cfg}
}

// Retrieve returns up to limit memories nearest to query. When vector search
// yields fewer than the configured minimum, the most recent memories
// (bounded by the fallback limit) are returned instead.
func (r *Retriever) Retrieve(ctx context.Context, userID model.UserID, query string, limit int) []*model.Memory {
	logger := logging.From(ctx)

	if limit <= 0 {
		limit = r.cfg.Limit
	}

	if vec := r.embedder.Embed(ctx, query); len(vec) > 0 {
		scored, err := r.repo.Memory().FindNearest(ctx, userID, vec, limit)
		if err != nil {
			logger.Warn("vector search failed, falling back to recent memories", "error", err, "user_id", userID)
		} else if len(scored) >= r.cfg.MinResults && len(scored) > 0 {
			memories := make([]*model.Memory, len(scored))
			for i, s := range scored {
				memories[i] = s.Memory
			}
			return memories
		}
	}

	memories, err := r.repo.Memory().List(ctx, userID, r.cfg.FallbackLimit)
	if err != nil {
		logger.Warn("failed to list memories, continuing without grounding", "error", err, "user_id", userID)
		return []*model.Memory{}
	}
	return memories
}

// All returns every memory of the user ordered by category, most recent
// first within a category.
func (r *Retriever) All(ctx context.Context, userID model.UserID) []*model.Memory {
	memories, err := r.repo.Memory().List(ctx, userID, 0)
	if err != nil {
		logging.From(ctx).Warn("failed to list memories, continuing without grounding", "error", err, "user_id", userID)
		return []*model.Memory{}
	}

	grouped := model.GroupByCategory(memories)
	categories := make([]string, 0, len(grouped))
	for cat := range grouped {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	result := make([]*model.Memory, 0, len(memories))
	for _, cat := range categories {
		result = append(result, grouped[cat]...)
	}
	return result
}
