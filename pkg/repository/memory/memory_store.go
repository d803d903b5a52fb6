package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/domain/model"
	"github.com/secmon-lab/memora/pkg/utils/vector"
)

type memoryRepository struct {
	mu      sync.RWMutex
	nextID  model.MemoryID
	entries map[model.MemoryID]*model.Memory
	// now is replaceable so ordering by CreatedAt stays deterministic when
	// several inserts land within the clock resolution.
	now func() time.Time
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		entries: make(map[model.MemoryID]*model.Memory),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *memoryRepository) Insert(ctx context.Context, mem *model.Memory) (*model.Memory, error) {
	if err := mem.Validate(); err != nil {
		return nil, goerr.Wrap(err, "failed to insert memory")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	created := mem.Copy()
	created.ID = r.nextID
	created.Category = model.NormalizeCategory(created.Category)
	created.Tags = model.NormalizeTags(created.Tags)
	created.CreatedAt = r.now()

	r.entries[created.ID] = created
	return created.Copy(), nil
}

func (r *memoryRepository) UpdateEmbedding(ctx context.Context, id model.MemoryID, embedding []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	mem, exists := r.entries[id]
	if !exists {
		return goerr.Wrap(ErrNotFound, "memory not found", goerr.V("memoryID", id))
	}
	mem.Embedding = append([]float32{}, embedding...)
	return nil
}

func (r *memoryRepository) FindNearest(ctx context.Context, userID model.UserID, embedding []float32, limit int) ([]*model.ScoredMemory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []*model.ScoredMemory
	for _, m := range r.entries {
		if m.UserID != userID || !m.HasEmbedding() {
			continue
		}
		if len(m.Embedding) != len(embedding) {
			continue
		}
		candidates = append(candidates, &model.ScoredMemory{
			Memory:   m.Copy(),
			Distance: vector.CosineDistance(embedding, m.Embedding),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Distance != candidates[j].Distance {
			return candidates[i].Distance < candidates[j].Distance
		}
		return candidates[i].Memory.ID > candidates[j].Memory.ID
	})

	if limit > 0 && limit < len(candidates) {
		candidates = candidates[:limit]
	}
	if candidates == nil {
		candidates = []*model.ScoredMemory{}
	}
	return candidates, nil
}

func (r *memoryRepository) List(ctx context.Context, userID model.UserID, limit int) ([]*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Memory, 0)
	for _, m := range r.entries {
		if m.UserID == userID {
			result = append(result, m.Copy())
		}
	}

	sortNewestFirst(result)
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (r *memoryRepository) FindByContent(ctx context.Context, userID model.UserID, content string) ([]*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Memory, 0)
	for _, m := range r.entries {
		if m.UserID == userID && m.Content == content {
			result = append(result, m.Copy())
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (r *memoryRepository) ListWithoutEmbedding(ctx context.Context, after model.MemoryID, limit int) ([]*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Memory, 0)
	for _, m := range r.entries {
		if !m.HasEmbedding() && m.ID > after {
			result = append(result, m.Copy())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (r *memoryRepository) Get(ctx context.Context, id model.MemoryID) (*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mem, exists := r.entries[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "memory not found", goerr.V("memoryID", id))
	}
	return mem.Copy(), nil
}

func (r *memoryRepository) Update(ctx context.Context, id model.MemoryID, update model.MemoryUpdate) (*model.Memory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	mem, exists := r.entries[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "memory not found", goerr.V("memoryID", id))
	}

	updated := mem.Copy()
	update.Apply(updated)
	if err := updated.Validate(); err != nil {
		return nil, goerr.Wrap(err, "failed to update memory", goerr.V("memoryID", id))
	}

	r.entries[id] = updated
	return updated.Copy(), nil
}

func (r *memoryRepository) Delete(ctx context.Context, id model.MemoryID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; !exists {
		return goerr.Wrap(ErrNotFound, "memory not found", goerr.V("memoryID", id))
	}
	delete(r.entries, id)
	return nil
}

// sortNewestFirst orders by CreatedAt desc, breaking ties by ID desc.
func sortNewestFirst(memories []*model.Memory) {
	sort.Slice(memories, func(i, j int) bool {
		if !memories[i].CreatedAt.Equal(memories[j].CreatedAt) {
			return memories[i].CreatedAt.After(memories[j].CreatedAt)
		}
		return memories[i].ID > memories[j].ID
	})
}
