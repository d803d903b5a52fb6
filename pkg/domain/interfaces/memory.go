package interfaces

import (
	"context"

	"github.com/secmon-lab/memora/pkg/domain/model"
)

// MemoryRepository defines the interface for Memory data persistence.
// Distances returned by FindNearest are cosine distances (1 - cosine
// similarity); every backend must use the same metric.
type MemoryRepository interface {
	// Insert stores a new memory and returns it with its store-assigned ID and
	// creation time. Embedding may be nil.
	Insert(ctx context.Context, memory *model.Memory) (*model.Memory, error)

	// UpdateEmbedding sets the embedding of a single memory.
	UpdateEmbedding(ctx context.Context, id model.MemoryID, embedding []float32) error

	// FindNearest returns up to limit memories of userID ordered by ascending
	// distance. Memories without an embedding are never returned.
	FindNearest(ctx context.Context, userID model.UserID, embedding []float32, limit int) ([]*model.ScoredMemory, error)

	// List returns memories of userID, newest first. limit <= 0 means no bound.
	List(ctx context.Context, userID model.UserID, limit int) ([]*model.Memory, error)

	// FindByContent returns memories of userID whose content is byte-identical
	// to content.
	FindByContent(ctx context.Context, userID model.UserID, content string) ([]*model.Memory, error)

	// ListWithoutEmbedding returns up to limit memories of any user whose
	// embedding has not been computed yet and whose ID is greater than after,
	// in ascending ID order.
	ListWithoutEmbedding(ctx context.Context, after model.MemoryID, limit int) ([]*model.Memory, error)

	Get(ctx context.Context, id model.MemoryID) (*model.Memory, error)
	Update(ctx context.Context, id model.MemoryID, update model.MemoryUpdate) (*model.Memory, error)
	Delete(ctx context.Context, id model.MemoryID) error
}
