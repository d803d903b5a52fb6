package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/domain/interfaces"
	"github.com/secmon-lab/memora/pkg/domain/model"
)

// MemoryUseCase is the explicit, user-initiated memory CRUD.
type MemoryUseCase struct {
	repo   interfaces.Repository
	writer *memoryWriter
	now    func() time.Time
}

func NewMemoryUseCase(repo interfaces.Repository, writer *memoryWriter) *MemoryUseCase {
	return &MemoryUseCase{repo: repo, writer: writer, now: time.Now}
}

// CreateMemoryInput is the payload of an explicit create.
type CreateMemoryInput struct {
	Title    string
	Content  string
	Category string
	Tags     []string
}

// Create stores a new memory for userID. Tags are trimmed, empty ones
// dropped and the list capped at model.MaxTags; a blank category becomes
// model.DefaultCategory. The embedding is populated after insert.
func (uc *MemoryUseCase) Create(ctx context.Context, userID model.UserID, input CreateMemoryInput) (*model.Memory, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "content is required")
	}

	created, err := uc.writer.Write(ctx, &model.Memory{
		UserID:   userID,
		Title:    strings.TrimSpace(input.Title),
		Content:  content,
		Category: model.NormalizeCategory(input.Category),
		Tags:     model.NormalizeTags(input.Tags),
	}, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create memory", goerr.V(UserIDKey, userID))
	}
	return created, nil
}

// Get returns the memory if userID owns it.
func (uc *MemoryUseCase) Get(ctx context.Context, userID model.UserID, id model.MemoryID) (*model.Memory, error) {
	mem, err := uc.repo.Memory().Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrMemoryNotFound, "memory not found", goerr.V(MemoryIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V(MemoryIDKey, id))
	}
	if mem.UserID != userID {
		return nil, goerr.Wrap(ErrAccessDenied, "memory belongs to another user",
			goerr.V(MemoryIDKey, id), goerr.V(UserIDKey, userID))
	}
	return mem, nil
}

// Update edits title, content, category or tags of an owned memory. The
// embedding is left untouched.
func (uc *MemoryUseCase) Update(ctx context.Context, userID model.UserID, id model.MemoryID, update model.MemoryUpdate) (*model.Memory, error) {
	if _, err := uc.Get(ctx, userID, id); err != nil {
		return nil, err
	}

	if update.Content != nil {
		content := strings.TrimSpace(*update.Content)
		if content == "" {
			return nil, goerr.Wrap(ErrInvalidInput, "content must not be empty", goerr.V(MemoryIDKey, id))
		}
		update.Content = &content
	}

	updated, err := uc.repo.Memory().Update(ctx, id, update)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrMemoryNotFound, "memory not found", goerr.V(MemoryIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to update memory", goerr.V(MemoryIDKey, id))
	}
	return updated, nil
}

// Delete removes an owned memory.
func (uc *MemoryUseCase) Delete(ctx context.Context, userID model.UserID, id model.MemoryID) error {
	if _, err := uc.Get(ctx, userID, id); err != nil {
		return err
	}

	if err := uc.repo.Memory().Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return goerr.Wrap(ErrMemoryNotFound, "memory not found", goerr.V(MemoryIDKey, id))
		}
		return goerr.Wrap(err, "failed to delete memory", goerr.V(MemoryIDKey, id))
	}
	return nil
}

// List returns the user's memories, most recent first.
func (uc *MemoryUseCase) List(ctx context.Context, userID model.UserID) ([]*model.Memory, error) {
	memories, err := uc.repo.Memory().List(ctx, userID, 0)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories", goerr.V(UserIDKey, userID))
	}
	return memories, nil
}

// ListGrouped returns the user's memories keyed by category.
func (uc *MemoryUseCase) ListGrouped(ctx context.Context, userID model.UserID) (map[string][]*model.Memory, error) {
	memories, err := uc.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return model.GroupByCategory(memories), nil
}

// Metrics summarizes the user's memories.
func (uc *MemoryUseCase) Metrics(ctx context.Context, userID model.UserID) (*model.MemoryMetrics, error) {
	memories, err := uc.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return model.ComputeMemoryMetrics(memories, uc.now()), nil
}

func isNotFound(err error) bool {
	return errors.Is(err, interfaces.ErrNotFound)
}
