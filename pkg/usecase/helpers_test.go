package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/secmon-lab/memora/pkg/domain/interfaces"
	"github.com/secmon-lab/memora/pkg/domain/model"
	"github.com/secmon-lab/memora/pkg/repository/memory"
	"github.com/secmon-lab/memora/pkg/service/provider"
)

// stubCompleter answers every prompt with fn.
type stubCompleter struct {
	mu      sync.Mutex
	fn      func(prompt, system string) (string, error)
	prompts []string
}

func (c *stubCompleter) Complete(ctx context.Context, prompt, system string) (string, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, prompt)
	c.mu.Unlock()
	return c.fn(prompt, system)
}

func replyWith(reply string) *stubCompleter {
	return &stubCompleter{fn: func(string, string) (string, error) { return reply, nil }}
}

// hashEmbedder produces deterministic unit vectors; identical text maps to
// the same vector.
func hashEmbedder() interfaces.Embedder {
	return provider.NewDevMock()
}

type nilEmbedder struct{}

func (nilEmbedder) Embed(ctx context.Context, text string) []float32 { return nil }

type stubClassifier struct {
	labels []string
	err    error
}

func (c *stubClassifier) Classify(ctx context.Context, text string, labels []string) ([]string, error) {
	return c.labels, c.err
}

// spyRepository wraps the in-memory backend and records writes.
type spyRepository struct {
	base *memory.Memory
	spy  *spyMemoryRepository
}

type spyMemoryRepository struct {
	interfaces.MemoryRepository

	mu               sync.Mutex
	inserted         []*model.Memory
	embeddingUpdates []model.MemoryID
	insertErr        error
	listErr          error
}

func newSpyRepository() *spyRepository {
	base := memory.New()
	return &spyRepository{
		base: base,
		spy:  &spyMemoryRepository{MemoryRepository: base.Memory()},
	}
}

func (r *spyRepository) Memory() interfaces.MemoryRepository {
	return r.spy
}

func (r *spyRepository) Close() error {
	return r.base.Close()
}

func (r *spyMemoryRepository) Insert(ctx context.Context, mem *model.Memory) (*model.Memory, error) {
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	created, err := r.MemoryRepository.Insert(ctx, mem)
	if err == nil {
		r.mu.Lock()
		r.inserted = append(r.inserted, created)
		r.mu.Unlock()
	}
	return created, err
}

func (r *spyMemoryRepository) UpdateEmbedding(ctx context.Context, id model.MemoryID, embedding []float32) error {
	r.mu.Lock()
	r.embeddingUpdates = append(r.embeddingUpdates, id)
	r.mu.Unlock()
	return r.MemoryRepository.UpdateEmbedding(ctx, id, embedding)
}

func (r *spyMemoryRepository) List(ctx context.Context, userID model.UserID, limit int) ([]*model.Memory, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.MemoryRepository.List(ctx, userID, limit)
}

func (r *spyMemoryRepository) insertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inserted)
}

// failingRepository fails every call.
type failingRepository struct{}

type failingMemoryRepository struct{}

var errStoreDown = errors.New("store unreachable")

func (failingRepository) Memory() interfaces.MemoryRepository { return failingMemoryRepository{} }
func (failingRepository) Close() error                        { return nil }

func (failingMemoryRepository) Insert(context.Context, *model.Memory) (*model.Memory, error) {
	return nil, errStoreDown
}
func (failingMemoryRepository) UpdateEmbedding(context.Context, model.MemoryID, []float32) error {
	return errStoreDown
}
func (failingMemoryRepository) FindNearest(context.Context, model.UserID, []float32, int) ([]*model.ScoredMemory, error) {
	return nil, errStoreDown
}
func (failingMemoryRepository) List(context.Context, model.UserID, int) ([]*model.Memory, error) {
	return nil, errStoreDown
}
func (failingMemoryRepository) FindByContent(context.Context, model.UserID, string) ([]*model.Memory, error) {
	return nil, errStoreDown
}
func (failingMemoryRepository) ListWithoutEmbedding(context.Context, model.MemoryID, int) ([]*model.Memory, error) {
	return nil, errStoreDown
}
func (failingMemoryRepository) Get(context.Context, model.MemoryID) (*model.Memory, error) {
	return nil, errStoreDown
}
func (failingMemoryRepository) Update(context.Context, model.MemoryID, model.MemoryUpdate) (*model.Memory, error) {
	return nil, errStoreDown
}
func (failingMemoryRepository) Delete(context.Context, model.MemoryID) error {
	return errStoreDown
}

func lastQuestion(prompt string) string {
	idx := strings.LastIndex(prompt, "Question: ")
	if idx < 0 {
		return prompt
	}
	return prompt[idx+len("Question: "):]
}
