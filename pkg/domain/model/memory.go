package model

import (
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// EmbeddingDimension is the vector size produced by the default embedding
// model (all-MiniLM-L6-v2).
const EmbeddingDimension = 384

const (
	// DefaultCategory is assigned to memories created without a category.
	DefaultCategory = "general"

	// MaxTags is the maximum number of tags a memory can carry.
	MaxTags = 3
)

// MemoryID is the store-assigned identifier of a Memory.
type MemoryID int64

// Memory is a persisted fact about a user.
type Memory struct {
	ID        MemoryID
	UserID    UserID
	Title     string
	Content   string
	Category  string
	Tags      []string
	Embedding []float32 // nil until the embedding has been computed
	CreatedAt time.Time
}

// HasEmbedding reports whether the vector has been populated.
func (m *Memory) HasEmbedding() bool {
	return len(m.Embedding) > 0
}

// Validate checks the invariants every stored memory must satisfy.
func (m *Memory) Validate() error {
	if strings.TrimSpace(m.Content) == "" {
		return goerr.Wrap(ErrInvalidMemory, "content is required")
	}
	if len(m.Tags) > MaxTags {
		return goerr.Wrap(ErrInvalidMemory, "too many tags", goerr.V("tags", m.Tags))
	}
	if m.UserID <= 0 {
		return goerr.Wrap(ErrInvalidMemory, "owner is required", goerr.V("userID", m.UserID))
	}
	return nil
}

// Copy returns a deep copy of m.
func (m *Memory) Copy() *Memory {
	copied := *m
	if m.Tags != nil {
		copied.Tags = append([]string{}, m.Tags...)
	}
	if m.Embedding != nil {
		copied.Embedding = append([]float32{}, m.Embedding...)
	}
	return &copied
}

// NormalizeTags trims each tag, drops empty ones and keeps at most MaxTags.
// The result is never nil.
func NormalizeTags(tags []string) []string {
	result := make([]string, 0, MaxTags)
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		result = append(result, tag)
		if len(result) == MaxTags {
			break
		}
	}
	return result
}

// NormalizeCategory returns DefaultCategory for a blank category.
func NormalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return DefaultCategory
	}
	return category
}

// ScoredMemory is a Memory returned by a nearest-neighbor query together with
// its distance to the query vector. Smaller is closer.
type ScoredMemory struct {
	Memory   *Memory
	Distance float64
}

// MemoryUpdate carries the fields of an explicit edit. nil leaves a field
// unchanged.
type MemoryUpdate struct {
	Title    *string
	Content  *string
	Category *string
	Tags     *[]string
}

// Apply writes the set fields of u onto m, normalizing tags and category.
func (u MemoryUpdate) Apply(m *Memory) {
	if u.Title != nil {
		m.Title = *u.Title
	}
	if u.Content != nil {
		m.Content = *u.Content
	}
	if u.Category != nil {
		m.Category = NormalizeCategory(*u.Category)
	}
	if u.Tags != nil {
		m.Tags = NormalizeTags(*u.Tags)
	}
}

// GroupByCategory buckets memories by category, preserving input order within
// each bucket.
func GroupByCategory(memories []*Memory) map[string][]*Memory {
	grouped := make(map[string][]*Memory)
	for _, m := range memories {
		cat := NormalizeCategory(m.Category)
		grouped[cat] = append(grouped[cat], m)
	}
	return grouped
}
