package firestore

import (
	"context"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	memoriesCollection = "memories"
	countersCollection = "counters"
	memoryCounterDoc   = "memories"
	distanceField      = "VectorDistance"
)

// memoryDoc is the Firestore document representation of model.Memory.
// Embedding is stored as firestore.Vector32 for FindNearest vector search.
// HasEmbedding mirrors len(Embedding) > 0 since Firestore cannot query for
// a missing field.
type memoryDoc struct {
	ID           int64              `firestore:"ID"`
	UserID       int64              `firestore:"UserID"`
	Title        string             `firestore:"Title"`
	Content      string             `firestore:"Content"`
	Category     string             `firestore:"Category"`
	Tags         []string           `firestore:"Tags"`
	Embedding    firestore.Vector32 `firestore:"Embedding,omitempty"`
	HasEmbedding bool               `firestore:"HasEmbedding"`
	CreatedAt    time.Time          `firestore:"CreatedAt"`
}

func toMemoryDoc(m *model.Memory) *memoryDoc {
	doc := &memoryDoc{
		ID:        int64(m.ID),
		UserID:    int64(m.UserID),
		Title:     m.Title,
		Content:   m.Content,
		Category:  m.Category,
		Tags:      m.Tags,
		CreatedAt: m.CreatedAt,
	}
	if len(m.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(m.Embedding)
		doc.HasEmbedding = true
	}
	return doc
}

func fromMemoryDoc(d *memoryDoc) *model.Memory {
	m := &model.Memory{
		ID:        model.MemoryID(d.ID),
		UserID:    model.UserID(d.UserID),
		Title:     d.Title,
		Content:   d.Content,
		Category:  model.NormalizeCategory(d.Category),
		Tags:      model.NormalizeTags(d.Tags),
		CreatedAt: d.CreatedAt,
	}
	if len(d.Embedding) > 0 {
		m.Embedding = []float32(d.Embedding)
	}
	return m
}

type memoryRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newMemoryRepository(client *firestore.Client) *memoryRepository {
	return &memoryRepository{client: client}
}

func (r *memoryRepository) collection(name string) *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + name)
}

func (r *memoryRepository) memoryDoc(id model.MemoryID) *firestore.DocumentRef {
	return r.collection(memoriesCollection).Doc(strconv.FormatInt(int64(id), 10))
}

func (r *memoryRepository) Insert(ctx context.Context, mem *model.Memory) (*model.Memory, error) {
	if err := mem.Validate(); err != nil {
		return nil, goerr.Wrap(err, "failed to insert memory")
	}

	created := mem.Copy()
	created.Category = model.NormalizeCategory(created.Category)
	created.Tags = model.NormalizeTags(created.Tags)
	created.CreatedAt = time.Now().UTC()

	counterRef := r.collection(countersCollection).Doc(memoryCounterDoc)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var nextID int64
		doc, err := tx.Get(counterRef)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return goerr.Wrap(err, "failed to get counter")
			}
			nextID = 1
		} else {
			currentValue, err := doc.DataAt("value")
			if err != nil {
				return goerr.Wrap(err, "failed to get counter value")
			}
			current, ok := currentValue.(int64)
			if !ok {
				return goerr.New("invalid counter value type", goerr.V("value", currentValue))
			}
			nextID = current + 1
		}

		if err := tx.Set(counterRef, map[string]any{"value": nextID}); err != nil {
			return goerr.Wrap(err, "failed to update counter")
		}

		created.ID = model.MemoryID(nextID)
		return tx.Create(r.memoryDoc(created.ID), toMemoryDoc(created))
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert memory", goerr.V("userID", mem.UserID))
	}

	return created, nil
}

func (r *memoryRepository) UpdateEmbedding(ctx context.Context, id model.MemoryID, embedding []float32) error {
	updates := []firestore.Update{
		{Path: "Embedding", Value: firestore.Vector32(embedding)},
		{Path: "HasEmbedding", Value: len(embedding) > 0},
	}
	if _, err := r.memoryDoc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "memory not found", goerr.V("memoryID", id))
		}
		return goerr.Wrap(err, "failed to update embedding", goerr.V("memoryID", id))
	}
	return nil
}

func (r *memoryRepository) FindNearest(ctx context.Context, userID model.UserID, embedding []float32, limit int) ([]*model.ScoredMemory, error) {
	if limit <= 0 {
		return []*model.ScoredMemory{}, nil
	}

	vq := r.collection(memoriesCollection).
		Where("UserID", "==", int64(userID)).
		FindNearest("Embedding", firestore.Vector32(embedding), limit, firestore.DistanceMeasureCosine,
			&firestore.FindNearestOptions{DistanceResultField: distanceField})

	iter := vq.Documents(ctx)
	defer iter.Stop()

	results := make([]*model.ScoredMemory, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate memory vector search results", goerr.V("userID", userID))
		}

		var d memoryDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal memory from vector search")
		}

		var distance float64
		if v, err := doc.DataAt(distanceField); err == nil {
			if f, ok := v.(float64); ok {
				distance = f
			}
		}

		results = append(results, &model.ScoredMemory{
			Memory:   fromMemoryDoc(&d),
			Distance: distance,
		})
	}

	return results, nil
}

func (r *memoryRepository) List(ctx context.Context, userID model.UserID, limit int) ([]*model.Memory, error) {
	q := r.collection(memoriesCollection).
		Where("UserID", "==", int64(userID)).
		OrderBy("CreatedAt", firestore.Desc).
		OrderBy("ID", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	return r.collect(ctx, q.Documents(ctx))
}

func (r *memoryRepository) FindByContent(ctx context.Context, userID model.UserID, content string) ([]*model.Memory, error) {
	q := r.collection(memoriesCollection).
		Where("UserID", "==", int64(userID)).
		Where("Content", "==", content)
	return r.collect(ctx, q.Documents(ctx))
}

func (r *memoryRepository) ListWithoutEmbedding(ctx context.Context, after model.MemoryID, limit int) ([]*model.Memory, error) {
	q := r.collection(memoriesCollection).
		Where("HasEmbedding", "==", false).
		Where("ID", ">", int64(after)).
		OrderBy("ID", firestore.Asc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	return r.collect(ctx, q.Documents(ctx))
}

func (r *memoryRepository) Get(ctx context.Context, id model.MemoryID) (*model.Memory, error) {
	doc, err := r.memoryDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "memory not found", goerr.V("memoryID", id))
		}
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V("memoryID", id))
	}

	var d memoryDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal memory", goerr.V("memoryID", id))
	}

	return fromMemoryDoc(&d), nil
}

func (r *memoryRepository) Update(ctx context.Context, id model.MemoryID, update model.MemoryUpdate) (*model.Memory, error) {
	var updated *model.Memory

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(r.memoryDoc(id))
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "memory not found", goerr.V("memoryID", id))
			}
			return goerr.Wrap(err, "failed to get memory", goerr.V("memoryID", id))
		}

		var d memoryDoc
		if err := doc.DataTo(&d); err != nil {
			return goerr.Wrap(err, "failed to unmarshal memory", goerr.V("memoryID", id))
		}

		updated = fromMemoryDoc(&d)
		update.Apply(updated)
		if err := updated.Validate(); err != nil {
			return goerr.Wrap(err, "failed to update memory", goerr.V("memoryID", id))
		}

		return tx.Update(r.memoryDoc(id), []firestore.Update{
			{Path: "Title", Value: updated.Title},
			{Path: "Content", Value: updated.Content},
			{Path: "Category", Value: updated.Category},
			{Path: "Tags", Value: updated.Tags},
		})
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *memoryRepository) Delete(ctx context.Context, id model.MemoryID) error {
	docRef := r.memoryDoc(id)

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "memory not found", goerr.V("memoryID", id))
		}
		return goerr.Wrap(err, "failed to get memory", goerr.V("memoryID", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete memory", goerr.V("memoryID", id))
	}

	return nil
}

func (r *memoryRepository) collect(ctx context.Context, iter *firestore.DocumentIterator) ([]*model.Memory, error) {
	defer iter.Stop()

	memories := make([]*model.Memory, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate memories")
		}

		var d memoryDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal memory")
		}

		memories = append(memories, fromMemoryDoc(&d))
	}

	return memories, nil
}
