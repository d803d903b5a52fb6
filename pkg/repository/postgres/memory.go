package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pgvector/pgvector-go"
	"github.com/secmon-lab/memora/pkg/domain/model"
)

const memoryColumns = `id, user_id, title, content, category, tags, embedding, created_at`

type memoryRepository struct {
	pool *pgxpool.Pool
}

func scanMemory(row pgx.Row, extra ...any) (*model.Memory, error) {
	var (
		m         model.Memory
		id        int64
		userID    int64
		embedding *pgvector.Vector
	)

	dest := append([]any{&id, &userID, &m.Title, &m.Content, &m.Category, &m.Tags, &embedding, &m.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	m.ID = model.MemoryID(id)
	m.UserID = model.UserID(userID)
	m.Category = model.NormalizeCategory(m.Category)
	m.Tags = model.NormalizeTags(m.Tags)
	m.CreatedAt = m.CreatedAt.UTC()
	if embedding != nil {
		m.Embedding = embedding.Slice()
	}
	return &m, nil
}

func collectMemories(rows pgx.Rows) ([]*model.Memory, error) {
	defer rows.Close()

	memories := make([]*model.Memory, 0)
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan memory")
		}
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate memories")
	}
	return memories, nil
}

func toVector(embedding []float32) any {
	if len(embedding) == 0 {
		return nil
	}
	v := pgvector.NewVector(embedding)
	return &v
}

func (r *memoryRepository) Insert(ctx context.Context, mem *model.Memory) (*model.Memory, error) {
	if err := mem.Validate(); err != nil {
		return nil, goerr.Wrap(err, "failed to insert memory")
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO memories (user_id, title, content, category, tags, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+memoryColumns,
		int64(mem.UserID),
		mem.Title,
		mem.Content,
		model.NormalizeCategory(mem.Category),
		model.NormalizeTags(mem.Tags),
		toVector(mem.Embedding),
	)

	created, err := scanMemory(row)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert memory", goerr.V("userID", mem.UserID))
	}
	return created, nil
}

func (r *memoryRepository) UpdateEmbedding(ctx context.Context, id model.MemoryID, embedding []float32) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE memories SET embedding = $2 WHERE id = $1`,
		int64(id), toVector(embedding))
	if err != nil {
		return goerr.Wrap(err, "failed to update embedding", goerr.V("memoryID", id))
	}
	if tag.RowsAffected() == 0 {
		return goerr.Wrap(ErrNotFound, "memory not found", goerr.V("memoryID", id))
	}
	return nil
}

func (r *memoryRepository) FindNearest(ctx context.Context, userID model.UserID, embedding []float32, limit int) ([]*model.ScoredMemory, error) {
	if limit <= 0 {
		return []*model.ScoredMemory{}, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+memoryColumns+`, embedding <=> $2 AS distance
		 FROM memories
		 WHERE user_id = $1 AND embedding IS NOT NULL
		 ORDER BY distance ASC, id DESC
		 LIMIT $3`,
		int64(userID), pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query nearest memories", goerr.V("userID", userID))
	}
	defer rows.Close()

	results := make([]*model.ScoredMemory, 0, limit)
	for rows.Next() {
		var distance float64
		m, err := scanMemory(rows, &distance)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan nearest memory")
		}
		results = append(results, &model.ScoredMemory{Memory: m, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate nearest memories")
	}
	return results, nil
}

func (r *memoryRepository) List(ctx context.Context, userID model.UserID, limit int) ([]*model.Memory, error) {
	query := `SELECT ` + memoryColumns + ` FROM memories WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	args := []any{int64(userID)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories", goerr.V("userID", userID))
	}
	return collectMemories(rows)
}

func (r *memoryRepository) FindByContent(ctx context.Context, userID model.UserID, content string) ([]*model.Memory, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+memoryColumns+` FROM memories WHERE user_id = $1 AND content = $2 ORDER BY id DESC`,
		int64(userID), content)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find memories by content", goerr.V("userID", userID))
	}
	return collectMemories(rows)
}

func (r *memoryRepository) ListWithoutEmbedding(ctx context.Context, after model.MemoryID, limit int) ([]*model.Memory, error) {
	query := `SELECT ` + memoryColumns + ` FROM memories WHERE embedding IS NULL AND id > $1 ORDER BY id ASC`
	args := []any{int64(after)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories without embedding")
	}
	return collectMemories(rows)
}

func (r *memoryRepository) Get(ctx context.Context, id model.MemoryID) (*model.Memory, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+memoryColumns+` FROM memories WHERE id = $1`, int64(id))
	m, err := scanMemory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, goerr.Wrap(ErrNotFound, "memory not found", goerr.V("memoryID", id))
		}
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V("memoryID", id))
	}
	return m, nil
}

func (r *memoryRepository) Update(ctx context.Context, id model.MemoryID, update model.MemoryUpdate) (*model.Memory, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `SELECT `+memoryColumns+` FROM memories WHERE id = $1 FOR UPDATE`, int64(id))
	current, err := scanMemory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, goerr.Wrap(ErrNotFound, "memory not found", goerr.V("memoryID", id))
		}
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V("memoryID", id))
	}

	update.Apply(current)
	if err := current.Validate(); err != nil {
		return nil, goerr.Wrap(err, "failed to update memory", goerr.V("memoryID", id))
	}

	if _, err := tx.Exec(ctx,
		`UPDATE memories SET title = $2, content = $3, category = $4, tags = $5 WHERE id = $1`,
		int64(id), current.Title, current.Content, current.Category, current.Tags); err != nil {
		return nil, goerr.Wrap(err, "failed to update memory", goerr.V("memoryID", id))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, goerr.Wrap(err, "failed to commit memory update", goerr.V("memoryID", id))
	}
	return current, nil
}

func (r *memoryRepository) Delete(ctx context.Context, id model.MemoryID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM memories WHERE id = $1`, int64(id))
	if err != nil {
		return goerr.Wrap(err, "failed to delete memory", goerr.V("memoryID", id))
	}
	if tag.RowsAffected() == 0 {
		return goerr.Wrap(ErrNotFound, "memory not found", goerr.V("memoryID", id))
	}
	return nil
}
