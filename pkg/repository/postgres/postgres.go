package postgres

import (
	"context"
	_ "embed"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/domain/interfaces"
)

//go:embed schema.sql
var schemaSQL string

// Postgres is the repository backend on PostgreSQL with the pgvector
// extension.
type Postgres struct {
	pool   *pgxpool.Pool
	memory *memoryRepository
}

var _ interfaces.Repository = &Postgres{}

func New(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create postgres pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, goerr.Wrap(err, "failed to connect to postgres")
	}

	return &Postgres{
		pool:   pool,
		memory: &memoryRepository{pool: pool},
	}, nil
}

// Migrate creates the pgvector extension, the memories table and its
// indexes. It is idempotent.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return goerr.Wrap(err, "failed to apply schema")
	}
	return nil
}

func (p *Postgres) Memory() interfaces.MemoryRepository {
	return p.memory
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
