package config_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/memora/pkg/cli/config"
)

func TestRepository_Configure(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		repo, err := config.NewRepositoryForTest(config.BackendMemory, "", "").Configure(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, repo.Memory()).NotNil()
		gt.NoError(t, repo.Close())
	})

	t.Run("firestore requires project", func(t *testing.T) {
		_, err := config.NewRepositoryForTest(config.BackendFirestore, "", "").Configure(ctx)
		gt.Error(t, err).Is(config.ErrMissingOption)
	})

	t.Run("postgres requires dsn", func(t *testing.T) {
		_, err := config.NewRepositoryForTest(config.BackendPostgres, "", "").Configure(ctx)
		gt.Error(t, err).Is(config.ErrMissingOption)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := config.NewRepositoryForTest("sqlite", "", "").Configure(ctx)
		gt.Error(t, err).Is(config.ErrUnknownBackend)
	})
}

func TestRepository_DatabaseID(t *testing.T) {
	gt.Value(t, config.NewRepositoryForTest(config.BackendFirestore, "proj", "").DatabaseID()).Equal("(default)")
}
