package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/dynattr/pkg/domain/interfaces"
	"github.com/secmon-lab/dynattr/pkg/repository/firestore"
	"github.com/secmon-lab/dynattr/pkg/repository/memory"
	"github.com/secmon-lab/dynattr/pkg/repository/sql"
)

func newMemoryRepository(t *testing.T) interfaces.Repository {
	t.Helper()
	return memory.New()
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	ctx := context.Background()
	prefix := "test_" + uuid.NewString()[:8]
	repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix(prefix))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

func newSQLiteRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	repo, err := sql.NewSQLite(dsn)
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

func newPostgresRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	repo, err := sql.NewPostgres(dsn)
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

var backends = map[string]func(t *testing.T) interfaces.Repository{
	"Memory":    newMemoryRepository,
	"SQLite":    newSQLiteRepository,
	"Postgres":  newPostgresRepository,
	"Firestore": newFirestoreRepository,
}

func TestFieldDefinitionRepository(t *testing.T) {
	for name, newRepo := range backends {
		t.Run(name, func(t *testing.T) {
			runFieldDefinitionRepositoryTest(t, newRepo)
		})
	}
}

func TestTemplateRepository(t *testing.T) {
	for name, newRepo := range backends {
		t.Run(name, func(t *testing.T) {
			runTemplateRepositoryTest(t, newRepo)
		})
	}
}
