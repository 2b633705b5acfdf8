package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/dynattr/pkg/domain/interfaces"
	"github.com/secmon-lab/dynattr/pkg/repository/firestore"
	"github.com/secmon-lab/dynattr/pkg/repository/memory"
	"github.com/secmon-lab/dynattr/pkg/repository/sql"
	"github.com/secmon-lab/dynattr/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Repository backends
const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend          string
	projectID        string
	databaseID       string
	collectionPrefix string
	dsn              string `masq:"secret"`
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Repository backend type (memory, firestore, sqlite or postgres)",
			Value:       BackendMemory,
			Sources:     cli.EnvVars("DYNATTR_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Sources:     cli.EnvVars("DYNATTR_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Sources:     cli.EnvVars("DYNATTR_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
		&cli.StringFlag{
			Name:        "firestore-collection-prefix",
			Usage:       "Prefix prepended to every Firestore collection name",
			Sources:     cli.EnvVars("DYNATTR_FIRESTORE_COLLECTION_PREFIX"),
			Destination: &r.collectionPrefix,
		},
		&cli.StringFlag{
			Name:        "sql-dsn",
			Usage:       "Database DSN for sqlite (file path) or postgres (URL)",
			Sources:     cli.EnvVars("DYNATTR_SQL_DSN"),
			Destination: &r.dsn,
		},
	}
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// Configure initializes and returns a repository based on the configured backend.
// The caller is responsible for calling Close() on the returned repository.
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch r.backend {
	case BackendFirestore:
		if r.projectID == "" {
			return nil, goerr.Wrap(ErrMissingProjectID, "failed to configure repository")
		}
		var opts []firestore.Option
		if r.collectionPrefix != "" {
			opts = append(opts, firestore.WithCollectionPrefix(r.collectionPrefix))
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
			"collection_prefix", r.collectionPrefix,
		)
		return repo, nil

	case BackendSQLite, BackendPostgres:
		if r.dsn == "" {
			return nil, goerr.Wrap(ErrMissingDSN, "failed to configure repository", goerr.V(BackendKey, r.backend))
		}
		open := sql.NewPostgres
		if r.backend == BackendSQLite {
			open = sql.NewSQLite
		}
		repo, err := open(r.dsn)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize SQL repository", goerr.V(BackendKey, r.backend))
		}
		logging.Default().Info("Using SQL repository", "backend", r.backend)
		return repo, nil

	case BackendMemory:
		logging.Default().Info("Using in-memory repository (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.Wrap(ErrInvalidBackend, "failed to configure repository", goerr.V(BackendKey, r.backend))
	}
}
