package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/dynattr/pkg/cli/config"
	"github.com/secmon-lab/dynattr/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// parse runs a throwaway command so flag destinations are populated
func parse(t *testing.T, flags []cli.Flag, args ...string) {
	t.Helper()
	cmd := &cli.Command{
		Name:   "test",
		Flags:  flags,
		Action: func(context.Context, *cli.Command) error { return nil },
	}
	gt.NoError(t, cmd.Run(context.Background(), append([]string{"test"}, args...))).Required()
}

func TestRepository_Configure(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "memory by default"},
		{name: "sqlite in memory", args: []string{"--repository-backend", "sqlite", "--sql-dsn", "file::memory:"}},
		{name: "sqlite without dsn", args: []string{"--repository-backend", "sqlite"}, wantErr: config.ErrMissingDSN},
		{name: "postgres without dsn", args: []string{"--repository-backend", "postgres"}, wantErr: config.ErrMissingDSN},
		{name: "firestore without project", args: []string{"--repository-backend", "firestore"}, wantErr: config.ErrMissingProjectID},
		{name: "unknown backend", args: []string{"--repository-backend", "mysql"}, wantErr: config.ErrInvalidBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg config.Repository
			parse(t, cfg.Flags(), tt.args...)

			repo, err := cfg.Configure(context.Background())
			if tt.wantErr != nil {
				gt.Bool(t, errors.Is(err, tt.wantErr)).True()
				return
			}
			gt.NoError(t, err).Required()
			defer func() { _ = repo.Close() }()
			gt.Value(t, repo.FieldDefinition()).NotNil()
			gt.Value(t, repo.Template()).NotNil()
		})
	}
}

func TestLogger_Configure(t *testing.T) {
	prev := logging.Default()
	t.Cleanup(func() { logging.SetDefault(prev) })

	t.Run("writes json to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dynattr.log")
		var cfg config.Logger
		parse(t, cfg.Flags(), "--log-format", "json", "--log-output", path, "--log-level", "debug")

		closer, err := cfg.Configure()
		gt.NoError(t, err).Required()
		logging.Default().Debug("hello", "field", "expiry")
		closer()

		data, err := os.ReadFile(path)
		gt.NoError(t, err).Required()
		gt.String(t, string(data)).Contains(`"msg":"hello"`)
		gt.String(t, string(data)).Contains(`"field":"expiry"`)
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		var cfg config.Logger
		parse(t, cfg.Flags(), "--log-level", "verbose")
		_, err := cfg.Configure()
		gt.Error(t, err).Is(config.ErrInvalidLogLevel)
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		var cfg config.Logger
		parse(t, cfg.Flags(), "--log-format", "xml")
		_, err := cfg.Configure()
		gt.Error(t, err).Is(config.ErrInvalidLogFormat)
	})
}

func TestCatalog_Flags(t *testing.T) {
	var cfg config.Catalog
	parse(t, cfg.Flags(),
		"--catalog", "retail.toml",
		"--catalog", "catalogs/",
		"--catalog-watch",
		"--catalog-poll-interval", "30s",
	)

	gt.Array(t, cfg.Paths()).Length(2)
	gt.Value(t, cfg.Paths()[1]).Equal("catalogs/")
	gt.Bool(t, cfg.Watch()).True()
	gt.Value(t, cfg.PollInterval()).Equal(30 * time.Second)

	loader, closer, err := cfg.Configure(context.Background())
	gt.NoError(t, err).Required()
	defer closer()
	gt.Value(t, loader).NotNil()
}

func TestSentry_Disabled(t *testing.T) {
	var cfg config.Sentry
	parse(t, cfg.Flags())
	gt.Bool(t, cfg.Enabled()).False()

	closer, err := cfg.Configure("test")
	gt.NoError(t, err).Required()
	closer()
}
