package config

import (
	"context"
	"time"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/dynattr/pkg/service/catalog"
	"github.com/secmon-lab/dynattr/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Catalog holds CLI flags for template and field catalogs
type Catalog struct {
	paths        []string
	watch        bool
	pollInterval time.Duration
}

// Flags returns CLI flags for catalog configuration
func (c *Catalog) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "catalog",
			Aliases:     []string{"c"},
			Usage:       "Catalog file, directory or gs://bucket/object (repeatable)",
			Category:    "Catalog",
			Sources:     cli.EnvVars("DYNATTR_CATALOG"),
			Destination: &c.paths,
		},
		&cli.BoolFlag{
			Name:        "catalog-watch",
			Usage:       "Re-sync catalogs whenever a local catalog file changes",
			Category:    "Catalog",
			Sources:     cli.EnvVars("DYNATTR_CATALOG_WATCH"),
			Destination: &c.watch,
		},
		&cli.DurationFlag{
			Name:        "catalog-poll-interval",
			Usage:       "Re-sync interval for catalogs, needed to follow gs:// objects (0 disables polling)",
			Category:    "Catalog",
			Sources:     cli.EnvVars("DYNATTR_CATALOG_POLL_INTERVAL"),
			Destination: &c.pollInterval,
		},
	}
}

// Paths returns the configured catalog locations
func (c *Catalog) Paths() []string {
	return c.paths
}

// Watch reports whether catalogs should be watched for changes
func (c *Catalog) Watch() bool {
	return c.watch
}

// PollInterval returns the remote polling interval
func (c *Catalog) PollInterval() time.Duration {
	return c.pollInterval
}

// Configure builds a catalog loader. A Cloud Storage client is only created
// when at least one path is remote; the returned closer releases it.
func (c *Catalog) Configure(ctx context.Context) (*catalog.Loader, func(), error) {
	remote := false
	for _, p := range c.paths {
		if catalog.IsRemote(p) {
			remote = true
			break
		}
	}
	if !remote {
		return catalog.NewLoader(), func() {}, nil
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create cloud storage client")
	}
	closer := func() {
		if err := client.Close(); err != nil {
			logging.Default().Warn("failed to close cloud storage client", "error", err.Error())
		}
	}
	return catalog.NewLoader(catalog.WithStorageClient(client)), closer, nil
}
