package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/dynattr/pkg/cli/config"
	httpctrl "github.com/secmon-lab/dynattr/pkg/controller/http"
	"github.com/secmon-lab/dynattr/pkg/service/catalog"
	"github.com/secmon-lab/dynattr/pkg/service/worker"
	"github.com/secmon-lab/dynattr/pkg/usecase"
	"github.com/secmon-lab/dynattr/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var maxBodyBytes int64
	var requestTimeout time.Duration
	var applyConcurrency int
	var repoCfg config.Repository
	var catalogCfg config.Catalog

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("DYNATTR_ADDR"),
			Destination: &addr,
		},
		&cli.Int64Flag{
			Name:        "max-body-bytes",
			Usage:       "Maximum accepted request body size for the API",
			Value:       httpctrl.DefaultMaxBodyBytes,
			Sources:     cli.EnvVars("DYNATTR_MAX_BODY_BYTES"),
			Destination: &maxBodyBytes,
		},
		&cli.DurationFlag{
			Name:        "request-timeout",
			Usage:       "Per request timeout for the API",
			Value:       30 * time.Second,
			Sources:     cli.EnvVars("DYNATTR_REQUEST_TIMEOUT"),
			Destination: &requestTimeout,
		},
		&cli.IntFlag{
			Name:        "apply-concurrency",
			Usage:       "Concurrent inserts while applying a template",
			Value:       usecase.DefaultApplyConcurrency,
			Sources:     cli.EnvVars("DYNATTR_APPLY_CONCURRENCY"),
			Destination: &applyConcurrency,
		},
	}

	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, catalogCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.From(ctx)

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			uc := usecase.New(repo, usecase.WithApplyConcurrency(applyConcurrency))

			var syncWorker *worker.CatalogSyncWorker
			if len(catalogCfg.Paths()) > 0 {
				loader, closeLoader, err := catalogCfg.Configure(ctx)
				if err != nil {
					return goerr.Wrap(err, "failed to configure catalog loader")
				}
				defer closeLoader()

				if catalogCfg.Watch() || catalogCfg.PollInterval() > 0 {
					syncWorker = worker.NewCatalogSyncWorker(loader, catalogCfg.Paths(),
						func(ctx context.Context, c *catalog.Catalog) error {
							_, err := uc.Catalog.SyncCatalog(ctx, c)
							return err
						},
						worker.WithPollInterval(catalogCfg.PollInterval()),
					)
					if err := syncWorker.Start(ctx); err != nil {
						return goerr.Wrap(err, "failed to start catalog sync worker")
					}
				} else if err := syncCatalogs(ctx, uc, loader, catalogCfg.Paths()); err != nil {
					return err
				}
			}

			server := &http.Server{
				Addr: addr,
				Handler: httpctrl.New(uc,
					httpctrl.WithMaxBodyBytes(maxBodyBytes),
					httpctrl.WithRequestTimeout(requestTimeout),
				),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server", "addr", addr, "backend", repoCfg.Backend())
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				if syncWorker != nil {
					syncWorker.Stop()
				}
				return err
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)

				// Stop catalog sync first so no write races the shutdown
				if syncWorker != nil {
					syncWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logger.Info("Server shutdown completed")
				return nil
			}
		},
	}
}

func syncCatalogs(ctx context.Context, uc *usecase.UseCases, loader *catalog.Loader, paths []string) error {
	c, err := loader.Load(ctx, paths...)
	if err != nil {
		return goerr.Wrap(err, "failed to load catalogs")
	}
	if _, err := uc.Catalog.SyncCatalog(ctx, c); err != nil {
		return goerr.Wrap(err, "failed to sync catalogs")
	}
	return nil
}
