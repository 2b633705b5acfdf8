package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/dynattr/pkg/cli/config"
	"github.com/secmon-lab/dynattr/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// ErrNoCatalog is returned when a command needs at least one --catalog
var ErrNoCatalog = goerr.New("at least one --catalog is required")

func cmdValidate() *cli.Command {
	var catalogCfg config.Catalog

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate catalog files without touching a repository",
		Flags:   catalogCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			if len(catalogCfg.Paths()) == 0 {
				return ErrNoCatalog
			}

			loader, closer, err := catalogCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure catalog loader")
			}
			defer closer()

			cat, err := loader.Load(ctx, catalogCfg.Paths()...)
			if err != nil {
				return goerr.Wrap(err, "failed to load catalogs")
			}

			report := usecase.ValidateCatalog(cat)
			printReport(c.Root().Writer, report)

			if report.Errors.HasErrors() {
				return goerr.Wrap(report.Errors, "catalog validation failed")
			}
			return nil
		},
	}
}

func printReport(w io.Writer, report *usecase.CatalogReport) {
	failed := color.New(color.FgRed, color.Bold)
	warned := color.New(color.FgYellow)
	passed := color.New(color.FgGreen, color.Bold)

	for _, fe := range report.Errors {
		_, _ = failed.Fprintf(w, "✗ %s\n", fe.Field)
		for _, msg := range fe.Messages {
			_, _ = fmt.Fprintf(w, "    %s\n", msg)
		}
	}
	for _, d := range report.Diagnostics {
		_, _ = warned.Fprintf(w, "! %s: %s (%s)\n", d.Field, d.Code, d.Detail)
	}

	if report.Errors.HasErrors() {
		_, _ = failed.Fprintf(w, "%d invalid entries\n", len(report.Errors))
		return
	}
	_, _ = passed.Fprintf(w, "✓ %d templates, %d fields\n", len(report.Templates), len(report.Fields))
}
