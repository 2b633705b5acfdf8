package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/dynattr/pkg/cli/config"
	"github.com/secmon-lab/dynattr/pkg/domain/types"
	"github.com/secmon-lab/dynattr/pkg/usecase"
	"github.com/secmon-lab/dynattr/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdTemplate() *cli.Command {
	var repoCfg config.Repository
	var catalogCfg config.Catalog

	flags := repoCfg.Flags()
	flags = append(flags, catalogCfg.Flags()...)

	// withUseCases opens the repository, syncs any given catalogs into it and
	// hands the use cases to fn
	withUseCases := func(ctx context.Context, fn func(*usecase.UseCases) error) error {
		repo, err := repoCfg.Configure(ctx)
		if err != nil {
			return goerr.Wrap(err, "failed to initialize repository")
		}
		defer func() {
			if err := repo.Close(); err != nil {
				logging.From(ctx).Error("failed to close repository", "error", err.Error())
			}
		}()

		uc := usecase.New(repo)
		if len(catalogCfg.Paths()) > 0 {
			loader, closer, err := catalogCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure catalog loader")
			}
			defer closer()
			if err := syncCatalogs(ctx, uc, loader, catalogCfg.Paths()); err != nil {
				return err
			}
		}
		return fn(uc)
	}

	return &cli.Command{
		Name:    "template",
		Aliases: []string{"t"},
		Usage:   "List and apply field templates",
		Flags:   flags,
		Commands: []*cli.Command{
			cmdTemplateList(withUseCases),
			cmdTemplateApply(withUseCases),
		},
	}
}

type useCaseRunner func(ctx context.Context, fn func(*usecase.UseCases) error) error

func cmdTemplateList(run useCaseRunner) *cli.Command {
	var industry string
	var activeOnly bool

	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List templates",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "industry",
				Usage:       "Only list templates of this industry",
				Destination: &industry,
			},
			&cli.BoolFlag{
				Name:        "active-only",
				Usage:       "Hide inactive templates",
				Destination: &activeOnly,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return run(ctx, func(uc *usecase.UseCases) error {
				filter := usecase.TemplateFilter{ActiveOnly: activeOnly}
				if industry != "" {
					filter.Industry = &industry
				}
				templates, err := uc.Template.ListTemplates(ctx, filter)
				if err != nil {
					return goerr.Wrap(err, "failed to list templates")
				}

				tw := tabwriter.NewWriter(c.Root().Writer, 0, 4, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "CODE\tNAME\tINDUSTRY\tAPPLIES TO\tFIELDS\tACTIVE")
				for _, t := range templates {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%t\n",
						t.Code, t.Name, t.Industry, t.AppliesTo, len(t.FieldConfigs), t.Active)
				}
				return tw.Flush()
			})
		},
	}
}

func cmdTemplateApply(run useCaseRunner) *cli.Command {
	var code string
	var appliesTo string

	return &cli.Command{
		Name:  "apply",
		Usage: "Create the fields of a template in a scope, skipping names that already exist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "code",
				Usage:       "Template code",
				Required:    true,
				Destination: &code,
			},
			&cli.StringFlag{
				Name:        "applies-to",
				Usage:       "Target scope; defaults to the template's own scope",
				Destination: &appliesTo,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return run(ctx, func(uc *usecase.UseCases) error {
				result, err := uc.Template.ApplyTemplate(ctx, types.TemplateCode(code), types.Scope(appliesTo))
				if err != nil {
					return goerr.Wrap(err, "failed to apply template")
				}

				w := c.Root().Writer
				created := color.New(color.FgGreen)
				skipped := color.New(color.FgYellow)
				for _, fd := range result.Created {
					_, _ = created.Fprintf(w, "+ %s.%s\n", result.AppliesTo, fd.Name)
				}
				for _, name := range result.Skipped {
					_, _ = skipped.Fprintf(w, "= %s.%s (exists)\n", result.AppliesTo, name)
				}
				_, _ = fmt.Fprintf(w, "%s: %d created, %d skipped\n", result.Code, len(result.Created), len(result.Skipped))
				return nil
			})
		},
	}
}
