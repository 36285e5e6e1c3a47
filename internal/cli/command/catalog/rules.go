package catalog

import (
	"context"
	"fmt"

	"github.com/thomas-vilte/svnreview/internal/cli/completion_helper"
	"github.com/thomas-vilte/svnreview/internal/config"
	"github.com/thomas-vilte/svnreview/internal/di"
	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/i18n"
	"github.com/thomas-vilte/svnreview/internal/services"
	"github.com/thomas-vilte/svnreview/internal/ui"
	"github.com/urfave/cli/v3"
)

type RulesCommand struct {
	opts []di.Option
}

func NewRulesCommand(opts ...di.Option) *RulesCommand {
	return &RulesCommand{opts: opts}
}

func (c *RulesCommand) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	withCatalog := func(fn func(*services.CatalogService) error) error {
		container := di.NewContainer(cfg, t, c.opts...)
		defer func() { _ = container.Close() }()

		catalog, err := container.CatalogService()
		if err != nil {
			return err
		}
		return fn(catalog)
	}

	toggle := func(name string, enabled bool, usage, done string) *cli.Command {
		return &cli.Command{
			Name:      name,
			Usage:     t.GetMessage(usage, 0, nil),
			ArgsUsage: "<rule-id>",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				id, err := requireID(cmd, t, "rule-id")
				if err != nil {
					return err
				}
				return withCatalog(func(catalog *services.CatalogService) error {
					if err := catalog.SetRuleEnabled(ctx, id, enabled); err != nil {
						return err
					}
					ui.PrintSuccess(cmd.Root().Writer, t.GetMessage(done, 0, map[string]interface{}{"Name": id}))
					return nil
				})
			},
		}
	}

	return &cli.Command{
		Name:    "rules",
		Aliases: []string{"rule"},
		Usage:   t.GetMessage("rules_usage", 0, nil),
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: t.GetMessage("list_usage", 0, nil),
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: t.GetMessage("flag_json", 0, nil)},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withCatalog(func(catalog *services.CatalogService) error {
						rules, err := catalog.ListRules(ctx)
						if err != nil {
							return err
						}

						w := cmd.Root().Writer
						if cmd.Bool("json") {
							return ui.PrintJSON(w, rules)
						}
						if len(rules) == 0 {
							ui.PrintWarning(w, t.GetMessage("list_empty", 0, nil))
							return nil
						}
						for _, r := range rules {
							state := ui.Success.Sprint("on ")
							if !r.Enabled {
								state = ui.Dim.Sprint("off")
							}
							_, _ = fmt.Fprintf(w, "%s  %s  %s\n", r.ID, state, ui.Accent.Sprint(r.Name))
							if r.Description != "" {
								_, _ = fmt.Fprintf(w, "    %s\n", ui.Dim.Sprint(r.Description))
							}
							_, _ = fmt.Fprintf(w, "    %s\n", r.Rule)
						}
						return nil
					})
				},
			},
			{
				Name:          "add",
				Usage:         t.GetMessage("add_usage", 0, nil),
				ShellComplete: completion_helper.DefaultFlagComplete,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true, Usage: t.GetMessage("flag_name", 0, nil)},
					&cli.StringFlag{Name: "content", Aliases: []string{"c"}, Required: true, Usage: t.GetMessage("flag_content", 0, nil)},
					&cli.StringFlag{Name: "description", Usage: t.GetMessage("flag_description", 0, nil)},
					&cli.BoolFlag{Name: "disabled", Usage: t.GetMessage("flag_disabled", 0, nil)},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					enabled := !cmd.Bool("disabled")
					return withCatalog(func(catalog *services.CatalogService) error {
						rule, err := catalog.CreateRule(ctx, services.NewRule{
							Name:        cmd.String("name"),
							Description: cmd.String("description"),
							Rule:        cmd.String("content"),
							Enabled:     &enabled,
						})
						if err != nil {
							return err
						}
						ui.PrintSuccess(cmd.Root().Writer, t.GetMessage("entry_saved", 0, map[string]interface{}{
							"Name": fmt.Sprintf("%s (%s)", rule.Name, rule.ID),
						}))
						return nil
					})
				},
			},
			toggle("enable", true, "enable_usage", "entry_enabled"),
			toggle("disable", false, "disable_usage", "entry_disabled"),
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     t.GetMessage("remove_usage", 0, nil),
				ArgsUsage: "<rule-id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := requireID(cmd, t, "rule-id")
					if err != nil {
						return err
					}
					return withCatalog(func(catalog *services.CatalogService) error {
						if err := catalog.DeleteRule(ctx, id); err != nil {
							return err
						}
						ui.PrintSuccess(cmd.Root().Writer, t.GetMessage("entry_removed", 0, map[string]interface{}{"Name": id}))
						return nil
					})
				},
			},
		},
	}
}

func requireID(cmd *cli.Command, t *i18n.Translations, name string) (string, error) {
	if cmd.NArg() == 0 {
		return "", errors.ErrValidation.WithMessage(t.GetMessage("missing_argument", 0, map[string]interface{}{
			"Name": name,
		}))
	}
	return cmd.Args().First(), nil
}
