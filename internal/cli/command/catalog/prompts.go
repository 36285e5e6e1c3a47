package catalog

import (
	"context"
	"fmt"

	"github.com/thomas-vilte/svnreview/internal/cli/completion_helper"
	"github.com/thomas-vilte/svnreview/internal/config"
	"github.com/thomas-vilte/svnreview/internal/di"
	"github.com/thomas-vilte/svnreview/internal/i18n"
	"github.com/thomas-vilte/svnreview/internal/services"
	"github.com/thomas-vilte/svnreview/internal/ui"
	"github.com/urfave/cli/v3"
)

type PromptsCommand struct {
	opts []di.Option
}

func NewPromptsCommand(opts ...di.Option) *PromptsCommand {
	return &PromptsCommand{opts: opts}
}

func (c *PromptsCommand) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	withCatalog := func(fn func(*services.CatalogService) error) error {
		container := di.NewContainer(cfg, t, c.opts...)
		defer func() { _ = container.Close() }()

		catalog, err := container.CatalogService()
		if err != nil {
			return err
		}
		return fn(catalog)
	}

	return &cli.Command{
		Name:    "prompts",
		Aliases: []string{"prompt"},
		Usage:   t.GetMessage("prompts_usage", 0, nil),
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: t.GetMessage("list_usage", 0, nil),
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: t.GetMessage("flag_json", 0, nil)},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withCatalog(func(catalog *services.CatalogService) error {
						prompts, err := catalog.ListPrompts(ctx)
						if err != nil {
							return err
						}

						w := cmd.Root().Writer
						if cmd.Bool("json") {
							return ui.PrintJSON(w, prompts)
						}
						if len(prompts) == 0 {
							ui.PrintWarning(w, t.GetMessage("list_empty", 0, nil))
							return nil
						}
						for _, p := range prompts {
							marker := " "
							if p.IsActive {
								marker = ui.Success.Sprint("*")
							}
							_, _ = fmt.Fprintf(w, "%s %s  %s\n", marker, p.ID, ui.Accent.Sprint(p.Name))
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
					&cli.BoolFlag{Name: "activate", Usage: t.GetMessage("flag_activate", 0, nil)},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withCatalog(func(catalog *services.CatalogService) error {
						prompt, err := catalog.CreatePrompt(ctx, services.NewPrompt{
							Name:     cmd.String("name"),
							Prompt:   cmd.String("content"),
							IsActive: cmd.Bool("activate"),
						})
						if err != nil {
							return err
						}
						ui.PrintSuccess(cmd.Root().Writer, t.GetMessage("entry_saved", 0, map[string]interface{}{
							"Name": fmt.Sprintf("%s (%s)", prompt.Name, prompt.ID),
						}))
						return nil
					})
				},
			},
			{
				Name:      "activate",
				Usage:     t.GetMessage("activate_usage", 0, nil),
				ArgsUsage: "<prompt-id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := requireID(cmd, t, "prompt-id")
					if err != nil {
						return err
					}
					return withCatalog(func(catalog *services.CatalogService) error {
						if err := catalog.ActivatePrompt(ctx, id); err != nil {
							return err
						}
						ui.PrintSuccess(cmd.Root().Writer, t.GetMessage("prompt_activated", 0, map[string]interface{}{"Name": id}))
						return nil
					})
				},
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     t.GetMessage("remove_usage", 0, nil),
				ArgsUsage: "<prompt-id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := requireID(cmd, t, "prompt-id")
					if err != nil {
						return err
					}
					return withCatalog(func(catalog *services.CatalogService) error {
						if err := catalog.DeletePrompt(ctx, id); err != nil {
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
