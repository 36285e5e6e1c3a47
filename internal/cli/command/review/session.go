package review

import (
	"context"

	"github.com/thomas-vilte/svnreview/internal/config"
	"github.com/thomas-vilte/svnreview/internal/di"
	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/i18n"
	"github.com/thomas-vilte/svnreview/internal/services"
	"github.com/thomas-vilte/svnreview/internal/ui"
	"github.com/urfave/cli/v3"
)

type SessionCommand struct {
	opts []di.Option
}

func NewSessionCommand(opts ...di.Option) *SessionCommand {
	return &SessionCommand{opts: opts}
}

func (c *SessionCommand) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:    "session",
		Aliases: []string{"sessions"},
		Usage:   t.GetMessage("session_usage", 0, nil),
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: t.GetMessage("session_list_usage", 0, nil),
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: services.DefaultSessionListLimit, Usage: t.GetMessage("flag_limit", 0, nil)},
					&cli.BoolFlag{Name: "json", Usage: t.GetMessage("flag_json", 0, nil)},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					container := di.NewContainer(cfg, t, c.opts...)
					defer func() { _ = container.Close() }()

					reader, err := container.Sessions()
					if err != nil {
						return err
					}
					sessions, err := reader.ListSessions(ctx, int(cmd.Int("limit")))
					if err != nil {
						return err
					}

					w := cmd.Root().Writer
					if cmd.Bool("json") {
						return ui.PrintJSON(w, sessions)
					}
					if len(sessions) == 0 {
						ui.PrintWarning(w, t.GetMessage("list_empty", 0, nil))
						return nil
					}
					for _, s := range sessions {
						ui.PrintSessionLine(w, s)
					}
					return nil
				},
			},
			{
				Name:      "show",
				Usage:     t.GetMessage("session_show_usage", 0, nil),
				ArgsUsage: "<session-id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: t.GetMessage("flag_json", 0, nil)},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.NArg() == 0 {
						return errors.ErrValidation.WithMessage(t.GetMessage("missing_argument", 0, map[string]interface{}{
							"Name": "session-id",
						}))
					}

					container := di.NewContainer(cfg, t, c.opts...)
					defer func() { _ = container.Close() }()

					reader, err := container.Sessions()
					if err != nil {
						return err
					}
					session, err := reader.GetReviewSession(ctx, cmd.Args().First())
					if err != nil {
						return err
					}
					return printSession(cmd, t, session, cmd.Bool("json"))
				},
			},
		},
	}
}
