package commits

import (
	"context"
	"strconv"

	"github.com/thomas-vilte/svnreview/internal/config"
	"github.com/thomas-vilte/svnreview/internal/di"
	"github.com/thomas-vilte/svnreview/internal/i18n"
	"github.com/thomas-vilte/svnreview/internal/ui"
	"github.com/urfave/cli/v3"
)

type InfoCommand struct {
	opts []di.Option
}

func NewInfoCommand(opts ...di.Option) *InfoCommand {
	return &InfoCommand{opts: opts}
}

func (c *InfoCommand) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: t.GetMessage("info_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: t.GetMessage("flag_json", 0, nil)},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			container := di.NewContainer(cfg, t, c.opts...)
			defer func() { _ = container.Close() }()

			svc, err := container.SVNService()
			if err != nil {
				return err
			}
			info, err := svc.GetRepositoryInfo(ctx)
			if err != nil {
				return err
			}

			w := cmd.Root().Writer
			if cmd.Bool("json") {
				return ui.PrintJSON(w, info)
			}
			ui.PrintKeyValue(w, t.GetMessage("label_url", 0, nil), info.URL)
			if info.UUID != "" {
				ui.PrintKeyValue(w, t.GetMessage("label_uuid", 0, nil), info.UUID)
			}
			ui.PrintKeyValue(w, t.GetMessage("label_revision", 0, nil), strconv.FormatInt(info.Revision, 10))
			return nil
		},
	}
}
