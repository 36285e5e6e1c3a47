package commits

import (
	"context"
	"fmt"
	"time"

	"github.com/thomas-vilte/svnreview/internal/cli/completion_helper"
	"github.com/thomas-vilte/svnreview/internal/config"
	"github.com/thomas-vilte/svnreview/internal/di"
	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/i18n"
	"github.com/thomas-vilte/svnreview/internal/models"
	"github.com/thomas-vilte/svnreview/internal/svn"
	"github.com/thomas-vilte/svnreview/internal/ui"
	"github.com/urfave/cli/v3"
)

type ShowCommand struct {
	opts []di.Option
}

func NewShowCommand(opts ...di.Option) *ShowCommand {
	return &ShowCommand{opts: opts}
}

type showOutput struct {
	Commit *models.CommitDetail `json:"commit"`
	Diffs  []models.Diff        `json:"diffs,omitempty"`
}

func (c *ShowCommand) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:          "show",
		Usage:         t.GetMessage("show_usage", 0, nil),
		ArgsUsage:     "<revision>",
		ShellComplete: completion_helper.DefaultFlagComplete,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "diff", Aliases: []string{"d"}, Usage: t.GetMessage("flag_diff", 0, nil)},
			&cli.BoolFlag{Name: "json", Usage: t.GetMessage("flag_json", 0, nil)},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() == 0 {
				return errors.ErrValidation.WithMessage(t.GetMessage("missing_argument", 0, map[string]interface{}{
					"Name": "revision",
				}))
			}
			revision, err := svn.ParseRevision(cmd.Args().First())
			if err != nil {
				return err
			}

			container := di.NewContainer(cfg, t, c.opts...)
			defer func() { _ = container.Close() }()

			svc, err := container.SVNService()
			if err != nil {
				return err
			}

			out := showOutput{}
			out.Commit, err = svc.GetCommitDetail(ctx, revision)
			if err != nil {
				return err
			}
			if cmd.Bool("diff") {
				out.Diffs, err = svc.GetCommitDiff(ctx, revision)
				if err != nil {
					return err
				}
			}

			w := cmd.Root().Writer
			if cmd.Bool("json") {
				return ui.PrintJSON(w, out)
			}

			ui.PrintSectionBanner(w, fmt.Sprintf("r%d", out.Commit.Revision))
			ui.PrintKeyValue(w, t.GetMessage("label_author", 0, nil), out.Commit.Author)
			ui.PrintKeyValue(w, t.GetMessage("label_date", 0, nil), out.Commit.Date.Local().Format(time.DateTime))
			_, _ = fmt.Fprintf(w, "\n%s\n", out.Commit.Message)

			ui.PrintFileTree(w, t.GetMessage("changed_paths", 0, nil), ui.FileStats(out.Commit.Files, out.Diffs))

			for _, d := range out.Diffs {
				_, _ = fmt.Fprintf(w, "\n%s\n%s", ui.Info.Sprint(d.Path), d.Diff)
			}
			return nil
		},
	}
}
