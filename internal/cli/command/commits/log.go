package commits

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/thomas-vilte/svnreview/internal/cli/completion_helper"
	"github.com/thomas-vilte/svnreview/internal/config"
	"github.com/thomas-vilte/svnreview/internal/di"
	"github.com/thomas-vilte/svnreview/internal/i18n"
	"github.com/thomas-vilte/svnreview/internal/models"
	"github.com/thomas-vilte/svnreview/internal/ui"
	"github.com/urfave/cli/v3"
)

type LogCommand struct {
	opts []di.Option
}

func NewLogCommand(opts ...di.Option) *LogCommand {
	return &LogCommand{opts: opts}
}

func (c *LogCommand) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:          "log",
		Usage:         t.GetMessage("log_usage", 0, nil),
		ShellComplete: completion_helper.DefaultFlagComplete,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "page", Aliases: []string{"p"}, Value: 1, Usage: t.GetMessage("flag_page", 0, nil)},
			&cli.IntFlag{Name: "page-size", Aliases: []string{"n"}, Usage: t.GetMessage("flag_page_size", 0, nil)},
			&cli.IntFlag{Name: "start", Usage: t.GetMessage("flag_start_revision", 0, nil)},
			&cli.IntFlag{Name: "end", Usage: t.GetMessage("flag_end_revision", 0, nil)},
			&cli.StringFlag{Name: "author", Aliases: []string{"a"}, Usage: t.GetMessage("flag_author", 0, nil)},
			&cli.StringFlag{Name: "keyword", Aliases: []string{"k"}, Usage: t.GetMessage("flag_keyword", 0, nil)},
			&cli.BoolFlag{Name: "json", Usage: t.GetMessage("flag_json", 0, nil)},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			container := di.NewContainer(cfg, t, c.opts...)
			defer func() { _ = container.Close() }()

			svc, err := container.SVNService()
			if err != nil {
				return err
			}

			page, err := svc.GetCommits(ctx,
				models.CommitFilters{
					Keyword:       cmd.String("keyword"),
					Author:        cmd.String("author"),
					StartRevision: int64(cmd.Int("start")),
					EndRevision:   int64(cmd.Int("end")),
				},
				models.PaginationParams{
					Page:     int(cmd.Int("page")),
					PageSize: int(cmd.Int("page-size")),
				})
			if err != nil {
				return err
			}

			w := cmd.Root().Writer
			if cmd.Bool("json") {
				return ui.PrintJSON(w, page)
			}

			if len(page.Data) == 0 {
				ui.PrintWarning(w, t.GetMessage("no_commits", 0, nil))
				return nil
			}

			ui.PrintInfo(w, t.GetMessage("commits_header", 0, map[string]interface{}{
				"Page":       page.Pagination.Page,
				"TotalPages": page.Pagination.TotalPages,
				"Total":      page.Pagination.TotalItems,
			}))
			for _, commit := range page.Data {
				_, _ = fmt.Fprintf(w, "%s  %s  %-12s %s\n",
					ui.Accent.Sprintf("r%d", commit.Revision),
					ui.Dim.Sprint(commit.Date.Local().Format(time.DateTime)),
					commit.Author,
					firstLine(commit.Message))
			}
			return nil
		},
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
