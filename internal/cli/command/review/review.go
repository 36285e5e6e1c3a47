package review

import (
	"context"

	"github.com/thomas-vilte/svnreview/internal/cli/completion_helper"
	"github.com/thomas-vilte/svnreview/internal/config"
	"github.com/thomas-vilte/svnreview/internal/di"
	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/i18n"
	"github.com/thomas-vilte/svnreview/internal/models"
	"github.com/thomas-vilte/svnreview/internal/ui"
	"github.com/urfave/cli/v3"
)

// MaxCommitIDs bounds one review run, matching the HTTP API.
const MaxCommitIDs = 50

type ReviewCommand struct {
	opts []di.Option
}

func NewReviewCommand(opts ...di.Option) *ReviewCommand {
	return &ReviewCommand{opts: opts}
}

func (c *ReviewCommand) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:          "review",
		Usage:         t.GetMessage("review_usage", 0, nil),
		ArgsUsage:     "<revision> [revision...]",
		ShellComplete: completion_helper.DefaultFlagComplete,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: t.GetMessage("flag_json", 0, nil)},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ids := cmd.Args().Slice()
			if err := validateIDs(ids, t); err != nil {
				return err
			}

			container := di.NewContainer(cfg, t, c.opts...)
			defer func() { _ = container.Close() }()

			reviews, err := container.ReviewService(ctx)
			if err != nil {
				return err
			}

			w := cmd.Root().Writer
			jsonOut := cmd.Bool("json")

			var sessionID string
			run := func() error {
				var err error
				sessionID, err = reviews.ReviewCommits(ctx, ids)
				return err
			}
			if jsonOut {
				err = run()
			} else {
				err = ui.WithSpinner(w, t.GetMessage("review_started", len(ids), map[string]interface{}{
					"Count": len(ids),
				}), run)
			}
			if err != nil {
				return err
			}

			session, err := reviews.GetReviewSession(ctx, sessionID)
			if err != nil {
				return err
			}
			return printSession(cmd, t, session, jsonOut)
		},
	}
}

func validateIDs(ids []string, t *i18n.Translations) error {
	if len(ids) == 0 {
		return errors.ErrValidation.WithMessage(t.GetMessage("missing_argument", 0, map[string]interface{}{
			"Name": "revision",
		}))
	}
	if len(ids) > MaxCommitIDs {
		return errors.ErrValidation.WithFields(errors.FieldError{
			Field:   "commitIds",
			Message: "must contain at most 50 items",
		})
	}
	return nil
}

func printSession(cmd *cli.Command, t *i18n.Translations, session *models.ReviewSession, jsonOut bool) error {
	w := cmd.Root().Writer
	if jsonOut {
		return ui.PrintJSON(w, session)
	}
	ui.PrintSession(w, session, t)
	if session.Status == models.StatusCompleted {
		ui.PrintSuccess(w, t.GetMessage("review_completed", 0, map[string]interface{}{"ID": session.ID}))
	}
	return nil
}
