package config

import (
	"context"
	"strings"

	"github.com/thomas-vilte/svnreview/internal/config"
	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/i18n"
	"github.com/thomas-vilte/svnreview/internal/ui"
	"github.com/urfave/cli/v3"
)

var supportedLanguages = []string{"en", "es"}

func (c *ConfigCommandFactory) newSetLangCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "set-lang",
		Usage: t.GetMessage("config_set_lang_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "lang",
				Aliases:  []string{"l"},
				Usage:    t.GetMessage("flag_lang", 0, nil),
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			lang := strings.ToLower(cmd.String("lang"))
			supported := false
			for _, l := range supportedLanguages {
				supported = supported || l == lang
			}
			if !supported {
				return errors.ErrValidation.
					WithMessage(t.GetMessage("unsupported_language", 0, map[string]interface{}{"Lang": lang})).
					WithFields(errors.FieldError{Field: "lang", Message: "must be one of en, es"})
			}

			next := *cfg
			next.Language = lang
			if err := save(&next, cfg); err != nil {
				return err
			}
			ui.PrintSuccess(cmd.Root().Writer, t.GetMessage("language_configured", 0, map[string]interface{}{"Lang": lang}))
			return nil
		},
	}
}

func (c *ConfigCommandFactory) newSetURLCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "set-url",
		Usage:     t.GetMessage("config_set_url_usage", 0, nil),
		ArgsUsage: "<repository-url>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: t.GetMessage("flag_username", 0, nil)},
			&cli.StringFlag{Name: "password", Usage: t.GetMessage("flag_password", 0, nil)},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			url := strings.TrimSpace(cmd.Args().First())
			if url == "" {
				return errors.ErrValidation.WithMessage(t.GetMessage("missing_argument", 0, map[string]interface{}{
					"Name": "repository-url",
				}))
			}

			next := *cfg
			next.SVN.URL = url
			if cmd.IsSet("username") {
				next.SVN.Username = cmd.String("username")
			}
			if cmd.IsSet("password") {
				next.SVN.Password = cmd.String("password")
			}
			if err := save(&next, cfg); err != nil {
				return err
			}
			ui.PrintSuccess(cmd.Root().Writer, t.GetMessage("config_saved", 0, map[string]interface{}{"Path": cfg.PathFile}))
			return nil
		},
	}
}

func (c *ConfigCommandFactory) newSetAICommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "set-ai",
		Usage: t.GetMessage("config_set_ai_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "provider", Aliases: []string{"p"}, Required: true, Usage: t.GetMessage("flag_provider", 0, nil)},
			&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: t.GetMessage("flag_model", 0, nil)},
			&cli.StringFlag{Name: "api-key", Aliases: []string{"k"}, Usage: t.GetMessage("flag_api_key", 0, nil)},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			next := *cfg
			provider := strings.ToLower(cmd.String("provider"))

			switch provider {
			case config.ProviderMock:
				next.AI.UseMock = true
			case config.ProviderGemini:
				next.AI.UseMock = false
				next.AI.Provider = provider
				if cmd.IsSet("model") {
					next.Gemini.Model = cmd.String("model")
				}
				if cmd.IsSet("api-key") {
					next.Gemini.APIKey = cmd.String("api-key")
				}
			default:
				next.AI.UseMock = false
				next.AI.Provider = provider
				if cmd.IsSet("model") {
					next.AI.Model = cmd.String("model")
				}
				if cmd.IsSet("api-key") {
					next.AI.APIKey = cmd.String("api-key")
				}
			}

			if err := save(&next, cfg); err != nil {
				return err
			}
			ui.PrintSuccess(cmd.Root().Writer, t.GetMessage("config_saved", 0, map[string]interface{}{"Path": cfg.PathFile}))
			return nil
		},
	}
}

// save writes next to disk and only then copies it into the live config, so a
// rejected change leaves both untouched.
func save(next, live *config.Config) error {
	if err := config.SaveConfig(next); err != nil {
		return errors.ErrConfigInvalid.WithMessage(err.Error())
	}
	*live = *next
	return nil
}
