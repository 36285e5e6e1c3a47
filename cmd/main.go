package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/thomas-vilte/svnreview/internal/cli/command/cache"
	"github.com/thomas-vilte/svnreview/internal/cli/command/catalog"
	"github.com/thomas-vilte/svnreview/internal/cli/command/commits"
	"github.com/thomas-vilte/svnreview/internal/cli/command/config"
	"github.com/thomas-vilte/svnreview/internal/cli/command/review"
	"github.com/thomas-vilte/svnreview/internal/cli/command/serve"
	"github.com/thomas-vilte/svnreview/internal/cli/registry"
	cfg "github.com/thomas-vilte/svnreview/internal/config"
	"github.com/thomas-vilte/svnreview/internal/i18n"
	"github.com/thomas-vilte/svnreview/internal/logger"
	"github.com/thomas-vilte/svnreview/internal/ui"
	"github.com/thomas-vilte/svnreview/internal/version"
	"github.com/urfave/cli/v3"
)

const configEnv = "SVNREVIEW_CONFIG"

func main() {
	app, translations, err := initializeApp()
	if err != nil {
		log.Fatalf("Error starting the cli: %v", err)
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		ui.HandleAppError(os.Stderr, err, translations)
		os.Exit(1)
	}
}

func defaultConfigPath() (string, error) {
	if path := os.Getenv(configEnv); path != "" {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not resolve the user home directory: %w", err)
	}
	return homeDir, nil
}

func initializeApp() (*cli.Command, *i18n.Translations, error) {
	configPath, err := defaultConfigPath()
	if err != nil {
		return nil, nil, err
	}

	// A broken config must not prevent --config from pointing elsewhere, so the
	// load error is reported from Before instead.
	cfgApp, loadErr := cfg.LoadConfig(configPath)
	if loadErr != nil {
		cfgApp = cfg.Defaults()
	}

	translations, err := i18n.NewTranslations(cfgApp.Language, "")
	if err != nil {
		return nil, nil, fmt.Errorf("error loading translations: %w", err)
	}

	registerCommand := registry.NewRegistry(cfgApp, translations)
	factories := []struct {
		name    string
		factory registry.CommandFactory
	}{
		{"serve", serve.NewServeCommand()},
		{"log", commits.NewLogCommand()},
		{"show", commits.NewShowCommand()},
		{"info", commits.NewInfoCommand()},
		{"review", review.NewReviewCommand()},
		{"session", review.NewSessionCommand()},
		{"rules", catalog.NewRulesCommand()},
		{"prompts", catalog.NewPromptsCommand()},
		{"config", config.NewConfigCommandFactory()},
		{"cache", cache.NewCacheCommand()},
	}
	for _, f := range factories {
		if err := registerCommand.Register(f.name, f.factory); err != nil {
			return nil, nil, err
		}
	}

	return &cli.Command{
		Name:                  "svnreview",
		Usage:                 translations.GetMessage("app_usage", 0, nil),
		Version:               version.FullVersion(),
		Commands:              registerCommand.CreateCommands(),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   translations.GetMessage("flag_config", 0, nil),
				Sources: cli.EnvVars(configEnv),
			},
			&cli.BoolFlag{Name: "debug", Usage: translations.GetMessage("flag_debug", 0, nil)},
			&cli.BoolFlag{Name: "verbose", Usage: translations.GetMessage("flag_verbose", 0, nil)},
			&cli.StringFlag{Name: "lang", Usage: translations.GetMessage("flag_lang", 0, nil)},
			&cli.StringFlag{Name: "log-format", Value: string(logger.FormatPretty), Usage: translations.GetMessage("flag_log_format", 0, nil)},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.IsSet("config") && cmd.String("config") != configPath {
				loaded, err := cfg.LoadConfig(cmd.String("config"))
				if err != nil {
					return ctx, err
				}
				*cfgApp = *loaded
			} else if loadErr != nil {
				return ctx, loadErr
			}

			lang := cfgApp.Language
			if cmd.IsSet("lang") {
				lang = cmd.String("lang")
			}
			if err := translations.SetLanguage(lang); err != nil {
				return ctx, err
			}

			logger.Initialize(logger.Options{
				Debug:   cmd.Bool("debug"),
				Verbose: cmd.Bool("verbose"),
				Format:  logger.Format(cmd.String("log-format")),
				Output:  cmd.ErrWriter,
			})
			return ctx, nil
		},
	}, translations, nil
}
