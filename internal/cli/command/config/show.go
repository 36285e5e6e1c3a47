package config

import (
	"context"
	"fmt"

	"github.com/thomas-vilte/svnreview/internal/config"
	"github.com/thomas-vilte/svnreview/internal/i18n"
	"github.com/thomas-vilte/svnreview/internal/ui"
	"github.com/urfave/cli/v3"
)

func (c *ConfigCommandFactory) newShowCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: t.GetMessage("config_show_usage", 0, nil),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w := cmd.Root().Writer
			kv := func(label, value string) {
				ui.PrintKeyValue(w, t.GetMessage(label, 0, nil), value)
			}

			ui.PrintSectionBanner(w, t.GetMessage("current_config", 0, nil))
			kv("label_config_file", cfg.PathFile)
			kv("label_language", cfg.Language)
			kv("label_server", cfg.Server.Addr)
			kv("label_url", orDash(cfg.SVN.URL))
			kv("label_provider", cfg.ActiveProvider())

			switch cfg.ActiveProvider() {
			case config.ProviderOpenAI:
				kv("label_model", cfg.AI.Model)
				kv("label_api_key", keyState(t, cfg.AI.APIKey))
			case config.ProviderGemini:
				kv("label_model", cfg.Gemini.Model)
				kv("label_api_key", keyState(t, cfg.Gemini.APIKey))
			}

			store := cfg.Store.Driver
			if cfg.Store.Driver != config.StoreMemory {
				store = fmt.Sprintf("%s (%s)", cfg.Store.Driver, cfg.Store.Path)
			}
			kv("label_store", store)
			kv("label_rate_limit", fmt.Sprintf("%d / %s", cfg.RateLimit.MaxRequests, cfg.RateLimitWindow()))
			return nil
		},
	}
}

func keyState(t *i18n.Translations, key string) string {
	if key == "" {
		return t.GetMessage("key_not_set", 0, nil)
	}
	return t.GetMessage("key_set", 0, nil)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
