package cache

import (
	"context"

	"github.com/thomas-vilte/svnreview/internal/cache"
	"github.com/thomas-vilte/svnreview/internal/config"
	"github.com/thomas-vilte/svnreview/internal/i18n"
	"github.com/thomas-vilte/svnreview/internal/ui"
	"github.com/urfave/cli/v3"
)

type CacheCommand struct{}

func NewCacheCommand() *CacheCommand {
	return &CacheCommand{}
}

func (c *CacheCommand) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: t.GetMessage("cache_usage", 0, nil),
		Commands: []*cli.Command{
			{
				Name:  "clean",
				Usage: t.GetMessage("cache_clean_usage", 0, nil),
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "expired", Usage: t.GetMessage("flag_expired", 0, nil)},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cacheService, err := cache.NewCache(cfg.AI.CacheDir, cfg.CacheTTL())
					if err != nil {
						return err
					}

					if cmd.Bool("expired") {
						err = cacheService.CleanExpired()
					} else {
						err = cacheService.Clean()
					}
					if err != nil {
						return err
					}

					ui.PrintSuccess(cmd.Root().Writer, t.GetMessage("cache_cleaned", 0, nil))
					return nil
				},
			},
		},
	}
}
