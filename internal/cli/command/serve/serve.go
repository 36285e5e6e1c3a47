package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thomas-vilte/svnreview/internal/api"
	"github.com/thomas-vilte/svnreview/internal/cache"
	"github.com/thomas-vilte/svnreview/internal/cli/completion_helper"
	"github.com/thomas-vilte/svnreview/internal/config"
	"github.com/thomas-vilte/svnreview/internal/di"
	"github.com/thomas-vilte/svnreview/internal/i18n"
	"github.com/thomas-vilte/svnreview/internal/logger"
	"github.com/thomas-vilte/svnreview/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// cacheSweepInterval is how often expired review cache entries are removed while serving.
const cacheSweepInterval = time.Hour

type ServeCommand struct {
	opts []di.Option
}

func NewServeCommand(opts ...di.Option) *ServeCommand {
	return &ServeCommand{opts: opts}
}

func (c *ServeCommand) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:          "serve",
		Usage:         t.GetMessage("serve_usage", 0, nil),
		ShellComplete: completion_helper.DefaultFlagComplete,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: cfg.Server.Addr, Usage: t.GetMessage("flag_addr", 0, nil)},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			format := cfg.Server.LogFormat
			if cmd.IsSet("log-format") {
				format = cmd.String("log-format")
			}
			logger.Initialize(logger.Options{
				Debug:   cmd.Bool("debug"),
				Verbose: true,
				Format:  logger.Format(format),
				Output:  cmd.Root().ErrWriter,
			})

			container := di.NewContainer(cfg, t, c.opts...)
			defer func() { _ = container.Close() }()

			repo, err := container.SVNService()
			if err != nil {
				return err
			}
			reviews, err := container.ReviewService(ctx)
			if err != nil {
				return err
			}
			catalog, err := container.CatalogService()
			if err != nil {
				return err
			}
			limiter := container.Limiter()

			addr := cmd.String("addr")
			server := api.New(repo, reviews, catalog, limiter, api.Options{
				Addr:            addr,
				ReadTimeout:     time.Duration(cfg.Server.ReadTimeoutMs) * time.Millisecond,
				WriteTimeout:    time.Duration(cfg.Server.WriteTimeoutMs) * time.Millisecond,
				DefaultPageSize: cfg.Pagination.DefaultPageSize,
				MaxPageSize:     cfg.Pagination.MaxPageSize,
				TrustProxy:      cfg.Server.TrustProxy,
			})

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			limiter.Start(ctx)
			defer limiter.Stop()

			w := cmd.Root().Writer
			ui.PrintInfo(w, t.GetMessage("server_listening", 0, map[string]interface{}{"Addr": addr}))

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.ListenAndServe(gctx)
			})
			if cfg.AI.CacheDir != "" && cfg.CacheTTL() > 0 {
				g.Go(func() error {
					sweepCache(gctx, cfg)
					return nil
				})
			}

			if err := g.Wait(); err != nil {
				return err
			}
			ui.PrintSuccess(w, t.GetMessage("server_stopped", 0, nil))
			return nil
		},
	}
}

func sweepCache(ctx context.Context, cfg *config.Config) {
	c, err := cache.NewCache(cfg.AI.CacheDir, cfg.CacheTTL())
	if err != nil {
		logger.Warn(ctx, "review cache sweeper disabled", "error", err)
		return
	}

	ticker := time.NewTicker(cacheSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.CleanExpired(); err != nil {
				logger.Warn(ctx, "failed to sweep review cache", "error", err)
			}
		}
	}
}
