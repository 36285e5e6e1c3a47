package di

import (
	"context"

	"github.com/thomas-vilte/svnreview/internal/config"
	"github.com/thomas-vilte/svnreview/internal/cost"
	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/i18n"
	"github.com/thomas-vilte/svnreview/internal/ports"
	"github.com/thomas-vilte/svnreview/internal/providers"
	"github.com/thomas-vilte/svnreview/internal/ratelimit"
	"github.com/thomas-vilte/svnreview/internal/services"
	"github.com/thomas-vilte/svnreview/internal/store"
	"github.com/thomas-vilte/svnreview/internal/svn"
)

// Container builds the application graph on demand. Every getter caches its result,
// so two calls return the same instance.
type Container struct {
	config       *config.Config
	translations *i18n.Translations

	store    ports.ReviewStore
	svn      *svn.Service
	provider ports.ReviewProvider
	reviews  *services.ReviewService
	catalog  *services.CatalogService
	limiter  *ratelimit.Limiter

	executor svn.Executor
}

type Option func(*Container)

// WithExecutor replaces the svn command line client.
func WithExecutor(exec svn.Executor) Option {
	return func(c *Container) {
		c.executor = exec
	}
}

func NewContainer(cfg *config.Config, trans *i18n.Translations, opts ...Option) *Container {
	c := &Container{
		config:       cfg,
		translations: trans,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Container) Config() *config.Config {
	return c.config
}

func (c *Container) Translations() *i18n.Translations {
	return c.translations
}

// Store opens the configured review store.
func (c *Container) Store() (ports.ReviewStore, error) {
	if c.store != nil {
		return c.store, nil
	}
	s, err := store.Open(c.config)
	if err != nil {
		return nil, err
	}
	c.store = s
	return c.store, nil
}

// SVNService fails with ErrRepositoryURLMissing when svn.url is not configured.
func (c *Container) SVNService() (*svn.Service, error) {
	if c.svn != nil {
		return c.svn, nil
	}
	if c.config.SVN.URL == "" {
		return nil, errors.ErrRepositoryURLMissing
	}
	exec := c.executor
	if exec == nil {
		exec = svn.NewCLIExecutor(c.config.SVN.Binary, c.config.SVN.Username, c.config.SVN.Password)
	}
	c.svn = svn.NewService(exec, svn.Options{
		URL:             c.config.SVN.URL,
		Timeout:         c.config.SVNTimeout(),
		DefaultPageSize: c.config.Pagination.DefaultPageSize,
		MaxPageSize:     c.config.Pagination.MaxPageSize,
	})
	return c.svn, nil
}

func (c *Container) Provider(ctx context.Context) (ports.ReviewProvider, error) {
	if c.provider != nil {
		return c.provider, nil
	}
	p, err := providers.NewReviewProvider(ctx, c.config)
	if err != nil {
		return nil, err
	}
	c.provider = p
	return c.provider, nil
}

func (c *Container) ReviewService(ctx context.Context) (*services.ReviewService, error) {
	if c.reviews != nil {
		return c.reviews, nil
	}

	resolver, err := c.SVNService()
	if err != nil {
		return nil, err
	}
	provider, err := c.Provider(ctx)
	if err != nil {
		return nil, err
	}
	st, err := c.Store()
	if err != nil {
		return nil, err
	}

	c.reviews = services.NewReviewService(resolver, provider, st, services.WithPricing(cost.NewCalculator()))
	return c.reviews, nil
}

// Sessions reads stored review sessions without requiring a repository or provider.
func (c *Container) Sessions() (*services.SessionReader, error) {
	if c.reviews != nil {
		return c.reviews.SessionReader, nil
	}
	st, err := c.Store()
	if err != nil {
		return nil, err
	}
	return services.NewSessionReader(st), nil
}

func (c *Container) CatalogService() (*services.CatalogService, error) {
	if c.catalog != nil {
		return c.catalog, nil
	}
	st, err := c.Store()
	if err != nil {
		return nil, err
	}
	c.catalog = services.NewCatalogService(st, st)
	return c.catalog, nil
}

// Limiter is created stopped; the caller owns Start and Stop.
func (c *Container) Limiter() *ratelimit.Limiter {
	if c.limiter == nil {
		c.limiter = ratelimit.New(ratelimit.Options{
			MaxRequests:   c.config.RateLimit.MaxRequests,
			Window:        c.config.RateLimitWindow(),
			SweepInterval: c.config.SweepInterval(),
		})
	}
	return c.limiter
}

// Close releases the store, if one was opened.
func (c *Container) Close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}
