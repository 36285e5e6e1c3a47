package providers

import (
	"context"

	"github.com/thomas-vilte/svnreview/internal/ai"
	"github.com/thomas-vilte/svnreview/internal/ai/gemini"
	"github.com/thomas-vilte/svnreview/internal/ai/mock"
	"github.com/thomas-vilte/svnreview/internal/ai/openai"
	"github.com/thomas-vilte/svnreview/internal/cache"
	"github.com/thomas-vilte/svnreview/internal/config"
	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/logger"
	"github.com/thomas-vilte/svnreview/internal/ports"
)

// NewReviewProvider builds the provider selected by cfg and, for remote backends with a
// positive cache TTL, wraps it in the response cache.
func NewReviewProvider(ctx context.Context, cfg *config.Config) (ports.ReviewProvider, error) {
	provider, err := newBaseProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if provider.Name() == mock.Name || cfg.CacheTTL() <= 0 || cfg.AI.CacheDir == "" {
		return provider, nil
	}

	c, err := cache.NewCache(cfg.AI.CacheDir, cfg.CacheTTL())
	if err != nil {
		logger.Warn(ctx, "review cache disabled", "error", err)
		return provider, nil
	}
	return ai.NewCachingProvider(provider, c), nil
}

func newBaseProvider(ctx context.Context, cfg *config.Config) (ports.ReviewProvider, error) {
	switch cfg.ActiveProvider() {
	case config.ProviderMock:
		return mock.NewProvider(false, cfg.MockDelay()), nil
	case config.ProviderOpenAI:
		p, err := openai.NewProvider(openai.Options{
			APIKey:        cfg.AI.APIKey,
			BaseURL:       cfg.AI.BaseURL,
			Model:         cfg.AI.Model,
			Timeout:       cfg.AITimeout(),
			RedactSecrets: cfg.AI.RedactSecrets,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.ProviderGemini:
		p, err := gemini.NewProvider(ctx, gemini.Options{
			APIKey:        cfg.Gemini.APIKey,
			Model:         cfg.Gemini.Model,
			Timeout:       cfg.AITimeout(),
			RedactSecrets: cfg.AI.RedactSecrets,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, errors.ErrUnknownProvider.
			WithMessage("Unknown AI provider: " + cfg.AI.Provider).
			WithSuggestion("Use one of: openai, gemini, mock")
	}
}
