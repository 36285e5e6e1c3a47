package ai

import (
	"context"
	"encoding/json"

	"github.com/thomas-vilte/svnreview/internal/cache"
	"github.com/thomas-vilte/svnreview/internal/logger"
	"github.com/thomas-vilte/svnreview/internal/models"
	"github.com/thomas-vilte/svnreview/internal/ports"
)

var _ ports.ReviewProvider = (*CachingProvider)(nil)

// CachingProvider serves repeated review requests from a file cache. Only responses
// carrying at least one finding are stored, so a fallback parse is retried next time.
type CachingProvider struct {
	next  ports.ReviewProvider
	cache *cache.Cache
}

func NewCachingProvider(next ports.ReviewProvider, c *cache.Cache) *CachingProvider {
	return &CachingProvider{next: next, cache: c}
}

func (p *CachingProvider) Name() string            { return p.next.Name() }
func (p *CachingProvider) Model() string           { return p.next.Model() }
func (p *CachingProvider) SupportsStreaming() bool { return p.next.SupportsStreaming() }

func (p *CachingProvider) GenerateReview(ctx context.Context, req models.ReviewRequest) (*models.ReviewResponse, error) {
	log := logger.FromContext(ctx)

	prompt, err := BuildPrompt(req)
	if err != nil {
		return nil, err
	}
	key := p.cache.GenerateHash(p.next.Name(), p.next.Model(), prompt)

	if raw, found, err := p.cache.Get(key); err != nil {
		log.Warn("review cache read failed", "error", err)
	} else if found {
		var cached models.ReviewResponse
		if err := json.Unmarshal(raw, &cached); err == nil {
			log.Debug("review served from cache", "provider", p.next.Name())
			if cached.Usage != nil {
				cached.Usage.CacheHit = true
			}
			return &cached, nil
		}
	}

	resp, err := p.next.GenerateReview(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(resp.Findings) > 0 {
		if err := p.cache.Set(key, resp); err != nil {
			log.Warn("review cache write failed", "error", err)
		}
	}

	return resp, nil
}
