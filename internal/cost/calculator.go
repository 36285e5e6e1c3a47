package cost

import (
	"strings"
	"sync"

	"github.com/thomas-vilte/svnreview/internal/models"
)

// Pricing is the USD price per million tokens of a model.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// https://openai.com/api/pricing
// https://ai.google.dev/gemini-api/docs/pricing
var defaultPricing = map[string]map[string]Pricing{
	"openai": {
		"gpt-4":       {InputPerMillion: 30.00, OutputPerMillion: 60.00},
		"gpt-4-turbo": {InputPerMillion: 10.00, OutputPerMillion: 30.00},
		"gpt-4o":      {InputPerMillion: 2.50, OutputPerMillion: 10.00},
		"gpt-4o-mini": {InputPerMillion: 0.15, OutputPerMillion: 0.60},
	},
	"gemini": {
		"gemini-1.5-flash": {InputPerMillion: 0.075, OutputPerMillion: 0.30},
		"gemini-1.5-pro":   {InputPerMillion: 1.25, OutputPerMillion: 5.00},
		"gemini-2.5-flash": {InputPerMillion: 0.30, OutputPerMillion: 2.50},
		"gemini-2.5-pro":   {InputPerMillion: 1.25, OutputPerMillion: 10.00},
	},
}

// Calculator estimates the price of a completion from its token usage.
type Calculator struct {
	mu      sync.RWMutex
	pricing map[string]map[string]Pricing
}

func NewCalculator() *Calculator {
	p := make(map[string]map[string]Pricing, len(defaultPricing))
	for provider, models := range defaultPricing {
		p[provider] = make(map[string]Pricing, len(models))
		for model, price := range models {
			p[provider][model] = price
		}
	}
	return &Calculator{pricing: p}
}

// Lookup finds the price of model. An exact name wins; otherwise the longest known
// model name that prefixes model is used, so dated snapshots such as
// "gpt-4o-mini-2024-07-18" resolve to their family.
func (c *Calculator) Lookup(provider, model string) (Pricing, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	table, ok := c.pricing[strings.ToLower(provider)]
	if !ok {
		return Pricing{}, false
	}
	model = strings.ToLower(model)
	if p, ok := table[model]; ok {
		return p, true
	}

	var (
		best    Pricing
		bestLen int
	)
	for name, p := range table {
		if strings.HasPrefix(model, name) && len(name) > bestLen {
			best, bestLen = p, len(name)
		}
	}
	return best, bestLen > 0
}

// Estimate returns the USD cost of usage, or 0 when the model is unknown or the
// response came from the cache.
func (c *Calculator) Estimate(provider string, usage *models.TokenUsage) float64 {
	if usage == nil || usage.CacheHit {
		return 0
	}
	p, ok := c.Lookup(provider, usage.Model)
	if !ok {
		return 0
	}
	return float64(usage.InputTokens)/1_000_000*p.InputPerMillion +
		float64(usage.OutputTokens)/1_000_000*p.OutputPerMillion
}

// SetPricing registers or overrides the price of a model.
func (c *Calculator) SetPricing(provider, model string, p Pricing) {
	c.mu.Lock()
	defer c.mu.Unlock()

	provider = strings.ToLower(provider)
	if _, ok := c.pricing[provider]; !ok {
		c.pricing[provider] = make(map[string]Pricing)
	}
	c.pricing[provider][strings.ToLower(model)] = p
}
