// Package gemini reviews commits with Google's Gemini models through the genai SDK.
package gemini

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/thomas-vilte/svnreview/internal/ai"
	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/logger"
	"github.com/thomas-vilte/svnreview/internal/models"
	"github.com/thomas-vilte/svnreview/internal/ports"
	"github.com/thomas-vilte/svnreview/internal/redact"
)

const (
	Name           = "gemini"
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 30 * time.Second
)

var _ ports.ReviewProvider = (*Provider)(nil)

type generateFunc func(ctx context.Context, model, prompt string) (*genai.GenerateContentResponse, error)

type Options struct {
	APIKey        string
	Model         string
	Timeout       time.Duration
	RedactSecrets bool
}

type Provider struct {
	client        *genai.Client
	model         string
	timeout       time.Duration
	redactSecrets bool
	generateFn    generateFunc
}

func NewProvider(ctx context.Context, opts Options) (*Provider, error) {
	if opts.APIKey == "" {
		return nil, errors.ErrAPIKeyMissing.WithSuggestion("Set gemini.api_key in the config file or SVNREVIEW_GEMINI_API_KEY")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.NewAppError(errors.TypeProvider, "error creating Gemini client", err)
	}

	p := &Provider{
		client:        client,
		model:         opts.Model,
		timeout:       opts.Timeout,
		redactSecrets: opts.RedactSecrets,
	}
	if p.model == "" {
		p.model = DefaultModel
	}
	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}
	p.generateFn = p.defaultGenerate
	return p, nil
}

func (p *Provider) Name() string            { return Name }
func (p *Provider) Model() string           { return p.model }
func (p *Provider) SupportsStreaming() bool { return true }

func (p *Provider) defaultGenerate(ctx context.Context, model, prompt string) (*genai.GenerateContentResponse, error) {
	return p.client.Models.GenerateContent(ctx, model, genai.Text(prompt), generateConfig())
}

func generateConfig() *genai.GenerateContentConfig {
	temperature := float32(0.3)
	return &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  int32(4096),
		ResponseMIMEType: "application/json",
	}
}

func (p *Provider) GenerateReview(ctx context.Context, req models.ReviewRequest) (*models.ReviewResponse, error) {
	log := logger.FromContext(ctx)

	if p.redactSecrets {
		req = redact.Request(req)
	}
	prompt, err := ai.BuildPrompt(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	log.Debug("calling gemini", "model", p.model, "prompt_length", len(prompt))
	start := time.Now()

	resp, err := p.generateFn(ctx, p.model, prompt)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.ErrProviderTimeout.WithContext("timeout_ms", p.timeout.Milliseconds())
		}
		log.Error("gemini API call failed", "error", err, "model", p.model)
		return nil, classify(err)
	}

	text := responseText(resp)
	if text == "" {
		return nil, errors.ErrProviderEmptyResponse.WithMessage("No response from Gemini")
	}

	review := ai.ParseResponse(text)
	review.Usage = extractUsage(resp, p.model)
	if review.Usage != nil {
		review.Usage.DurationMs = time.Since(start).Milliseconds()
	}

	log.Info("gemini review received", "findings", len(review.Findings), "duration_ms", time.Since(start).Milliseconds())
	return review, nil
}

func classify(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota"), strings.Contains(msg, "resource exhausted"), strings.Contains(msg, "rate limit"):
		return errors.ErrProviderRequest.WithMessage("Gemini quota exceeded").WithError(err)
	case strings.Contains(msg, "api key"), strings.Contains(msg, "unauthorized"), strings.Contains(msg, "permission"):
		return errors.ErrProviderRequest.WithMessage("Gemini rejected the API key").WithError(err)
	default:
		return errors.ErrProviderRequest.WithError(err)
	}
}

// responseText joins the non-thought text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func extractUsage(resp *genai.GenerateContentResponse, model string) *models.TokenUsage {
	if resp == nil || resp.UsageMetadata == nil {
		return nil
	}
	return &models.TokenUsage{
		InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
		OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
		Model:        model,
	}
}
