// Package openai talks to OpenAI-compatible chat completion endpoints.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/thomas-vilte/svnreview/internal/ai"
	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/httpclient"
	"github.com/thomas-vilte/svnreview/internal/logger"
	"github.com/thomas-vilte/svnreview/internal/models"
	"github.com/thomas-vilte/svnreview/internal/ports"
	"github.com/thomas-vilte/svnreview/internal/redact"
)

const (
	Name           = "openai"
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultTimeout = 30 * time.Second

	temperature = 0.3
	maxTokens   = 4096
)

var _ ports.ReviewProvider = (*Provider)(nil)

type Options struct {
	APIKey        string
	BaseURL       string
	Model         string
	Timeout       time.Duration
	RedactSecrets bool
	// Client overrides the bearer-authenticated default client.
	Client httpclient.HTTPClient
}

type Provider struct {
	client        httpclient.HTTPClient
	baseURL       string
	model         string
	timeout       time.Duration
	redactSecrets bool
}

func NewProvider(opts Options) (*Provider, error) {
	if opts.APIKey == "" && opts.Client == nil {
		return nil, errors.ErrAPIKeyMissing
	}
	p := &Provider{
		client:        opts.Client,
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		model:         opts.Model,
		timeout:       opts.Timeout,
		redactSecrets: opts.RedactSecrets,
	}
	if p.client == nil {
		p.client = httpclient.NewBearerClient(opts.APIKey)
	}
	if p.baseURL == "" {
		p.baseURL = DefaultBaseURL
	}
	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}
	return p, nil
}

func (p *Provider) Name() string            { return Name }
func (p *Provider) Model() string           { return p.model }
func (p *Provider) SupportsStreaming() bool { return true }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// GenerateReview sends one chat completion request. The call is bounded by the
// provider timeout and never retried.
func (p *Provider) GenerateReview(ctx context.Context, req models.ReviewRequest) (*models.ReviewResponse, error) {
	log := logger.FromContext(ctx)

	if p.redactSecrets {
		req = redact.Request(req)
	}
	prompt, err := ai.BuildPrompt(req)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(chatRequest{
		Model:       p.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("error encoding request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.ErrProviderRequest.WithError(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	log.Debug("calling openai", "model", p.model, "prompt_length", len(prompt))
	start := time.Now()

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.ErrProviderTimeout.WithContext("timeout_ms", p.timeout.Milliseconds())
		}
		return nil, errors.ErrProviderRequest.WithError(err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.ErrProviderTimeout.WithContext("timeout_ms", p.timeout.Milliseconds())
		}
		return nil, errors.ErrProviderRequest.WithError(err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		log.Error("openai API error", "status", httpResp.StatusCode)
		return nil, errors.ErrProviderRequest.
			WithMessage(fmt.Sprintf("OpenAI API error (%d): %s", httpResp.StatusCode, strings.TrimSpace(string(body)))).
			WithContext("status", httpResp.StatusCode)
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.ErrProviderRequest.WithMessage("Invalid response from OpenAI").WithError(err)
	}
	if len(result.Choices) == 0 {
		return nil, errors.ErrProviderEmptyResponse.WithMessage("No response from OpenAI")
	}

	resp := ai.ParseResponse(result.Choices[0].Message.Content)
	if result.Usage != nil {
		resp.Usage = &models.TokenUsage{
			InputTokens:  result.Usage.PromptTokens,
			OutputTokens: result.Usage.CompletionTokens,
			TotalTokens:  result.Usage.TotalTokens,
			Model:        p.model,
			DurationMs:   time.Since(start).Milliseconds(),
		}
	}

	log.Info("openai review received", "findings", len(resp.Findings), "duration_ms", time.Since(start).Milliseconds())
	return resp, nil
}
