package services

import (
	"context"
	"time"

	"github.com/thomas-vilte/svnreview/internal/ai"
	"github.com/thomas-vilte/svnreview/internal/cost"
	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/logger"
	"github.com/thomas-vilte/svnreview/internal/models"
	"github.com/thomas-vilte/svnreview/internal/ports"
)

type ReviewService struct {
	*SessionReader

	resolver ports.CommitResolver
	provider ports.ReviewProvider
	store    ports.ReviewStore
	pricing  *cost.Calculator
	now      func() time.Time
}

type ReviewOption func(*ReviewService)

// WithClock overrides the time source used for session timestamps.
func WithClock(now func() time.Time) ReviewOption {
	return func(s *ReviewService) { s.now = now }
}

// WithPricing sets the calculator used to price provider token usage.
func WithPricing(c *cost.Calculator) ReviewOption {
	return func(s *ReviewService) { s.pricing = c }
}

func NewReviewService(resolver ports.CommitResolver, provider ports.ReviewProvider, store ports.ReviewStore, opts ...ReviewOption) *ReviewService {
	s := &ReviewService{
		SessionReader: NewSessionReader(store),
		resolver:      resolver,
		provider:      provider,
		store:         store,
		pricing:       cost.NewCalculator(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ReviewService) Provider() ports.ReviewProvider {
	return s.provider
}

// ReviewCommits runs one review session to completion and returns its id. The session
// is persisted as in_progress first; any later failure marks it failed before the
// original error is returned. Findings stored before a failure are kept.
func (s *ReviewService) ReviewCommits(ctx context.Context, commitIDs []string) (string, error) {
	session := &models.ReviewSession{
		CommitIDs:    append([]string{}, commitIDs...),
		ProviderName: s.provider.Name(),
		Model:        s.provider.Model(),
		Status:       models.StatusInProgress,
		StartedAt:    s.now(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		logger.Error(ctx, "failed to create review session", err)
		return "", err
	}

	ctx = logger.With(ctx, "session_id", session.ID)
	log := logger.FromContext(ctx)
	log.Info("review started", "commits", len(commitIDs), "provider", session.ProviderName)

	resp, err := s.run(ctx, session, commitIDs)
	if err != nil {
		s.markFailed(ctx, session, err)
		return "", err
	}

	completedAt := s.now()
	session.Status = models.StatusCompleted
	session.CompletedAt = &completedAt
	session.Summary = resp.Summary
	session.Usage = resp.Usage
	if err := s.store.UpdateSession(ctx, session); err != nil {
		log.Error("failed to mark review session completed", "error", err)
		session.Summary = ""
		s.markFailed(ctx, session, err)
		return "", err
	}

	log.Info("review completed",
		"findings", len(resp.Findings),
		"duration_ms", completedAt.Sub(session.StartedAt).Milliseconds())
	return session.ID, nil
}

func (s *ReviewService) run(ctx context.Context, session *models.ReviewSession, commitIDs []string) (*models.ReviewResponse, error) {
	log := logger.FromContext(ctx)

	commits, err := s.resolver.ResolveCommits(ctx, commitIDs)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, errors.ErrNoCommitsFound.WithContext("commit_ids", commitIDs)
	}

	systemPrompt, err := s.activeSystemPrompt(ctx)
	if err != nil {
		return nil, err
	}
	rules, err := s.store.ListEnabledRules(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.provider.GenerateReview(ctx, models.ReviewRequest{
		CommitIDs:    commitIDs,
		SystemPrompt: systemPrompt,
		Rules:        rules,
		Commits:      commits,
	})
	if err != nil {
		return nil, err
	}

	if resp.Usage != nil {
		resp.Usage.CostUSD = s.pricing.Estimate(s.provider.Name(), resp.Usage)
		log.Debug("provider usage",
			"input_tokens", resp.Usage.InputTokens,
			"output_tokens", resp.Usage.OutputTokens,
			"cost_usd", resp.Usage.CostUSD,
			"cache_hit", resp.Usage.CacheHit)
	}

	for i := range resp.Findings {
		f := resp.Findings[i]
		f.ID = ""
		f.SessionID = session.ID
		if err := s.store.CreateFinding(ctx, &f); err != nil {
			log.Error("failed to persist finding", "error", err, "persisted", i, "total", len(resp.Findings))
			return nil, err
		}
	}

	return resp, nil
}

// markFailed records err on the session. It runs detached from ctx cancellation so a
// cancelled request still leaves the session in a terminal state.
func (s *ReviewService) markFailed(ctx context.Context, session *models.ReviewSession, cause error) {
	completedAt := s.now()
	session.Status = models.StatusFailed
	session.Error = errors.Message(cause)
	session.CompletedAt = &completedAt

	logger.Error(ctx, "review failed", cause)

	if err := s.store.UpdateSession(context.WithoutCancel(ctx), session); err != nil {
		logger.Error(ctx, "failed to mark review session failed", err)
	}
}

func (s *ReviewService) activeSystemPrompt(ctx context.Context) (string, error) {
	p, err := s.store.ActivePrompt(ctx)
	if err != nil {
		return "", err
	}
	if p == nil {
		return ai.DefaultSystemPrompt, nil
	}
	return p.Prompt, nil
}
