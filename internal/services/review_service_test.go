package services

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/thomas-vilte/svnreview/internal/ai"
	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/models"
	"github.com/thomas-vilte/svnreview/internal/store"
)

// failingFindingStore rejects every finding after the first `allow`.
type failingFindingStore struct {
	*store.MemoryStore
	allow int
	seen  int
}

func (s *failingFindingStore) CreateFinding(ctx context.Context, f *models.ReviewFinding) error {
	s.seen++
	if s.seen > s.allow {
		return stderrors.New("disk full")
	}
	return s.MemoryStore.CreateFinding(ctx, f)
}

// lockedOnceStore rejects the first session update, like a briefly locked database.
type lockedOnceStore struct {
	*store.MemoryStore
	updates int
}

func (s *lockedOnceStore) UpdateSession(ctx context.Context, session *models.ReviewSession) error {
	s.updates++
	if s.updates == 1 {
		return stderrors.New("database is locked")
	}
	return s.MemoryStore.UpdateSession(ctx, session)
}

type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func setupReview(t *testing.T) (*MockCommitResolver, *MockReviewProvider, *store.MemoryStore, *stepClock) {
	t.Helper()
	resolver := new(MockCommitResolver)
	provider := new(MockReviewProvider)
	provider.On("Name").Return("openai").Maybe()
	provider.On("Model").Return("gpt-4o").Maybe()
	return resolver, provider, store.NewMemoryStore(), &stepClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

var sampleCommits = []models.CommitData{
	{ID: "101", Author: "alice", Timestamp: time.Date(2024, 4, 30, 8, 0, 0, 0, time.UTC), Message: "Fix login", Diff: "Index: a.go\n+x"},
	{ID: "102", Author: "bob", Timestamp: time.Date(2024, 4, 30, 9, 0, 0, 0, time.UTC), Message: "Add cache", Diff: "Index: b.go\n+y"},
}

func findings(n int) []models.ReviewFinding {
	out := make([]models.ReviewFinding, n)
	for i := range out {
		out[i] = models.ReviewFinding{
			CommitID:    "101",
			Severity:    models.SeverityMedium,
			Category:    "quality",
			Title:       []string{"first", "second", "third", "fourth"}[i],
			Description: "desc",
		}
	}
	return out
}

func TestReviewService_ReviewCommits(t *testing.T) {
	ctx := context.Background()

	t.Run("completed session stores every finding in order", func(t *testing.T) {
		resolver, provider, st, clock := setupReview(t)
		ids := []string{"101", "102"}

		resolver.On("ResolveCommits", mock.Anything, ids).Return(sampleCommits, nil)
		provider.On("GenerateReview", mock.Anything, mock.MatchedBy(func(req models.ReviewRequest) bool {
			return req.SystemPrompt == ai.DefaultSystemPrompt && len(req.Commits) == 2 && len(req.Rules) == 0
		})).Return(&models.ReviewResponse{
			Findings: findings(3),
			Summary:  "Three things",
			Usage:    &models.TokenUsage{InputTokens: 1_000_000, OutputTokens: 0, Model: "gpt-4o"},
		}, nil)

		svc := NewReviewService(resolver, provider, st, WithClock(clock.Now))
		id, err := svc.ReviewCommits(ctx, ids)

		require.NoError(t, err)
		session, err := svc.GetReviewSession(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, session.Status)
		assert.Equal(t, "openai", session.ProviderName)
		assert.Equal(t, "gpt-4o", session.Model)
		assert.Equal(t, ids, session.CommitIDs)
		assert.Equal(t, "Three things", session.Summary)
		assert.Empty(t, session.Error)
		require.NotNil(t, session.CompletedAt)
		assert.True(t, session.CompletedAt.After(session.StartedAt))
		require.NotNil(t, session.Usage)
		assert.InDelta(t, 2.50, session.Usage.CostUSD, 1e-9)

		require.Len(t, session.Findings, 3)
		for i, f := range session.Findings {
			assert.Equal(t, []string{"first", "second", "third"}[i], f.Title)
			assert.Equal(t, id, f.SessionID)
			assert.NotEmpty(t, f.ID)
		}
		resolver.AssertExpectations(t)
		provider.AssertExpectations(t)
	})

	t.Run("active prompt and enabled rules reach the provider", func(t *testing.T) {
		resolver, provider, st, _ := setupReview(t)
		require.NoError(t, st.CreatePrompt(ctx, &models.SystemPrompt{Name: "strict", Prompt: "Be strict.", IsActive: true}))
		require.NoError(t, st.CreateRule(ctx, &models.ReviewRule{Name: "tests", Rule: "Require tests", Enabled: true}))
		require.NoError(t, st.CreateRule(ctx, &models.ReviewRule{Name: "off", Rule: "Ignored", Enabled: false}))

		resolver.On("ResolveCommits", mock.Anything, []string{"101"}).Return(sampleCommits[:1], nil)
		provider.On("GenerateReview", mock.Anything, mock.MatchedBy(func(req models.ReviewRequest) bool {
			return req.SystemPrompt == "Be strict." && len(req.Rules) == 1 && req.Rules[0].Name == "tests"
		})).Return(&models.ReviewResponse{Findings: findings(1), Summary: "ok"}, nil)

		svc := NewReviewService(resolver, provider, st)
		_, err := svc.ReviewCommits(ctx, []string{"101"})

		require.NoError(t, err)
		provider.AssertExpectations(t)
	})

	t.Run("zero findings still completes", func(t *testing.T) {
		resolver, provider, st, _ := setupReview(t)
		resolver.On("ResolveCommits", mock.Anything, mock.Anything).Return(sampleCommits, nil)
		provider.On("GenerateReview", mock.Anything, mock.Anything).
			Return(&models.ReviewResponse{Findings: []models.ReviewFinding{}, Summary: "clean"}, nil)

		svc := NewReviewService(resolver, provider, st)
		id, err := svc.ReviewCommits(ctx, []string{"101", "102"})

		require.NoError(t, err)
		session, err := svc.GetReviewSession(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, session.Status)
		assert.Empty(t, session.Findings)
	})

	t.Run("provider failure marks the session failed", func(t *testing.T) {
		resolver, provider, st, clock := setupReview(t)
		providerErr := errors.ErrProviderRequest.WithMessage("OpenAI API error (500): boom")

		resolver.On("ResolveCommits", mock.Anything, mock.Anything).Return(sampleCommits, nil)
		provider.On("GenerateReview", mock.Anything, mock.Anything).Return(nil, providerErr)

		svc := NewReviewService(resolver, provider, st, WithClock(clock.Now))
		id, err := svc.ReviewCommits(ctx, []string{"101"})

		assert.Empty(t, id)
		assert.ErrorIs(t, err, errors.ErrProviderRequest)

		sessions, listErr := svc.ListSessions(ctx, 0)
		require.NoError(t, listErr)
		require.Len(t, sessions, 1)
		assert.Equal(t, models.StatusFailed, sessions[0].Status)
		assert.Equal(t, "OpenAI API error (500): boom", sessions[0].Error)
		require.NotNil(t, sessions[0].CompletedAt)
		assert.True(t, sessions[0].CompletedAt.After(sessions[0].StartedAt))
	})

	t.Run("no resolvable commits", func(t *testing.T) {
		resolver, provider, st, _ := setupReview(t)
		resolver.On("ResolveCommits", mock.Anything, mock.Anything).Return([]models.CommitData{}, nil)

		svc := NewReviewService(resolver, provider, st)
		_, err := svc.ReviewCommits(ctx, []string{"999"})

		require.ErrorIs(t, err, errors.ErrNoCommitsFound)
		sessions, listErr := svc.ListSessions(ctx, 0)
		require.NoError(t, listErr)
		require.Len(t, sessions, 1)
		assert.Equal(t, models.StatusFailed, sessions[0].Status)
		assert.Equal(t, "No commits found for the provided IDs", sessions[0].Error)
		provider.AssertNotCalled(t, "GenerateReview", mock.Anything, mock.Anything)
	})

	t.Run("resolver failure", func(t *testing.T) {
		resolver, provider, st, _ := setupReview(t)
		svnErr := errors.ErrSVNConnection.WithMessage("svn: E170013: Unable to connect")
		resolver.On("ResolveCommits", mock.Anything, mock.Anything).Return(nil, svnErr)

		svc := NewReviewService(resolver, provider, st)
		_, err := svc.ReviewCommits(ctx, []string{"1"})

		assert.ErrorIs(t, err, errors.ErrSVNConnection)
		sessions, _ := svc.ListSessions(ctx, 0)
		require.Len(t, sessions, 1)
		assert.Equal(t, models.StatusFailed, sessions[0].Status)
	})

	t.Run("partial finding persistence keeps stored findings", func(t *testing.T) {
		resolver, provider, _, _ := setupReview(t)
		st := &failingFindingStore{MemoryStore: store.NewMemoryStore(), allow: 2}

		resolver.On("ResolveCommits", mock.Anything, mock.Anything).Return(sampleCommits, nil)
		provider.On("GenerateReview", mock.Anything, mock.Anything).
			Return(&models.ReviewResponse{Findings: findings(4), Summary: "four"}, nil)

		svc := NewReviewService(resolver, provider, st)
		_, err := svc.ReviewCommits(ctx, []string{"101", "102"})

		require.Error(t, err)
		sessions, _ := svc.ListSessions(ctx, 0)
		require.Len(t, sessions, 1)

		session, err := svc.GetReviewSession(ctx, sessions[0].ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusFailed, session.Status)
		assert.Equal(t, "disk full", session.Error)
		assert.Len(t, session.Findings, 2)
	})

	t.Run("failed completion update marks the session failed", func(t *testing.T) {
		resolver, provider, _, _ := setupReview(t)
		st := &lockedOnceStore{MemoryStore: store.NewMemoryStore()}

		resolver.On("ResolveCommits", mock.Anything, mock.Anything).Return(sampleCommits, nil)
		provider.On("GenerateReview", mock.Anything, mock.Anything).
			Return(&models.ReviewResponse{Findings: findings(1), Summary: "one"}, nil)

		svc := NewReviewService(resolver, provider, st)
		id, err := svc.ReviewCommits(ctx, []string{"101", "102"})

		require.EqualError(t, err, "database is locked")
		assert.Empty(t, id)
		assert.Equal(t, 2, st.updates)

		sessions, _ := svc.ListSessions(ctx, 0)
		require.Len(t, sessions, 1)
		session := sessions[0]
		assert.Equal(t, models.StatusFailed, session.Status)
		assert.Equal(t, "database is locked", session.Error)
		assert.NotNil(t, session.CompletedAt)
		assert.Empty(t, session.Summary)
	})

	t.Run("cancelled context still records the failure", func(t *testing.T) {
		resolver, provider, st, _ := setupReview(t)
		cctx, cancel := context.WithCancel(ctx)

		resolver.On("ResolveCommits", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { cancel() }).
			Return(nil, context.Canceled)

		svc := NewReviewService(resolver, provider, st)
		_, err := svc.ReviewCommits(cctx, []string{"1"})

		assert.ErrorIs(t, err, context.Canceled)
		sessions, _ := svc.ListSessions(ctx, 0)
		require.Len(t, sessions, 1)
		assert.Equal(t, models.StatusFailed, sessions[0].Status)
	})
}

func TestReviewService_GetReviewSession(t *testing.T) {
	resolver, provider, st, _ := setupReview(t)
	svc := NewReviewService(resolver, provider, st)

	_, err := svc.GetReviewSession(context.Background(), "does-not-exist")

	assert.ErrorIs(t, err, errors.ErrSessionNotFound)
	assert.Equal(t, errors.TypeNotFound, errors.TypeOf(err))
}

func TestReviewService_ListSessions(t *testing.T) {
	ctx := context.Background()
	resolver, provider, st, clock := setupReview(t)
	resolver.On("ResolveCommits", mock.Anything, mock.Anything).Return(sampleCommits, nil)
	provider.On("GenerateReview", mock.Anything, mock.Anything).
		Return(&models.ReviewResponse{Findings: findings(1), Summary: "s"}, nil)

	svc := NewReviewService(resolver, provider, st, WithClock(clock.Now))
	var ids []string
	for i := 0; i < 3; i++ {
		id, err := svc.ReviewCommits(ctx, []string{"101"})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	sessions, err := svc.ListSessions(ctx, 2)

	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, ids[2], sessions[0].ID)
	assert.Equal(t, ids[1], sessions[1].ID)
}
