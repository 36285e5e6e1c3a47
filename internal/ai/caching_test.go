package ai

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/thomas-vilte/svnreview/internal/cache"
	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/models"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) GenerateReview(ctx context.Context, req models.ReviewRequest) (*models.ReviewResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.ReviewResponse)
	return resp, args.Error(1)
}

func (m *mockProvider) SupportsStreaming() bool { return true }
func (m *mockProvider) Name() string            { return "openai" }
func (m *mockProvider) Model() string           { return "gpt-4" }

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.NewCache(filepath.Join(t.TempDir(), "cache"), time.Hour)
	require.NoError(t, err)
	return c
}

func TestCachingProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("second identical request hits the cache", func(t *testing.T) {
		next := new(mockProvider)
		resp := &models.ReviewResponse{
			Findings: []models.ReviewFinding{{CommitID: "42", Severity: models.SeverityLow, Title: "t"}},
			Summary:  "s",
			Usage:    &models.TokenUsage{TotalTokens: 10},
		}
		next.On("GenerateReview", ctx, mock.Anything).Return(resp, nil).Once()
		p := NewCachingProvider(next, newTestCache(t))

		first, err := p.GenerateReview(ctx, sampleRequest())
		require.NoError(t, err)
		second, err := p.GenerateReview(ctx, sampleRequest())
		require.NoError(t, err)

		assert.Equal(t, first.Findings, second.Findings)
		assert.True(t, second.Usage.CacheHit)
		next.AssertNumberOfCalls(t, "GenerateReview", 1)
	})

	t.Run("responses without findings are not cached", func(t *testing.T) {
		next := new(mockProvider)
		next.On("GenerateReview", ctx, mock.Anything).
			Return(&models.ReviewResponse{Findings: []models.ReviewFinding{}, Summary: "raw"}, nil).Twice()
		p := NewCachingProvider(next, newTestCache(t))

		_, err := p.GenerateReview(ctx, sampleRequest())
		require.NoError(t, err)
		_, err = p.GenerateReview(ctx, sampleRequest())
		require.NoError(t, err)

		next.AssertNumberOfCalls(t, "GenerateReview", 2)
	})

	t.Run("errors pass through", func(t *testing.T) {
		next := new(mockProvider)
		next.On("GenerateReview", ctx, mock.Anything).Return(nil, errors.ErrProviderTimeout)
		p := NewCachingProvider(next, newTestCache(t))

		_, err := p.GenerateReview(ctx, sampleRequest())

		assert.ErrorIs(t, err, errors.ErrProviderTimeout)
	})

	t.Run("delegates identity", func(t *testing.T) {
		p := NewCachingProvider(new(mockProvider), newTestCache(t))

		assert.Equal(t, "openai", p.Name())
		assert.Equal(t, "gpt-4", p.Model())
		assert.True(t, p.SupportsStreaming())
	})
}
