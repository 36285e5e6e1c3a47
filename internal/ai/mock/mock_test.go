package mock

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/models"
)

func request(commits ...models.CommitData) models.ReviewRequest {
	ids := make([]string, 0, len(commits))
	for _, c := range commits {
		ids = append(ids, c.ID)
	}
	return models.ReviewRequest{CommitIDs: ids, Commits: commits}
}

func titles(findings []models.ReviewFinding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Title)
	}
	return out
}

func TestProvider_GenerateReview(t *testing.T) {
	ctx := context.Background()
	p := NewProvider(false, 0)

	t.Run("short message and debug statement", func(t *testing.T) {
		resp, err := p.GenerateReview(ctx, request(models.CommitData{ID: "c1", Message: "fix", Diff: "+console.log('x')"}))

		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(resp.Findings), 2)
		assert.Equal(t, []string{"Short commit message", "Debug statement detected"}, titles(resp.Findings))
		assert.Equal(t, models.SeverityLow, resp.Findings[0].Severity)
		assert.Equal(t, "c1", resp.Findings[1].CommitID)
		assert.NotEmpty(t, resp.Summary)
	})

	t.Run("large commit and todo", func(t *testing.T) {
		diff := strings.Repeat("+line\n", 101) + "+// TODO: cleanup"

		resp, err := p.GenerateReview(ctx, request(models.CommitData{ID: "c2", Message: "a descriptive message", Diff: diff}))

		require.NoError(t, err)
		require.Len(t, resp.Findings, 2)
		assert.Equal(t, "Large commit detected", resp.Findings[0].Title)
		assert.Equal(t, models.SeverityMedium, resp.Findings[0].Severity)
		assert.Contains(t, resp.Findings[0].Description, "adds 102 lines")
		assert.Equal(t, "TODO/FIXME comment found", resp.Findings[1].Title)
		assert.Equal(t, models.SeverityInfo, resp.Findings[1].Severity)
	})

	t.Run("exactly 100 added lines is not large", func(t *testing.T) {
		diff := strings.TrimSuffix(strings.Repeat("+x\n", 100), "\n")

		resp, err := p.GenerateReview(ctx, request(models.CommitData{ID: "c3", Message: "a descriptive message", Diff: diff}))

		require.NoError(t, err)
		assert.Equal(t, []string{"No issues found"}, titles(resp.Findings))
	})

	t.Run("clean commit gets a single info finding", func(t *testing.T) {
		resp, err := p.GenerateReview(ctx, request(models.CommitData{ID: "c4", Message: "Refactor the parser", Diff: "+x := 1"}))

		require.NoError(t, err)
		require.Len(t, resp.Findings, 1)
		assert.Equal(t, "General", resp.Findings[0].Category)
		assert.Equal(t, "c4", resp.Findings[0].CommitID)
		assert.Equal(t, "Reviewed 1 commit(s) and found 1 finding(s). This is a mock review generated for testing purposes.", resp.Summary)
	})

	t.Run("no commits", func(t *testing.T) {
		resp, err := p.GenerateReview(ctx, request())

		require.NoError(t, err)
		require.Len(t, resp.Findings, 1)
		assert.Equal(t, "unknown", resp.Findings[0].CommitID)
	})
}

func TestProvider_Failure(t *testing.T) {
	p := NewProvider(true, time.Millisecond)

	resp, err := p.GenerateReview(context.Background(), request(models.CommitData{ID: "c1", Message: "fix"}))

	assert.Nil(t, resp)
	require.ErrorIs(t, err, errors.ErrMockProviderFailure)
	assert.Equal(t, "Mock AI provider failure", errors.Message(err))
}

func TestProvider_Delay(t *testing.T) {
	t.Run("waits the configured delay", func(t *testing.T) {
		p := NewProvider(false, 30*time.Millisecond)
		start := time.Now()

		_, err := p.GenerateReview(context.Background(), request())

		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})

	t.Run("honours cancellation", func(t *testing.T) {
		p := NewProvider(false, time.Hour)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := p.GenerateReview(ctx, request())

		assert.ErrorIs(t, err, errors.ErrProviderTimeout)
	})
}

func TestProvider_Identity(t *testing.T) {
	p := NewProvider(false, -1)

	assert.Equal(t, "mock", p.Name())
	assert.False(t, p.SupportsStreaming())
	assert.Equal(t, DefaultDelay, p.delay)
}
