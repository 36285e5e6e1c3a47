// Package mock provides a deterministic review provider that needs no network.
package mock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/logger"
	"github.com/thomas-vilte/svnreview/internal/models"
	"github.com/thomas-vilte/svnreview/internal/ports"
)

const (
	Name         = "mock"
	DefaultDelay = 100 * time.Millisecond

	largeCommitLines = 100
	shortMessageLen  = 10
)

var _ ports.ReviewProvider = (*Provider)(nil)

type Provider struct {
	shouldFail bool
	delay      time.Duration
}

// NewProvider returns a mock provider that waits delay before answering. With
// shouldFail set every call fails after the delay.
func NewProvider(shouldFail bool, delay time.Duration) *Provider {
	if delay < 0 {
		delay = DefaultDelay
	}
	return &Provider{shouldFail: shouldFail, delay: delay}
}

func (p *Provider) Name() string            { return Name }
func (p *Provider) Model() string           { return Name }
func (p *Provider) SupportsStreaming() bool { return false }

func (p *Provider) GenerateReview(ctx context.Context, req models.ReviewRequest) (*models.ReviewResponse, error) {
	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, errors.ErrProviderTimeout.WithError(ctx.Err())
	case <-timer.C:
	}

	if p.shouldFail {
		return nil, errors.ErrMockProviderFailure
	}

	findings := make([]models.ReviewFinding, 0)
	for _, c := range req.Commits {
		findings = append(findings, inspect(c)...)
	}

	if len(findings) == 0 {
		commitID := "unknown"
		if len(req.Commits) > 0 {
			commitID = req.Commits[0].ID
		}
		findings = append(findings, models.ReviewFinding{
			CommitID:    commitID,
			Severity:    models.SeverityInfo,
			Category:    "General",
			Title:       "No issues found",
			Description: "The code looks good! No significant issues detected.",
			Suggestion:  "Keep up the good work!",
		})
	}

	logger.Debug(ctx, "mock review generated", "commits", len(req.Commits), "findings", len(findings))

	return &models.ReviewResponse{
		Findings: findings,
		Summary: fmt.Sprintf("Reviewed %d commit(s) and found %d finding(s). This is a mock review generated for testing purposes.",
			len(req.Commits), len(findings)),
	}, nil
}

func inspect(c models.CommitData) []models.ReviewFinding {
	var findings []models.ReviewFinding

	added := 0
	for _, line := range strings.Split(c.Diff, "\n") {
		if strings.HasPrefix(line, "+") {
			added++
		}
	}

	if added > largeCommitLines {
		findings = append(findings, models.ReviewFinding{
			CommitID:    c.ID,
			Severity:    models.SeverityMedium,
			Category:    "Code Quality",
			Title:       "Large commit detected",
			Description: fmt.Sprintf("This commit adds %d lines. Consider breaking it into smaller, more focused commits.", added),
			Suggestion:  "Split the commit into logical units of work.",
		})
	}

	if len(c.Message) < shortMessageLen {
		findings = append(findings, models.ReviewFinding{
			CommitID:    c.ID,
			Severity:    models.SeverityLow,
			Category:    "Documentation",
			Title:       "Short commit message",
			Description: "The commit message is too brief. A more descriptive message would improve project history.",
			Suggestion:  "Write commit messages that explain the what and why of your changes.",
		})
	}

	if strings.Contains(c.Diff, "console.log") {
		findings = append(findings, models.ReviewFinding{
			CommitID:    c.ID,
			Severity:    models.SeverityLow,
			Category:    "Code Quality",
			Title:       "Debug statement detected",
			Description: "Found console.log statement in the code. Remove debug statements before committing.",
			Suggestion:  "Use a proper logging library or remove debug statements.",
		})
	}

	if strings.Contains(c.Diff, "TODO") || strings.Contains(c.Diff, "FIXME") {
		findings = append(findings, models.ReviewFinding{
			CommitID:    c.ID,
			Severity:    models.SeverityInfo,
			Category:    "Documentation",
			Title:       "TODO/FIXME comment found",
			Description: "Found TODO or FIXME comments in the code.",
			Suggestion:  "Consider creating tickets for these items or addressing them before committing.",
		})
	}

	return findings
}
