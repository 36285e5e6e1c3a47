package ports

import (
	"context"

	"github.com/thomas-vilte/svnreview/internal/models"
)

// SessionStore persists review sessions and their findings.
type SessionStore interface {
	CreateSession(ctx context.Context, session *models.ReviewSession) error
	// UpdateSession writes the status, completion time, error and summary of an existing session.
	UpdateSession(ctx context.Context, session *models.ReviewSession) error
	GetSession(ctx context.Context, id string) (*models.ReviewSession, error)
	ListSessions(ctx context.Context, limit int) ([]models.ReviewSession, error)

	CreateFinding(ctx context.Context, finding *models.ReviewFinding) error
	ListFindings(ctx context.Context, sessionID string) ([]models.ReviewFinding, error)
}

// RuleStore persists review rules.
type RuleStore interface {
	ListRules(ctx context.Context) ([]models.ReviewRule, error)
	ListEnabledRules(ctx context.Context) ([]models.ReviewRule, error)
	CreateRule(ctx context.Context, rule *models.ReviewRule) error
	SetRuleEnabled(ctx context.Context, id string, enabled bool) error
	DeleteRule(ctx context.Context, id string) error
}

// PromptStore persists system prompts. At most one prompt is active at a time.
type PromptStore interface {
	ListPrompts(ctx context.Context) ([]models.SystemPrompt, error)
	// ActivePrompt returns nil without error when no prompt is active.
	ActivePrompt(ctx context.Context) (*models.SystemPrompt, error)
	CreatePrompt(ctx context.Context, prompt *models.SystemPrompt) error
	ActivatePrompt(ctx context.Context, id string) error
	DeletePrompt(ctx context.Context, id string) error
}

type ReviewStore interface {
	SessionStore
	RuleStore
	PromptStore
	Close() error
}
