package models

import "time"

type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
	StatusFailed     SessionStatus = "failed"
)

// Terminal reports whether no further transition is allowed from s.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Rank orders severities by urgency, critical being 0. Unknown values sort last.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	case SeverityInfo:
		return 4
	default:
		return 5
	}
}

func (s Severity) Valid() bool {
	return s.Rank() < 5
}

type ReviewSession struct {
	ID           string          `json:"id"`
	CommitIDs    []string        `json:"commitIds"`
	ProviderName string          `json:"providerName"`
	Model        string          `json:"model"`
	Status       SessionStatus   `json:"status"`
	StartedAt    time.Time       `json:"startedAt"`
	CompletedAt  *time.Time      `json:"completedAt,omitempty"`
	Error        string          `json:"error,omitempty"`
	Summary      string          `json:"summary,omitempty"`
	Findings     []ReviewFinding `json:"findings"`
	Usage        *TokenUsage     `json:"usage,omitempty"`
}

type ReviewFinding struct {
	ID          string   `json:"id,omitempty"`
	SessionID   string   `json:"sessionId,omitempty"`
	CommitID    string   `json:"commitId"`
	Severity    Severity `json:"severity"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	FilePath    string   `json:"filePath,omitempty"`
	LineNumber  int      `json:"lineNumber,omitempty"`
	Suggestion  string   `json:"suggestion,omitempty"`
}

type ReviewRule struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Rule        string    `json:"rule"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"createdAt"`
}

type SystemPrompt struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Prompt    string    `json:"prompt"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

type ReviewRequest struct {
	CommitIDs    []string
	SystemPrompt string
	Rules        []ReviewRule
	Commits      []CommitData
}

type ReviewResponse struct {
	Findings []ReviewFinding `json:"findings"`
	Summary  string          `json:"summary"`
	Usage    *TokenUsage     `json:"usage,omitempty"`
}
