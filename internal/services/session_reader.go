package services

import (
	"context"

	"github.com/thomas-vilte/svnreview/internal/models"
	"github.com/thomas-vilte/svnreview/internal/ports"
)

// DefaultSessionListLimit bounds ListSessions when the caller passes no limit.
const DefaultSessionListLimit = 50

// SessionReader answers queries over stored review sessions. It needs neither a
// repository nor a provider, so listings work offline.
type SessionReader struct {
	store ports.SessionStore
}

func NewSessionReader(store ports.SessionStore) *SessionReader {
	return &SessionReader{store: store}
}

// GetReviewSession returns the session with its findings in insertion order.
func (r *SessionReader) GetReviewSession(ctx context.Context, id string) (*models.ReviewSession, error) {
	session, err := r.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	findings, err := r.store.ListFindings(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Findings = findings
	return session, nil
}

// ListSessions returns the most recent sessions, newest first, without findings.
func (r *SessionReader) ListSessions(ctx context.Context, limit int) ([]models.ReviewSession, error) {
	if limit <= 0 {
		limit = DefaultSessionListLimit
	}
	return r.store.ListSessions(ctx, limit)
}
