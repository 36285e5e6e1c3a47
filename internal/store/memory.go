package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/models"
	"github.com/thomas-vilte/svnreview/internal/ports"
)

var _ ports.ReviewStore = (*MemoryStore)(nil)

// MemoryStore keeps everything in process memory. Records are copied on the way in and
// out, so callers never share state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.ReviewSession
	findings map[string][]models.ReviewFinding
	rules    []models.ReviewRule
	prompts  []models.SystemPrompt
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]models.ReviewSession),
		findings: make(map[string][]models.ReviewFinding),
		now:      time.Now,
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) CreateSession(_ context.Context, session *models.ReviewSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = s.now()
	}
	s.sessions[session.ID] = copySession(*session)
	return nil
}

func (s *MemoryStore) UpdateSession(_ context.Context, session *models.ReviewSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[session.ID]
	if !ok {
		return sessionNotFound(session.ID)
	}
	stored.Status = session.Status
	stored.CompletedAt = copyTime(session.CompletedAt)
	stored.Error = session.Error
	stored.Summary = session.Summary
	stored.Usage = copyUsage(session.Usage)
	s.sessions[session.ID] = stored
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) (*models.ReviewSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.sessions[id]
	if !ok {
		return nil, sessionNotFound(id)
	}
	out := copySession(stored)
	return &out, nil
}

func (s *MemoryStore) ListSessions(_ context.Context, limit int) ([]models.ReviewSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ReviewSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, copySession(sess))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) CreateFinding(_ context.Context, finding *models.ReviewFinding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[finding.SessionID]; !ok {
		return sessionNotFound(finding.SessionID)
	}
	if finding.ID == "" {
		finding.ID = uuid.NewString()
	}
	s.findings[finding.SessionID] = append(s.findings[finding.SessionID], *finding)
	return nil
}

func (s *MemoryStore) ListFindings(_ context.Context, sessionID string) ([]models.ReviewFinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.ReviewFinding{}, s.findings[sessionID]...), nil
}

func (s *MemoryStore) ListRules(_ context.Context) ([]models.ReviewRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.ReviewRule{}, s.rules...), nil
}

func (s *MemoryStore) ListEnabledRules(_ context.Context) ([]models.ReviewRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ReviewRule, 0, len(s.rules))
	for _, r := range s.rules {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateRule(_ context.Context, rule *models.ReviewRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.rules {
		if strings.EqualFold(r.Name, rule.Name) {
			return duplicateName("rule", rule.Name)
		}
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = s.now()
	}
	s.rules = append(s.rules, *rule)
	return nil
}

func (s *MemoryStore) SetRuleEnabled(_ context.Context, id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules[i].Enabled = enabled
			return nil
		}
	}
	return ruleNotFound(id)
}

func (s *MemoryStore) DeleteRule(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			return nil
		}
	}
	return ruleNotFound(id)
}

func (s *MemoryStore) ListPrompts(_ context.Context) ([]models.SystemPrompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.SystemPrompt{}, s.prompts...), nil
}

func (s *MemoryStore) ActivePrompt(_ context.Context) (*models.SystemPrompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.prompts {
		if p.IsActive {
			out := p
			return &out, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) CreatePrompt(_ context.Context, prompt *models.SystemPrompt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.prompts {
		if strings.EqualFold(p.Name, prompt.Name) {
			return duplicateName("prompt", prompt.Name)
		}
	}
	if prompt.ID == "" {
		prompt.ID = uuid.NewString()
	}
	if prompt.CreatedAt.IsZero() {
		prompt.CreatedAt = s.now()
	}
	if prompt.IsActive {
		for i := range s.prompts {
			s.prompts[i].IsActive = false
		}
	}
	s.prompts = append(s.prompts, *prompt)
	return nil
}

func (s *MemoryStore) ActivatePrompt(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.prompts {
		if s.prompts[i].ID == id {
			idx = i
		}
	}
	if idx < 0 {
		return promptNotFound(id)
	}
	for i := range s.prompts {
		s.prompts[i].IsActive = i == idx
	}
	return nil
}

func (s *MemoryStore) DeletePrompt(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.prompts {
		if s.prompts[i].ID == id {
			s.prompts = append(s.prompts[:i], s.prompts[i+1:]...)
			return nil
		}
	}
	return promptNotFound(id)
}

func copySession(s models.ReviewSession) models.ReviewSession {
	s.CommitIDs = append([]string{}, s.CommitIDs...)
	s.CompletedAt = copyTime(s.CompletedAt)
	s.Usage = copyUsage(s.Usage)
	s.Findings = nil
	return s
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyUsage(u *models.TokenUsage) *models.TokenUsage {
	if u == nil {
		return nil
	}
	v := *u
	return &v
}

func sessionNotFound(id string) error {
	return errors.ErrSessionNotFound.
		WithMessage("Review session not found: " + id).
		WithContext("session_id", id)
}

func ruleNotFound(id string) error {
	return errors.ErrRuleNotFound.
		WithMessage("Review rule not found: " + id).
		WithContext("rule_id", id)
}

func promptNotFound(id string) error {
	return errors.ErrPromptNotFound.
		WithMessage("System prompt not found: " + id).
		WithContext("prompt_id", id)
}

func duplicateName(kind, name string) error {
	return errors.ErrDuplicateName.
		WithMessage("A " + kind + " named " + name + " already exists").
		WithFields(errors.FieldError{Field: "name", Message: "must be unique"})
}
