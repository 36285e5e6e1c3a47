package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/thomas-vilte/svnreview/internal/models"
	"github.com/thomas-vilte/svnreview/internal/ports"
)

var _ ports.ReviewStore = (*SQLiteStore)(nil)

// Fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore persists review data in a single SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (and migrates) the database at path. ":memory:" is accepted for
// throwaway stores.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	// One connection serialises writers and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS review_sessions (
			id TEXT PRIMARY KEY,
			commit_ids TEXT NOT NULL,
			provider_name TEXT NOT NULL,
			model TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			started_at TEXT NOT NULL,
			completed_at TEXT,
			error TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			usage_json TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS review_findings (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			session_id TEXT NOT NULL REFERENCES review_sessions(id) ON DELETE CASCADE,
			commit_id TEXT NOT NULL,
			severity TEXT NOT NULL,
			category TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			file_path TEXT NOT NULL DEFAULT '',
			line_number INTEGER NOT NULL DEFAULT 0,
			suggestion TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_review_findings_session ON review_findings(session_id);`,
		`CREATE TABLE IF NOT EXISTS review_rules (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL UNIQUE COLLATE NOCASE,
			description TEXT NOT NULL DEFAULT '',
			rule TEXT NOT NULL,
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS system_prompts (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL UNIQUE COLLATE NOCASE,
			prompt TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to migrate db: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateSession(ctx context.Context, session *models.ReviewSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = s.now()
	}
	commitIDs, err := json.Marshal(nonNil(session.CommitIDs))
	if err != nil {
		return fmt.Errorf("failed to encode commit ids: %w", err)
	}
	usage, err := encodeUsage(session.Usage)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO review_sessions (id, commit_ids, provider_name, model, status, started_at, completed_at, error, summary, usage_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, session.ID, string(commitIDs), session.ProviderName, session.Model, string(session.Status),
		formatTime(session.StartedAt), formatTimePtr(session.CompletedAt), session.Error, session.Summary, usage)
	if err != nil {
		return fmt.Errorf("failed to create review session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateSession(ctx context.Context, session *models.ReviewSession) error {
	usage, err := encodeUsage(session.Usage)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE review_sessions
		SET status = ?, completed_at = ?, error = ?, summary = ?, usage_json = ?
		WHERE id = ?
	`, string(session.Status), formatTimePtr(session.CompletedAt), session.Error, session.Summary, usage, session.ID)
	if err != nil {
		return fmt.Errorf("failed to update review session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sessionNotFound(session.ID)
	}
	return nil
}

const sessionColumns = `id, commit_ids, provider_name, model, status, started_at, completed_at, error, summary, usage_json`

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*models.ReviewSession, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM review_sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, sessionNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]models.ReviewSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM review_sessions ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list review sessions: %w", err)
	}
	defer rows.Close()

	out := []models.ReviewSession{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateFinding(ctx context.Context, finding *models.ReviewFinding) error {
	if finding.ID == "" {
		finding.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_findings (id, session_id, commit_id, severity, category, title, description, file_path, line_number, suggestion)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, finding.ID, finding.SessionID, finding.CommitID, string(finding.Severity), finding.Category,
		finding.Title, finding.Description, finding.FilePath, finding.LineNumber, finding.Suggestion)
	if err != nil {
		if isForeignKeyViolation(err) {
			return sessionNotFound(finding.SessionID)
		}
		return fmt.Errorf("failed to create review finding: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListFindings(ctx context.Context, sessionID string) ([]models.ReviewFinding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, commit_id, severity, category, title, description, file_path, line_number, suggestion
		FROM review_findings
		WHERE session_id = ?
		ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list review findings: %w", err)
	}
	defer rows.Close()

	out := []models.ReviewFinding{}
	for rows.Next() {
		var f models.ReviewFinding
		var severity string
		if err := rows.Scan(&f.ID, &f.SessionID, &f.CommitID, &severity, &f.Category, &f.Title,
			&f.Description, &f.FilePath, &f.LineNumber, &f.Suggestion); err != nil {
			return nil, fmt.Errorf("failed to read review finding: %w", err)
		}
		f.Severity = models.Severity(severity)
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListRules(ctx context.Context) ([]models.ReviewRule, error) {
	return s.queryRules(ctx, `SELECT id, name, description, rule, enabled, created_at FROM review_rules ORDER BY seq`)
}

func (s *SQLiteStore) ListEnabledRules(ctx context.Context) ([]models.ReviewRule, error) {
	return s.queryRules(ctx, `SELECT id, name, description, rule, enabled, created_at FROM review_rules WHERE enabled = 1 ORDER BY seq`)
}

func (s *SQLiteStore) queryRules(ctx context.Context, query string) ([]models.ReviewRule, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list review rules: %w", err)
	}
	defer rows.Close()

	out := []models.ReviewRule{}
	for rows.Next() {
		var r models.ReviewRule
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.Rule, &r.Enabled, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to read review rule: %w", err)
		}
		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateRule(ctx context.Context, rule *models.ReviewRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_rules (id, name, description, rule, enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rule.ID, rule.Name, rule.Description, rule.Rule, rule.Enabled, formatTime(rule.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return duplicateName("rule", rule.Name)
		}
		return fmt.Errorf("failed to create review rule: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SetRuleEnabled(ctx context.Context, id string, enabled bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE review_rules SET enabled = ? WHERE id = ?`, enabled, id)
	if err != nil {
		return fmt.Errorf("failed to update review rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ruleNotFound(id)
	}
	return nil
}

func (s *SQLiteStore) DeleteRule(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM review_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ruleNotFound(id)
	}
	return nil
}

const promptColumns = `id, name, prompt, is_active, created_at`

func (s *SQLiteStore) ListPrompts(ctx context.Context) ([]models.SystemPrompt, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+promptColumns+` FROM system_prompts ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list system prompts: %w", err)
	}
	defer rows.Close()

	out := []models.SystemPrompt{}
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ActivePrompt(ctx context.Context) (*models.SystemPrompt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+promptColumns+` FROM system_prompts WHERE is_active = 1 ORDER BY seq DESC LIMIT 1`)
	p, err := scanPrompt(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStore) CreatePrompt(ctx context.Context, prompt *models.SystemPrompt) error {
	if prompt.ID == "" {
		prompt.ID = uuid.NewString()
	}
	if prompt.CreatedAt.IsZero() {
		prompt.CreatedAt = s.now()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if prompt.IsActive {
			if _, err := tx.ExecContext(ctx, `UPDATE system_prompts SET is_active = 0`); err != nil {
				return fmt.Errorf("failed to deactivate system prompts: %w", err)
			}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO system_prompts (id, name, prompt, is_active, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, prompt.ID, prompt.Name, prompt.Prompt, prompt.IsActive, formatTime(prompt.CreatedAt))
		if err != nil {
			if isUniqueViolation(err) {
				return duplicateName("prompt", prompt.Name)
			}
			return fmt.Errorf("failed to create system prompt: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) ActivatePrompt(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM system_prompts WHERE id = ?`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to look up system prompt: %w", err)
		}
		if exists == 0 {
			return promptNotFound(id)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE system_prompts SET is_active = (id = ?)`, id); err != nil {
			return fmt.Errorf("failed to activate system prompt: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) DeletePrompt(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM system_prompts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete system prompt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return promptNotFound(id)
	}
	return nil
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (models.ReviewSession, error) {
	var (
		session     models.ReviewSession
		commitIDs   string
		status      string
		startedAt   string
		completedAt sql.NullString
		usage       sql.NullString
	)
	err := row.Scan(&session.ID, &commitIDs, &session.ProviderName, &session.Model, &status,
		&startedAt, &completedAt, &session.Error, &session.Summary, &usage)
	if err == sql.ErrNoRows {
		return models.ReviewSession{}, err
	}
	if err != nil {
		return models.ReviewSession{}, fmt.Errorf("failed to read review session: %w", err)
	}

	session.Status = models.SessionStatus(status)
	if err := json.Unmarshal([]byte(commitIDs), &session.CommitIDs); err != nil {
		return models.ReviewSession{}, fmt.Errorf("failed to decode commit ids: %w", err)
	}
	if session.StartedAt, err = parseTime(startedAt); err != nil {
		return models.ReviewSession{}, err
	}
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return models.ReviewSession{}, err
		}
		session.CompletedAt = &t
	}
	if usage.Valid && usage.String != "" {
		session.Usage = &models.TokenUsage{}
		if err := json.Unmarshal([]byte(usage.String), session.Usage); err != nil {
			return models.ReviewSession{}, fmt.Errorf("failed to decode usage: %w", err)
		}
	}
	return session, nil
}

func scanPrompt(row scanner) (models.SystemPrompt, error) {
	var (
		p         models.SystemPrompt
		createdAt string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Prompt, &p.IsActive, &createdAt)
	if err == sql.ErrNoRows {
		return models.SystemPrompt{}, err
	}
	if err != nil {
		return models.SystemPrompt{}, fmt.Errorf("failed to read system prompt: %w", err)
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.SystemPrompt{}, err
	}
	return p, nil
}

func encodeUsage(u *models.TokenUsage) (any, error) {
	if u == nil {
		return nil, nil
	}
	data, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("failed to encode usage: %w", err)
	}
	return string(data), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
