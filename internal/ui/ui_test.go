package ui

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/i18n"
	"github.com/thomas-vilte/svnreview/internal/models"
)

func init() {
	color.NoColor = true
}

func translations(t *testing.T) *i18n.Translations {
	t.Helper()
	tr, err := i18n.NewTranslations("en", "")
	require.NoError(t, err)
	return tr
}

func TestFileStats(t *testing.T) {
	files := []models.FileChange{
		{Path: "/trunk/src/main.go", Action: models.ActionModified},
		{Path: "/trunk/README.md", Action: models.ActionAdded},
		{Path: "/trunk/old.txt", Action: models.ActionDeleted},
	}
	diffs := []models.Diff{
		{Path: "src/main.go", Additions: 3, Deletions: 1},
		{Path: "README.md", Additions: 10},
	}

	stats := FileStats(files, diffs)

	require.Len(t, stats, 3)
	assert.Equal(t, FileStat{Path: "/trunk/src/main.go", Action: models.ActionModified, Additions: 3, Deletions: 1, HasStats: true}, stats[0])
	assert.Equal(t, 10, stats[1].Additions)
	assert.False(t, stats[2].HasStats)
}

func TestPrintFileTree(t *testing.T) {
	var buf bytes.Buffer
	stats := []FileStat{
		{Path: "/trunk/b.go", Action: models.ActionModified, Additions: 1, Deletions: 2, HasStats: true},
		{Path: "/trunk/pkg/a.go", Action: models.ActionAdded},
	}

	PrintFileTree(&buf, "Changed paths", stats)

	expected := "\nChanged paths\n" +
		"└── trunk/\n" +
		"    ├── pkg/\n" +
		"    │   └── a.go [A]\n" +
		"    └── b.go [M] (+1, -2)\n"
	assert.Equal(t, expected, buf.String())
}

func TestPrintFileTree_Empty(t *testing.T) {
	var buf bytes.Buffer
	PrintFileTree(&buf, "Changed paths", nil)
	assert.Empty(t, buf.String())
}

func TestHandleAppError(t *testing.T) {
	tr := translations(t)

	t.Run("app error with cause and suggestion", func(t *testing.T) {
		var buf bytes.Buffer
		err := errors.ErrSVNConnection.WithError(fmt.Errorf("connection refused"))

		HandleAppError(&buf, err, tr)

		out := buf.String()
		assert.Contains(t, out, "CONNECTION: SVN connection failed")
		assert.Contains(t, out, "Details: connection refused")
		assert.Contains(t, out, "Try: Verify svn.url is reachable")
	})

	t.Run("validation fields", func(t *testing.T) {
		var buf bytes.Buffer
		err := errors.ErrValidation.WithFields(errors.FieldError{Field: "name", Message: "is required"})

		HandleAppError(&buf, err, nil)

		assert.Contains(t, buf.String(), "- name is required")
	})

	t.Run("plain error", func(t *testing.T) {
		var buf bytes.Buffer
		HandleAppError(&buf, fmt.Errorf("boom"), tr)
		assert.Equal(t, "✗ boom\n", buf.String())
	})

	t.Run("nil error", func(t *testing.T) {
		var buf bytes.Buffer
		HandleAppError(&buf, nil, tr)
		assert.Empty(t, buf.String())
	})
}

func TestPrintSession(t *testing.T) {
	var buf bytes.Buffer
	done := time.Date(2024, 6, 1, 12, 0, 5, 0, time.UTC)
	session := &models.ReviewSession{
		ID:           "abc",
		CommitIDs:    []string{"12"},
		ProviderName: "mock",
		Model:        "mock-model",
		Status:       models.StatusCompleted,
		StartedAt:    done.Add(-5 * time.Second),
		CompletedAt:  &done,
		Summary:      "Reviewed 1 commit",
		Findings: []models.ReviewFinding{
			{CommitID: "12", Severity: models.SeverityHigh, Category: "Security", Title: "Hardcoded secret",
				Description: "A password is committed", FilePath: "config.go", LineNumber: 4, Suggestion: "Use env vars"},
		},
		Usage: &models.TokenUsage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150, CostUSD: 0.0125},
	}

	PrintSession(&buf, session, translations(t))

	out := buf.String()
	assert.Contains(t, out, "Status: completed")
	assert.Contains(t, out, "Provider: mock (mock-model)")
	assert.Contains(t, out, "1 finding\n")
	assert.Contains(t, out, "[high] Hardcoded secret (Security, commit 12)")
	assert.Contains(t, out, "config.go:4")
	assert.Contains(t, out, "→ Use env vars")
	assert.Contains(t, out, "Token usage: input 100 | output 50 | total 150")
	assert.Contains(t, out, "Estimated cost: $0.0125 USD")
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestWithSpinner(t *testing.T) {
	var buf bytes.Buffer

	err := WithSpinner(&buf, "Reviewing", func() error { return nil })
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Reviewing")

	buf.Reset()
	err = WithSpinner(&buf, "Reviewing", func() error { return fmt.Errorf("failed") })
	assert.EqualError(t, err, "failed")
}
