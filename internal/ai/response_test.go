package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomas-vilte/svnreview/internal/models"
)

func TestParseResponse(t *testing.T) {
	t.Run("json wrapped in prose and fences", func(t *testing.T) {
		content := "Here you go:\n```json\n" + `{
  "findings": [
    {"commitId": "42", "severity": "HIGH", "category": "Security", "title": "Secret", "description": "Key in code", "filePath": "a.go", "lineNumber": 7, "suggestion": "Use env"}
  ],
  "summary": "One issue"
}` + "\n```\nThanks!"

		resp := ParseResponse(content)

		require.Len(t, resp.Findings, 1)
		f := resp.Findings[0]
		assert.Equal(t, models.ReviewFinding{
			CommitID: "42", Severity: models.SeverityHigh, Category: "Security", Title: "Secret",
			Description: "Key in code", FilePath: "a.go", LineNumber: 7, Suggestion: "Use env",
		}, f)
		assert.Equal(t, "One issue", resp.Summary)
	})

	t.Run("missing summary", func(t *testing.T) {
		resp := ParseResponse(`{"findings": []}`)

		assert.Empty(t, resp.Findings)
		assert.Equal(t, "No summary provided", resp.Summary)
	})

	t.Run("unknown severity becomes info", func(t *testing.T) {
		resp := ParseResponse(`{"findings": [{"severity": "blocker", "title": "x"}], "summary": "s"}`)

		require.Len(t, resp.Findings, 1)
		assert.Equal(t, models.SeverityInfo, resp.Findings[0].Severity)
	})

	t.Run("loosely typed line numbers are accepted", func(t *testing.T) {
		resp := ParseResponse(`{"findings": [
  {"commitId": "1", "severity": "low", "title": "string", "description": "d", "lineNumber": "42"},
  {"commitId": "1", "severity": "low", "title": "float", "description": "d", "lineNumber": 42.0},
  {"commitId": "1", "severity": "low", "title": "fraction", "description": "d", "lineNumber": 4.5},
  {"commitId": "1", "severity": "low", "title": "word", "description": "d", "lineNumber": "top"}
], "summary": "one issue"}`)

		require.Len(t, resp.Findings, 4)
		assert.Equal(t, 42, resp.Findings[0].LineNumber)
		assert.Equal(t, 42, resp.Findings[1].LineNumber)
		assert.Zero(t, resp.Findings[2].LineNumber)
		assert.Zero(t, resp.Findings[3].LineNumber)
		assert.Equal(t, "one issue", resp.Summary)
	})

	t.Run("badly typed field only blanks that field", func(t *testing.T) {
		resp := ParseResponse(`{"findings": [
  {"commitId": 7, "severity": "high", "title": "kept", "description": "d"},
  "not an object",
  null
], "summary": "s"}`)

		require.Len(t, resp.Findings, 1)
		assert.Equal(t, "kept", resp.Findings[0].Title)
		assert.Empty(t, resp.Findings[0].CommitID)
		assert.Equal(t, models.SeverityHigh, resp.Findings[0].Severity)
	})

	t.Run("plain text falls back", func(t *testing.T) {
		resp := ParseResponse("The code looks fine to me.")

		assert.NotNil(t, resp.Findings)
		assert.Empty(t, resp.Findings)
		assert.Equal(t, "The code looks fine to me.", resp.Summary)
	})

	t.Run("broken json falls back to first 500 characters", func(t *testing.T) {
		content := `{"findings": [ {"title": ` + strings.Repeat("x", 600) + "}"

		resp := ParseResponse(content)

		assert.Empty(t, resp.Findings)
		assert.Equal(t, content[:500], resp.Summary)
	})

	t.Run("object without findings key falls back", func(t *testing.T) {
		resp := ParseResponse(`{"summary": "only"}`)

		assert.Empty(t, resp.Findings)
		assert.Equal(t, `{"summary": "only"}`, resp.Summary)
	})

	t.Run("truncates by runes", func(t *testing.T) {
		content := strings.Repeat("ñ", 600)

		resp := ParseResponse(content)

		assert.Equal(t, strings.Repeat("ñ", 500), resp.Summary)
	})
}
