package ai

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/thomas-vilte/svnreview/internal/models"
)

const DefaultSystemPrompt = "You are an expert code reviewer. Review the provided commits for potential issues, bugs, security vulnerabilities, code quality problems, and best practice violations."

const fence = "```"

const reviewPromptTemplate = `{{.SystemPrompt}}

{{if .Rules}}## Review Rules
{{range .Rules}}- {{.Name}}: {{.Rule}}
{{end}}
{{end}}## Commits to Review

{{range .Commits}}### Commit: {{.ID}}
Author: {{.Author}}
Date: {{iso .Timestamp}}
Message: {{.Message}}

` + fence + `diff
{{.Diff}}
` + fence + `

{{end}}
## Instructions
Please review the above commits and provide structured feedback in the following JSON format:
{
  "findings": [
    {
      "commitId": "commit_id",
      "severity": "critical|high|medium|low|info",
      "category": "category_name",
      "title": "Brief title",
      "description": "Detailed description",
      "filePath": "path/to/file (optional)",
      "lineNumber": 123 (optional),
      "suggestion": "How to fix (optional)"
    }
  ],
  "summary": "Overall summary of the review"
}`

var reviewPrompt = template.Must(template.New("review").Funcs(template.FuncMap{
	"iso": formatISO,
}).Parse(reviewPromptTemplate))

// formatISO renders t in UTC with millisecond precision, e.g. 2024-03-10T09:15:30.123Z.
func formatISO(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// BuildPrompt renders the review prompt for req. Disabled rules are skipped; an
// empty system prompt falls back to DefaultSystemPrompt.
func BuildPrompt(req models.ReviewRequest) (string, error) {
	data := req
	if data.SystemPrompt == "" {
		data.SystemPrompt = DefaultSystemPrompt
	}

	rules := make([]models.ReviewRule, 0, len(req.Rules))
	for _, r := range req.Rules {
		if r.Enabled {
			rules = append(rules, r)
		}
	}
	data.Rules = rules

	var buf bytes.Buffer
	if err := reviewPrompt.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("error executing review prompt: %w", err)
	}
	return buf.String(), nil
}
