// Package redact strips credential-looking strings from review prompts before they
// leave the process.
package redact

import (
	"regexp"

	"github.com/thomas-vilte/svnreview/internal/models"
)

const placeholder = "[REDACTED]"

var secretPatterns = []*regexp.Regexp{
	// API keys in assignments
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`),
	// AWS access key IDs
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`),
	regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`),
	// svn command lines pasted into commit messages
	regexp.MustCompile(`--password[= ]\S+`),
	// credentials embedded in repository URLs
	regexp.MustCompile(`(?i)(svn|svn\+ssh|https?)://[^/\s:@]+:[^/\s@]+@`),
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	// JWTs
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+|OPENSSH\s+)?PRIVATE KEY-----`),
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
	regexp.MustCompile(`AIza[0-9A-Za-z_-]{35}`),
	regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`),
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	result := text
	for _, pat := range secretPatterns {
		result = pat.ReplaceAllString(result, placeholder)
	}
	return result
}

// Request returns a copy of req with commit messages and diffs redacted.
func Request(req models.ReviewRequest) models.ReviewRequest {
	commits := make([]models.CommitData, len(req.Commits))
	for i, c := range req.Commits {
		c.Message = Secrets(c.Message)
		c.Diff = Secrets(c.Diff)
		commits[i] = c
	}
	req.Commits = commits
	return req
}
