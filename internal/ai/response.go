package ai

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/thomas-vilte/svnreview/internal/models"
	"github.com/thomas-vilte/svnreview/internal/regex"
)

const (
	noSummary        = "No summary provided"
	fallbackSummaryN = 500
)

type rawReview struct {
	Findings []json.RawMessage `json:"findings"`
	Summary  string            `json:"summary"`
}

// rawFinding decodes field by field so one badly typed value only blanks that field.
type rawFinding map[string]json.RawMessage

func (f rawFinding) str(key string) string {
	var v string
	if err := json.Unmarshal(f[key], &v); err != nil {
		return ""
	}
	return v
}

// line accepts 42, 42.0 and "42". Anything else, including non-positive values, is 0.
func (f rawFinding) line() int {
	raw, ok := f["lineNumber"]
	if !ok {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		if n, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return 0
		}
	}
	if n < 1 || n > math.MaxInt32 || n != math.Trunc(n) {
		return 0
	}
	return int(n)
}

func (f rawFinding) finding() models.ReviewFinding {
	return models.ReviewFinding{
		CommitID:    f.str("commitId"),
		Severity:    models.Severity(f.str("severity")),
		Category:    f.str("category"),
		Title:       f.str("title"),
		Description: f.str("description"),
		FilePath:    f.str("filePath"),
		LineNumber:  f.line(),
		Suggestion:  f.str("suggestion"),
	}
}

// ParseResponse extracts findings from completion text. It never fails: text that
// does not hold a usable JSON object yields no findings and a summary made of the
// first 500 characters of content.
func ParseResponse(content string) *models.ReviewResponse {
	if match := regex.FindingsObject.FindString(content); match != "" {
		var raw rawReview
		if err := json.Unmarshal([]byte(match), &raw); err == nil {
			resp := &models.ReviewResponse{
				Findings: normalizeFindings(raw.Findings),
				Summary:  raw.Summary,
			}
			if resp.Summary == "" {
				resp.Summary = noSummary
			}
			return resp
		}
	}

	return &models.ReviewResponse{
		Findings: []models.ReviewFinding{},
		Summary:  truncate(content, fallbackSummaryN),
	}
}

// normalizeFindings decodes each finding on its own; entries that are not JSON objects
// are dropped.
func normalizeFindings(findings []json.RawMessage) []models.ReviewFinding {
	out := make([]models.ReviewFinding, 0, len(findings))
	for _, raw := range findings {
		var fields rawFinding
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			continue
		}
		f := fields.finding()
		f.Severity = models.Severity(strings.ToLower(strings.TrimSpace(string(f.Severity))))
		if !f.Severity.Valid() {
			f.Severity = models.SeverityInfo
		}
		out = append(out, f)
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
