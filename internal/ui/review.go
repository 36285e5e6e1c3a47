package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/thomas-vilte/svnreview/internal/i18n"
	"github.com/thomas-vilte/svnreview/internal/models"
)

func SeverityColor(s models.Severity) *color.Color {
	switch s {
	case models.SeverityCritical:
		return color.New(color.FgHiRed, color.Bold)
	case models.SeverityHigh:
		return color.New(color.FgRed)
	case models.SeverityMedium:
		return color.New(color.FgYellow)
	case models.SeverityLow:
		return color.New(color.FgCyan)
	default:
		return Dim
	}
}

func statusColor(s models.SessionStatus) *color.Color {
	switch s {
	case models.StatusCompleted:
		return Success
	case models.StatusFailed:
		return Error
	default:
		return Warning
	}
}

func PrintFinding(w io.Writer, f models.ReviewFinding) {
	_, _ = fmt.Fprintf(w, "%s %s %s\n",
		SeverityColor(f.Severity).Sprintf("[%s]", f.Severity),
		color.New(color.Bold).Sprint(f.Title),
		Dim.Sprintf("(%s, commit %s)", f.Category, f.CommitID))

	if f.FilePath != "" {
		location := f.FilePath
		if f.LineNumber > 0 {
			location = fmt.Sprintf("%s:%d", f.FilePath, f.LineNumber)
		}
		_, _ = fmt.Fprintf(w, "    %s\n", Info.Sprint(location))
	}
	_, _ = fmt.Fprintf(w, "    %s\n", f.Description)
	if f.Suggestion != "" {
		_, _ = fmt.Fprintf(w, "    %s %s\n", Success.Sprint("→"), f.Suggestion)
	}
}

// PrintSession prints the session header, its findings in stored order and the usage line.
func PrintSession(w io.Writer, s *models.ReviewSession, t *i18n.Translations) {
	PrintSectionBanner(w, s.ID)
	PrintKeyValue(w, t.GetMessage("label_status", 0, nil), statusColor(s.Status).Sprint(s.Status))
	PrintKeyValue(w, t.GetMessage("label_provider", 0, nil), fmt.Sprintf("%s (%s)", s.ProviderName, s.Model))
	PrintKeyValue(w, t.GetMessage("label_commits", 0, nil), fmt.Sprint(s.CommitIDs))
	PrintKeyValue(w, t.GetMessage("label_started", 0, nil), s.StartedAt.Local().Format(time.DateTime))
	if s.CompletedAt != nil {
		PrintKeyValue(w, t.GetMessage("label_completed", 0, nil), s.CompletedAt.Local().Format(time.DateTime))
	}
	if s.Error != "" {
		PrintKeyValue(w, t.GetMessage("label_error", 0, nil), Error.Sprint(s.Error))
	}

	if s.Summary != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", s.Summary)
	}

	if len(s.Findings) > 0 {
		_, _ = fmt.Fprintf(w, "\n%s\n", Accent.Sprint(t.GetMessage("findings_count", len(s.Findings), map[string]interface{}{
			"Count": len(s.Findings),
		})))
		for _, f := range s.Findings {
			PrintFinding(w, f)
		}
	}

	if s.Usage != nil {
		_, _ = fmt.Fprintln(w)
		PrintTokenUsage(w, s.Usage, t)
	}
}

// PrintSessionLine prints a one line summary used by session listings.
func PrintSessionLine(w io.Writer, s models.ReviewSession) {
	_, _ = fmt.Fprintf(w, "%s  %s  %-11s %s  %v\n",
		s.ID,
		s.StartedAt.Local().Format(time.DateTime),
		statusColor(s.Status).Sprint(s.Status),
		Dim.Sprint(s.ProviderName),
		s.CommitIDs)
}
