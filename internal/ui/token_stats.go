package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/thomas-vilte/svnreview/internal/i18n"
	"github.com/thomas-vilte/svnreview/internal/models"
)

func PrintTokenUsage(w io.Writer, usage *models.TokenUsage, t *i18n.Translations) {
	if usage == nil {
		return
	}
	yellow := color.New(color.FgYellow)
	green := color.New(color.FgGreen)

	_, _ = fmt.Fprintf(w, "%s: %s %d | %s %d | %s %d\n",
		t.GetMessage("token_usage", 0, nil),
		t.GetMessage("usage_input", 0, nil), usage.InputTokens,
		t.GetMessage("usage_output", 0, nil), usage.OutputTokens,
		t.GetMessage("usage_total", 0, nil), usage.TotalTokens)
	if usage.CostUSD > 0 {
		_, _ = fmt.Fprintf(w, "%s: ", t.GetMessage("usage_cost", 0, nil))
		_, _ = yellow.Fprintf(w, "$%.4f USD\n", usage.CostUSD)
	}
	if usage.CacheHit {
		_, _ = green.Fprintf(w, "✓ %s\n", t.GetMessage("usage_cache_hit", 0, nil))
	}
	if usage.DurationMs > 0 {
		_, _ = fmt.Fprintf(w, "%s: %dms\n", t.GetMessage("usage_duration", 0, nil), usage.DurationMs)
	}
}
