package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	domainErrors "github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/i18n"
)

var (
	// Colors for different message types
	Success = color.New(color.FgGreen, color.Bold)
	Error   = color.New(color.FgRed, color.Bold)
	Warning = color.New(color.FgYellow, color.Bold)
	Info    = color.New(color.FgCyan, color.Bold)
	Accent  = color.New(color.FgMagenta, color.Bold)
	Dim     = color.New(color.FgHiBlack)
)

// Spinner wraps a terminal spinner bound to a writer. On a non terminal writer it
// stays silent.
type Spinner struct {
	spinner *spinner.Spinner
	w       io.Writer
}

func NewSpinner(w io.Writer, message string) *Spinner {
	s := spinner.New(
		spinner.CharSets[14],
		100*time.Millisecond,
		spinner.WithColor("cyan"),
		spinner.WithSuffix(" "+message),
		spinner.WithWriter(w),
	)
	return &Spinner{spinner: s, w: w}
}

func (s *Spinner) Start() {
	s.spinner.Start()
}

func (s *Spinner) Stop() {
	s.spinner.Stop()
}

// WithSpinner runs fn while a spinner is shown and prints how long it took.
func WithSpinner(w io.Writer, message string, fn func() error) error {
	s := NewSpinner(w, message)
	s.Start()

	start := time.Now()
	err := fn()
	s.Stop()

	if err != nil {
		return err
	}
	PrintDuration(w, message, time.Since(start))
	return nil
}

func PrintSuccess(w io.Writer, msg string) {
	_, _ = Success.Fprintf(w, "✓ %s\n", msg)
}

func PrintError(w io.Writer, msg string) {
	_, _ = Error.Fprintf(w, "✗ %s\n", msg)
}

func PrintWarning(w io.Writer, msg string) {
	_, _ = Warning.Fprintf(w, "! %s\n", msg)
}

func PrintInfo(w io.Writer, msg string) {
	_, _ = Info.Fprintln(w, msg)
}

func PrintSectionBanner(w io.Writer, title string) {
	separator := color.New(color.FgCyan).Sprint("━━━━━━━━━━━━━━━━━━━━━━━")
	_, _ = fmt.Fprintf(w, "\n%s\n%s\n%s\n", separator, Accent.Sprint(title), separator)
}

func PrintDuration(w io.Writer, msg string, d time.Duration) {
	_, _ = fmt.Fprintf(w, "%s %s\n", Success.Sprint(msg), Dim.Sprintf("(%s)", d.Round(10*time.Millisecond)))
}

func PrintKeyValue(w io.Writer, key, value string) {
	_, _ = fmt.Fprintf(w, "   %s %s\n", Dim.Sprint(key+":"), color.New(color.FgWhite, color.Bold).Sprint(value))
}

// PrintJSON writes v indented, followed by a newline.
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// HandleAppError prints err in a friendly way. AppErrors show their type, the wrapped
// cause and the suggestion when present. t may be nil.
func HandleAppError(w io.Writer, err error, t *i18n.Translations) {
	if err == nil {
		return
	}

	appErr, ok := domainErrors.As(err)
	if !ok {
		PrintError(w, err.Error())
		return
	}

	_, _ = Error.Fprintf(w, "✗ %s: %s\n", appErr.Type, appErr.Message)
	if appErr.Err != nil {
		details := "Details"
		if t != nil {
			details = t.GetMessage("error_details", 0, nil)
		}
		_, _ = Dim.Fprintf(w, "   %s: %v\n", details, appErr.Err)
	}
	for _, f := range appErr.Fields {
		_, _ = Dim.Fprintf(w, "   - %s %s\n", f.Field, f.Message)
	}

	if appErr.Suggestion != "" {
		tryPrefix := "Try: "
		if t != nil {
			tryPrefix = t.GetMessage("try_suggestion", 0, nil) + " "
		}
		lines := strings.Split(appErr.Suggestion, "\n")
		_, _ = color.New(color.FgCyan).Fprintf(w, "%s%s\n", tryPrefix, lines[0])
		for _, line := range lines[1:] {
			_, _ = fmt.Fprintf(w, "       %s\n", line)
		}
	}
}
