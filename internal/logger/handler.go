package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
)

var (
	levelBadges = map[slog.Level]*color.Color{
		slog.LevelDebug: color.New(color.FgHiBlack),
		slog.LevelInfo:  color.New(color.FgCyan),
		slog.LevelWarn:  color.New(color.FgYellow),
		slog.LevelError: color.New(color.FgRed),
	}

	keyColors = map[string]*color.Color{
		"error":       color.New(color.FgRed),
		"err":         color.New(color.FgRed),
		"duration_ms": color.New(color.FgMagenta),
		"timeout_ms":  color.New(color.FgMagenta),
		"findings":    color.New(color.FgGreen),
		"commits":     color.New(color.FgGreen),
		"total_items": color.New(color.FgGreen),
		"revision":    color.New(color.FgCyan),
		"session_id":  color.New(color.FgCyan),
		"request_id":  color.New(color.FgCyan),
		"status":      color.New(color.FgYellow),
	}

	dim = color.New(color.FgHiBlack)
)

// PrettyHandler is a slog.Handler for terminal output: a colored level badge, the
// message, then key=value pairs with review and svn keys highlighted.
type PrettyHandler struct {
	opts *slog.HandlerOptions
	mu   *sync.Mutex
	w    io.Writer

	// preformatted holds attrs added through WithAttrs, already qualified with the
	// groups that were open at the time.
	preformatted []string
	prefix       string
}

func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &PrettyHandler{opts: opts, mu: &sync.Mutex{}, w: w}
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelWarn
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	buf.WriteString(badge(r.Level))
	buf.WriteByte(' ')
	buf.WriteString(r.Message)

	pairs := append([]string{}, h.preformatted...)
	r.Attrs(func(a slog.Attr) bool {
		pairs = h.appendAttr(pairs, h.prefix, a)
		return true
	})
	if len(pairs) > 0 {
		buf.WriteByte(' ')
		buf.WriteString(strings.Join(pairs, " "))
	}

	if h.opts.AddSource && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		if frame.File != "" {
			buf.WriteByte(' ')
			buf.WriteString(dim.Sprintf("(%s:%d)", filepath.Base(frame.File), frame.Line))
		}
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, buf.String())
	return err
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := h.clone()
	for _, a := range attrs {
		c.preformatted = c.appendAttr(c.preformatted, c.prefix, a)
	}
	return c
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.prefix += name + "."
	return c
}

func (h *PrettyHandler) clone() *PrettyHandler {
	return &PrettyHandler{
		opts:         h.opts,
		mu:           h.mu,
		w:            h.w,
		preformatted: append([]string{}, h.preformatted...),
		prefix:       h.prefix,
	}
}

// appendAttr renders a as key=value under prefix. Group values are flattened into
// dotted keys and empty attrs are dropped.
func (h *PrettyHandler) appendAttr(dst []string, prefix string, a slog.Attr) []string {
	if rep := h.opts.ReplaceAttr; rep != nil && a.Value.Kind() != slog.KindGroup {
		a = rep(groupsOf(prefix), a)
	}
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst
	}

	if a.Value.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			dst = h.appendAttr(dst, inner, ga)
		}
		return dst
	}

	key := prefix + a.Key
	pair := key + "=" + quoteIfNeeded(a.Value.String())
	if c, ok := keyColors[a.Key]; ok {
		return append(dst, c.Sprint(pair))
	}
	return append(dst, dim.Sprint(pair))
}

func badge(level slog.Level) string {
	if c, ok := levelBadges[level]; ok {
		return c.Sprintf("%-7s", "["+level.String()+"]")
	}
	return fmt.Sprintf("[%s]", level.String())
}

func groupsOf(prefix string) []string {
	if prefix == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(prefix, "."), ".")
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}
