package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// SanitizingHandler wraps another slog.Handler and scrubs its message and
// attributes through a Sanitizer before delegating. It sits innermost to
// outermost: attrs added via WithAttrs are sanitized at attach time, and
// attrs attached to an individual record are sanitized at Handle time.
type SanitizingHandler struct {
	next      slog.Handler
	sanitizer *Sanitizer
}

// NewSanitizingHandler wraps next so that everything it emits has passed
// through sanitizer first.
func NewSanitizingHandler(next slog.Handler, sanitizer *Sanitizer) *SanitizingHandler {
	return &SanitizingHandler{next: next, sanitizer: sanitizer}
}

func (h *SanitizingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *SanitizingHandler) Handle(ctx context.Context, r slog.Record) error {
	clean := slog.NewRecord(r.Time, r.Level, h.sanitizer.Sanitize(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(h.sanitizeAttr(a))
		return true
	})
	return h.next.Handle(ctx, clean)
}

func (h *SanitizingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = h.sanitizeAttr(a)
	}
	return &SanitizingHandler{next: h.next.WithAttrs(sanitized), sanitizer: h.sanitizer}
}

func (h *SanitizingHandler) WithGroup(name string) slog.Handler {
	return &SanitizingHandler{next: h.next.WithGroup(name), sanitizer: h.sanitizer}
}

func (h *SanitizingHandler) sanitizeAttr(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, h.sanitizer.Sanitize(a.Value.String()))
	case slog.KindGroup:
		members := a.Value.Group()
		sanitized := make([]slog.Attr, len(members))
		for i, m := range members {
			sanitized[i] = h.sanitizeAttr(m)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
	default:
		return a
	}
}

// PrettyHandler renders records as a single colorized line for an
// interactive terminal: time, level, message, then attrs in key=value form,
// with the category attribute (see Get) pulled out as a bracketed tag
// instead of a trailing key=value pair so a scrolling terminal reads by
// subsystem at a glance.
type PrettyHandler struct {
	mu     sync.Mutex
	w      io.Writer
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

// NewPrettyHandler creates a PrettyHandler writing to w at the given
// minimum level.
func NewPrettyHandler(w io.Writer, level slog.Level) *PrettyHandler {
	return &PrettyHandler{w: w, level: level}
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	category, rest := h.splitCategory(r)

	line := fmt.Sprintf("%s %s", r.Time.Format("15:04:05"), h.formatLevel(r.Level))
	if category != "" {
		line += " [" + category + "]"
	}
	line += " " + r.Message

	for _, a := range rest {
		line += h.formatAttr(a)
	}

	_, err := fmt.Fprintln(h.w, line)
	return err
}

// splitCategory pulls the categoryAttrKey attribute, if present anywhere in
// the handler's pre-set attrs or the record's own attrs, out of the
// attribute list so Handle can render it specially.
func (h *PrettyHandler) splitCategory(r slog.Record) (string, []slog.Attr) {
	var category string
	rest := make([]slog.Attr, 0, r.NumAttrs()+len(h.attrs))

	collect := func(a slog.Attr) bool {
		if a.Key == categoryAttrKey && a.Value.Kind() == slog.KindString {
			category = a.Value.String()
			return true
		}
		rest = append(rest, a)
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(collect)
	return category, rest
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(merged, h.attrs)
	copy(merged[len(h.attrs):], attrs)
	return &PrettyHandler{w: h.w, level: h.level, attrs: merged, groups: h.groups}
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	return &PrettyHandler{w: h.w, level: h.level, attrs: h.attrs, groups: append(h.groups, name)}
}

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiBlue   = "\033[34m"
	ansiGray   = "\033[90m"
	ansiCyan   = "\033[36m"
)

func (h *PrettyHandler) formatLevel(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return ansiGray + "DBG" + ansiReset
	case slog.LevelInfo:
		return ansiBlue + "INF" + ansiReset
	case slog.LevelWarn:
		return ansiYellow + "WRN" + ansiReset
	case slog.LevelError:
		return ansiRed + "ERR" + ansiReset
	default:
		return level.String()[:3]
	}
}

func (h *PrettyHandler) formatAttr(a slog.Attr) string {
	if a.Value.Kind() == slog.KindGroup {
		var result string
		for _, member := range a.Value.Group() {
			result += h.formatAttr(member)
		}
		return result
	}

	key := a.Key
	for i := len(h.groups) - 1; i >= 0; i-- {
		key = h.groups[i] + "." + key
	}
	return fmt.Sprintf(" %s%s%s=%v", ansiCyan, key, ansiReset, a.Value.Any())
}
