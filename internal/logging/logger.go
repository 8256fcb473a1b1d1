package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// Logger pairs an *slog.Logger with the Sanitizer that scrubs its output, so
// callers that need to redact a string outside of a log call (error
// messages surfaced to a CLI user, say) can reuse the same patterns.
type Logger struct {
	*slog.Logger
	sanitizer *Sanitizer
}

// Config controls how New builds a Logger's handler chain.
type Config struct {
	Level     string
	Format    string // auto, text, json
	Output    io.Writer
	AddSource bool
}

// DefaultConfig returns the configuration used when no explicit Config is
// supplied: info level, auto-detected format, stdout.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "auto",
		Output:    os.Stdout,
		AddSource: false,
	}
}

// New builds a Logger from cfg. Format "auto" picks a colorized handler for
// an interactive terminal and falls back to JSON otherwise; every handler is
// wrapped in a SanitizingHandler so secrets never reach cfg.Output.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	level := parseLevel(cfg.Level)
	sanitizer := NewSanitizer()
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(cfg.Output, opts)
	case "text":
		handler = slog.NewTextHandler(cfg.Output, opts)
	default: // auto
		if isTerminal(cfg.Output) {
			handler = NewPrettyHandler(cfg.Output, level)
		} else {
			handler = slog.NewJSONHandler(cfg.Output, opts)
		}
	}

	return &Logger{
		Logger:    slog.New(NewSanitizingHandler(handler, sanitizer)),
		sanitizer: sanitizer,
	}
}

// NewNop builds a Logger that discards everything, for components whose
// callers pass no logger (tests, library-style constructors).
func NewNop() *Logger {
	return &Logger{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		sanitizer: NewSanitizer(),
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// WithContext lets call sites thread a context through logging calls even
// though nothing is extracted from it today; a future trace-id propagation
// point has one place to attach.
func (l *Logger) WithContext(_ context.Context) *Logger {
	return l
}

func (l *Logger) withField(key string, value any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(key, value),
		sanitizer: l.sanitizer,
	}
}

// WithTask scopes the logger to a single task.
func (l *Logger) WithTask(taskID string) *Logger {
	return l.withField("task_id", taskID)
}

// WithPhase scopes the logger to a workflow phase.
func (l *Logger) WithPhase(phase string) *Logger {
	return l.withField("phase", phase)
}

// WithWorkflow scopes the logger to a single workflow run.
func (l *Logger) WithWorkflow(workflowID string) *Logger {
	return l.withField("workflow_id", workflowID)
}

// WithAgent scopes the logger to a single agent.
func (l *Logger) WithAgent(agent string) *Logger {
	return l.withField("agent", agent)
}

// With returns a logger with arbitrary extra key/value fields attached.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		sanitizer: l.sanitizer,
	}
}

// Sanitizer returns the Sanitizer backing this logger's handler chain.
func (l *Logger) Sanitizer() *Sanitizer {
	return l.sanitizer
}

// Sanitize redacts input the same way the logger's handler redacts log
// attributes, for strings that end up somewhere other than a log record.
func (l *Logger) Sanitize(input string) string {
	return l.sanitizer.Sanitize(input)
}
