package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// LogFileName is the log file created under the configured log directory.
const LogFileName = "goupi.log"

// runAttr is the attribute key whose value fills the run column.
const runAttr = "run"

// goupiHandler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<runID>\t<message>\t<key=value ...>
//
// The run column comes from a "run" attribute set with Logger.With and is
// "-" outside a build. Concurrent post workers share one handler, so
// writes are serialized.
type goupiHandler struct {
	w     io.Writer
	mu    *sync.Mutex
	runID string
	level slog.Leveler
	attrs []slog.Attr
}

func newGoupiHandler(w io.Writer, level slog.Leveler) *goupiHandler {
	return &goupiHandler{w: w, mu: &sync.Mutex{}, runID: "-", level: level}
}

func (h *goupiHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *goupiHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")

	line := fmt.Sprintf("%s\t%s\t%s\t%s", ts, r.Level.String(), h.runID, r.Message)
	for _, a := range h.attrs {
		line += fmt.Sprintf("\t%s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		line += fmt.Sprintf("\t%s=%v", a.Key, a.Value)
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.w, line)
	return err
}

func (h *goupiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := &goupiHandler{
		w:     h.w,
		mu:    h.mu,
		runID: h.runID,
		level: h.level,
		attrs: append([]slog.Attr{}, h.attrs...),
	}
	for _, a := range attrs {
		if a.Key == runAttr {
			h2.runID = a.Value.String()
			continue
		}
		h2.attrs = append(h2.attrs, a)
	}
	return h2
}

func (h *goupiHandler) WithGroup(string) slog.Handler { return h }

// parseLevel maps a log_level config value to a slog level. Empty means info.
func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// newLogger creates a structured logger that writes to stderr and, when
// logDir is set, to logDir/goupi.log as well. It returns the slog.Logger,
// the open log file (nil without a log dir), and any error.
func newLogger(logDir, levelName string, stderr io.Writer) (*slog.Logger, *os.File, error) {
	level, err := parseLevel(levelName)
	if err != nil {
		return nil, nil, err
	}

	if logDir == "" {
		return slog.New(newGoupiHandler(stderr, level)), nil, nil
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, LogFileName)
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	w := io.MultiWriter(f, stderr)
	return slog.New(newGoupiHandler(w, level)), f, nil
}

// slogAdapter wraps *slog.Logger to satisfy the goupi.Logger interface.
type slogAdapter struct {
	l *slog.Logger
}

// forRun returns an adapter whose lines carry runID in the run column.
func (a *slogAdapter) forRun(runID string) *slogAdapter {
	return &slogAdapter{l: a.l.With(runAttr, runID)}
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
