package testutil

import (
	"bytes"
	"fmt"
	"sync"

	"goupi/internal/goupi"
)

// StubConverter wraps markdown in a <p> element without parsing it.
// Sources listed in Fail produce an error instead.
type StubConverter struct {
	Fail map[string]bool
}

func NewStubConverter() *StubConverter {
	return &StubConverter{Fail: make(map[string]bool)}
}

func (c *StubConverter) ToHTML(markdown []byte) (string, error) {
	text := string(bytes.TrimSpace(markdown))
	if c.Fail[text] {
		return "", fmt.Errorf("cannot render %q", text)
	}
	return "<p>" + text + "</p>", nil
}

// LogEntry is one call captured by RecordingLogger.
type LogEntry struct {
	Level string
	Msg   string
	Args  []any
}

// RecordingLogger keeps every log call in memory. Safe for concurrent use.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (l *RecordingLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Args: args})
}

func (l *RecordingLogger) Debug(msg string, args ...any) { l.record("DEBUG", msg, args) }
func (l *RecordingLogger) Info(msg string, args ...any)  { l.record("INFO", msg, args) }
func (l *RecordingLogger) Warn(msg string, args ...any)  { l.record("WARN", msg, args) }
func (l *RecordingLogger) Error(msg string, args ...any) { l.record("ERROR", msg, args) }

// Entries returns a copy of everything logged so far.
func (l *RecordingLogger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogEntry(nil), l.entries...)
}

// Count returns how many entries carry msg.
func (l *RecordingLogger) Count(msg string) int {
	n := 0
	for _, e := range l.Entries() {
		if e.Msg == msg {
			n++
		}
	}
	return n
}

var (
	_ goupi.Converter = (*StubConverter)(nil)
	_ goupi.Logger    = (*RecordingLogger)(nil)
)
