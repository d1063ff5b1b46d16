// Package audit persists auth lifecycle events as JSON Lines.
package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/xetiic/busdesk/internal/domain/session"
)

// FileEventLog implements session.EventSink by appending one JSON object
// per line to a file. Write failures are logged and swallowed: the audit
// trail must never break the auth path.
type FileEventLog struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	logger *slog.Logger
}

// NewFileEventLog opens (creating if necessary) the event log at path.
func NewFileEventLog(path string, logger *slog.Logger) (*FileEventLog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &FileEventLog{file: f, path: path, logger: logger}, nil
}

// Record appends the event as one JSON line.
func (l *FileEventLog) Record(ev session.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		l.logger.Warn("failed to encode audit event", "kind", ev.Kind, "error", err)
		return
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	if _, err := l.file.Write(data); err != nil {
		l.logger.Warn("failed to write audit event", "path", l.path, "error", err)
	}
}

// Close flushes and closes the underlying file. Record becomes a no-op.
func (l *FileEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// WriterEventLog implements session.EventSink on any writer-like sink that
// takes a line at a time, e.g. stdout in dev mode.
type WriterEventLog struct {
	mu     sync.Mutex
	write  func(line []byte)
	logger *slog.Logger
}

// NewStdoutEventLog returns an event sink writing JSON lines to stdout.
func NewStdoutEventLog(logger *slog.Logger) *WriterEventLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &WriterEventLog{
		write: func(line []byte) {
			_, _ = os.Stdout.Write(line)
		},
		logger: logger,
	}
}

// Record writes the event as one JSON line.
func (w *WriterEventLog) Record(ev session.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		w.logger.Warn("failed to encode audit event", "kind", ev.Kind, "error", err)
		return
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	w.write(data)
}

// Compile-time interface verification.
var (
	_ session.EventSink = (*FileEventLog)(nil)
	_ session.EventSink = (*WriterEventLog)(nil)
)
