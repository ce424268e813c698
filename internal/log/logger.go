// Package log provides structured event logging.
// This file appends JSON events to a run's events.jsonl.
package log

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event type constants.
const (
	EventRunStarted       = "run_started"
	EventRunComplete      = "run_complete"
	EventPhilosopherState = "philosopher_state"
	EventMealCompleted    = "meal_completed"
	EventForkState        = "fork_state"
	EventBufferOccupancy  = "buffer_occupancy"
	EventBufferWait       = "buffer_wait"
	EventItemProduced     = "item_produced"
	EventItemConsumed     = "item_consumed"
	EventAgentStarted     = "agent_started"
	EventAgentStopped     = "agent_stopped"
)

// RunTimestampLayout names run directories under .mesa/runs.
const RunTimestampLayout = "20060102-150405"

// EventsFile is the log file name inside a run directory.
const EventsFile = "events.jsonl"

// LogEvent represents a single structured event written to the log.
// Pointer fields distinguish a real zero (seat 0, empty buffer) from absent.
type LogEvent struct {
	Time       time.Time      `json:"time"`
	Event      string         `json:"event"`
	RunID      string         `json:"run,omitempty"`
	Mode       string         `json:"mode,omitempty"`
	Agent      string         `json:"agent,omitempty"`
	ID         *int           `json:"id,omitempty"`
	State      string         `json:"state,omitempty"`
	Side       string         `json:"side,omitempty"`
	Value      *int           `json:"value,omitempty"`
	Count      *int           `json:"count,omitempty"`
	Meals      int            `json:"meals,omitempty"`
	Total      int            `json:"total,omitempty"`
	DurationMs int64          `json:"duration_ms,omitempty"`
	Error      string         `json:"error,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
}

// Int returns a pointer for the optional integer fields of LogEvent.
func Int(n int) *int { return &n }

// Logger writes append-only JSONL events for one run. Every event is
// stamped with the run ID.
//
// Append only queues the encoded line in memory, so it is safe to call while
// holding a fork or buffer lock. Lines reach the file on Flush, FlushEvery
// or Close.
type Logger struct {
	dir   string
	path  string
	runID string

	mu      sync.Mutex // guards pending and closed
	pending []byte
	closed  bool

	fileMu sync.Mutex // serialises writes to f
	f      *os.File
}

// NewRun creates .mesa/runs/<timestamp>/ under root and a Logger writing to
// its events.jsonl. The run gets a fresh ID.
func NewRun(root string) (*Logger, error) {
	dir := filepath.Join(root, ".mesa", "runs", time.Now().Format(RunTimestampLayout))
	return NewLogger(dir, uuid.NewString())
}

// NewLogger creates a Logger that appends to events.jsonl inside dir.
// Creates dir if it does not already exist. Does not truncate an existing
// log file.
func NewLogger(dir, runID string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}

	path := filepath.Join(dir, EventsFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return &Logger{
		dir:   dir,
		path:  path,
		runID: runID,
		f:     f,
	}, nil
}

// Dir returns the run directory.
func (l *Logger) Dir() string { return l.dir }

// Path returns the events file path.
func (l *Logger) Path() string { return l.path }

// RunID returns the ID stamped on every event.
func (l *Logger) RunID() string { return l.runID }

// Append queues a single LogEvent as one JSON line. If event.Time is the
// zero value, it is set to time.Now().UTC(). Thread-safe via mutex.
func (l *Logger) Append(event LogEvent) error {
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	if event.RunID == "" {
		event.RunID = l.runID
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal log event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return errors.New("write log event: logger is closed")
	}
	l.pending = append(l.pending, data...)
	l.pending = append(l.pending, '\n')
	return nil
}

// Pending returns the number of queued bytes not yet written to disk.
func (l *Logger) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Flush writes queued events to disk. Appends are not held up by the write.
func (l *Logger) Flush() error {
	l.fileMu.Lock()
	defer l.fileMu.Unlock()

	l.mu.Lock()
	batch := l.pending
	l.pending = nil
	l.mu.Unlock()

	if len(batch) == 0 || l.f == nil {
		return nil
	}
	if _, err := l.f.Write(batch); err != nil {
		return fmt.Errorf("flush log file: %w", err)
	}
	return nil
}

// FlushEvery flushes on every tick of interval until ctx is done. Write
// errors are reported once to stderr.
func (l *Logger) FlushEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	warned := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.Flush(); err != nil && !warned {
				warned = true
				fmt.Fprintf(os.Stderr, "Warning: event log: %v\n", err)
			}
		}
	}
}

// Close flushes and closes the log file. Further Appends fail.
func (l *Logger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	flushErr := l.Flush()

	l.fileMu.Lock()
	defer l.fileMu.Unlock()
	closeErr := l.f.Close()
	l.f = nil
	if err := errors.Join(flushErr, closeErr); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

// ReadAll reads and parses all events from the log file.
// Returns an empty slice (not an error) if the file does not exist.
func (l *Logger) ReadAll() ([]LogEvent, error) {
	if err := l.Flush(); err != nil {
		return nil, err
	}
	return ReadEvents(l.path)
}

// ReadEvents parses an events.jsonl file.
// Returns an empty slice (not an error) if the file does not exist.
func ReadEvents(path string) ([]LogEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []LogEvent{}, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var events []LogEvent
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event LogEvent
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, fmt.Errorf("parse log line %d: %w", lineNum, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	return events, nil
}
