package log

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/goleak"

	"github.com/berth-dev/mesa/internal/observe"
)

func TestAppendAndReadAll(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, "run-1")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	if err := logger.Append(LogEvent{Event: EventRunStarted, Mode: "dine"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := logger.Append(LogEvent{Event: EventForkState, ID: Int(0), State: "held"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	events, err := logger.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].RunID != "run-1" || events[0].Time.IsZero() {
		t.Errorf("event not stamped: %+v", events[0])
	}
	if events[1].ID == nil || *events[1].ID != 0 {
		t.Errorf("seat 0 lost in round trip: %+v", events[1])
	}
}

func TestCloseRejectsFurtherAppends(t *testing.T) {
	logger, err := NewLogger(t.TempDir(), "run-1")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if err := logger.Append(LogEvent{Event: EventRunComplete}); err == nil {
		t.Error("Append after Close should fail")
	}
}

func TestNewRunLayout(t *testing.T) {
	root := t.TempDir()
	logger, err := NewRun(root)
	if err != nil {
		t.Fatalf("NewRun failed: %v", err)
	}
	defer logger.Close()

	rel, err := filepath.Rel(filepath.Join(root, ".mesa", "runs"), logger.Dir())
	if err != nil || strings.Contains(rel, string(filepath.Separator)) {
		t.Fatalf("run dir %s not directly under .mesa/runs", logger.Dir())
	}
	if _, err := time.Parse(RunTimestampLayout, rel); err != nil {
		t.Errorf("run dir name %q is not a timestamp: %v", rel, err)
	}
	if _, err := uuid.Parse(logger.RunID()); err != nil {
		t.Errorf("run ID %q is not a UUID: %v", logger.RunID(), err)
	}
}

func TestReadEventsMissingFile(t *testing.T) {
	events, err := ReadEvents(filepath.Join(t.TempDir(), "nope.jsonl"))
	if err != nil {
		t.Fatalf("ReadEvents failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events from a missing file", len(events))
	}
}

func TestReadEventsMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), EventsFile)
	content := `{"event":"run_started"}` + "\n" + "{not json\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadEvents(path); err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("ReadEvents err = %v, want a line 2 parse error", err)
	}
}

func TestObserverWritesEveryCallback(t *testing.T) {
	logger, err := NewLogger(t.TempDir(), "run-1")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	obs := NewObserver(logger)
	obs.OnPhilosopherState(2, observe.Hungry)
	obs.OnMealCompleted(2, 1)
	obs.OnForkState(3, observe.ForkHeld)
	obs.OnBufferOccupancy(0)
	obs.OnBufferWait(observe.Consumed)
	obs.OnItem(observe.Produced, 0, 17)
	obs.OnItem(observe.Consumed, 1, 17)
	obs.OnAgent("producer", true)
	obs.OnAgent("producer", false)

	events, err := logger.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	want := []string{
		EventPhilosopherState, EventMealCompleted, EventForkState,
		EventBufferOccupancy, EventBufferWait, EventItemProduced,
		EventItemConsumed, EventAgentStarted, EventAgentStopped,
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, e := range events {
		if e.Event != want[i] {
			t.Errorf("event %d = %s, want %s", i, e.Event, want[i])
		}
	}
	if events[0].State != "hungry" {
		t.Errorf("state = %q, want hungry", events[0].State)
	}
	if events[3].Count == nil || *events[3].Count != 0 {
		t.Errorf("empty occupancy lost: %+v", events[3])
	}
	if events[5].Value == nil || *events[5].Value != 17 {
		t.Errorf("item value lost: %+v", events[5])
	}
	if obs.Failures() != 0 {
		t.Errorf("Failures = %d, want 0", obs.Failures())
	}
}

func TestObserverCountsFailures(t *testing.T) {
	logger, err := NewLogger(t.TempDir(), "run-1")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.Close()

	obs := NewObserver(logger)
	obs.OnBufferOccupancy(1)
	obs.OnBufferOccupancy(2)
	if obs.Failures() != 2 {
		t.Errorf("Failures = %d, want 2", obs.Failures())
	}
}

func TestAppendQueuesUntilFlush(t *testing.T) {
	logger, err := NewLogger(t.TempDir(), "run-1")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	if err := logger.Append(LogEvent{Event: EventForkState, ID: Int(1), State: "held"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if info, err := os.Stat(logger.Path()); err != nil || info.Size() != 0 {
		t.Fatalf("events file before Flush: %v, %v; want empty", info, err)
	}
	if logger.Pending() == 0 {
		t.Error("Pending = 0 after Append")
	}

	if err := logger.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if logger.Pending() != 0 {
		t.Errorf("Pending = %d after Flush", logger.Pending())
	}
	events, err := ReadEvents(logger.Path())
	if err != nil {
		t.Fatalf("ReadEvents failed: %v", err)
	}
	if len(events) != 1 || events[0].Event != EventForkState {
		t.Errorf("events = %+v, want one fork_state", events)
	}
}

// Appending while a flush holds the file must not wait for the write.
func TestAppendDoesNotWaitForFlush(t *testing.T) {
	logger, err := NewLogger(t.TempDir(), "run-1")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	logger.fileMu.Lock()
	done := make(chan error, 1)
	go func() { done <- logger.Append(LogEvent{Event: EventBufferOccupancy, Count: Int(2)}) }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Append failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Append blocked behind the file lock")
	}
	logger.fileMu.Unlock()
}

func TestFlushEveryWritesUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	logger, err := NewLogger(t.TempDir(), "run-1")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		logger.FlushEvery(ctx, 5*time.Millisecond)
		close(stopped)
	}()

	if err := logger.Append(LogEvent{Event: EventRunStarted}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for logger.Pending() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if logger.Pending() != 0 {
		t.Error("FlushEvery never wrote the queued event")
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("FlushEvery did not return after cancel")
	}
}
