// run.go drives a non-interactive scenario: it wires the progress display
// and the event log to a controller, starts agents, waits for them to finish
// or be cut short, and prints the run report.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/berth-dev/mesa/internal/cleanup"
	"github.com/berth-dev/mesa/internal/config"
	"github.com/berth-dev/mesa/internal/control"
	"github.com/berth-dev/mesa/internal/log"
	"github.com/berth-dev/mesa/internal/observe"
	"github.com/berth-dev/mesa/internal/report"
	"github.com/berth-dev/mesa/internal/ui"
)

// errInterrupted marks a run cut short by a signal.
var errInterrupted = errors.New("interrupted")

// logFlushInterval is how often queued events are written to events.jsonl.
const logFlushInterval = 250 * time.Millisecond

// scenario describes one non-interactive run.
type scenario struct {
	mode     string // "dine" or "buffer"
	title    string
	seats    int // zero hides the table panel
	capacity int // zero hides the buffer panel
	duration time.Duration
	noLog    bool

	// start launches the scenario's agents on ctrl.
	start func(ctrl *control.Controller) error
}

// runScenario runs s against cfg until every agent reaches its limit, the
// duration elapses or the process is interrupted.
func runScenario(ctx context.Context, out io.Writer, root string, cfg *config.Config, s scenario) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	display := ui.NewProgressDisplay(s.title, s.seats, s.capacity)
	display.Verbose = verbose
	observers := []observe.Observer{display}

	var logger *log.Logger
	if cfg.Log.Enabled && !s.noLog {
		pruneRuns(root, cfg)

		var err error
		logger, err = log.NewRun(root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: event log disabled: %v\n", err)
			logger = nil
		} else {
			defer logger.Close()
			flushCtx, stopFlush := context.WithCancel(ctx)
			defer stopFlush()
			go logger.FlushEvery(flushCtx, logFlushInterval)
			observers = append(observers, log.NewObserver(logger))
		}
	}

	ctrl, err := control.New(*cfg, observe.NewMulti(observers...))
	if err != nil {
		return err
	}

	if logger != nil {
		appendEvent(logger, log.LogEvent{
			Event: log.EventRunStarted,
			Mode:  s.mode,
			Data: map[string]any{
				"seed":   ctrl.Seed(),
				"config": cfg,
			},
		})
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx := sigCtx
	if s.duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(sigCtx, s.duration)
		defer cancel()
	}

	started := time.Now()
	display.Start()
	if err := s.start(ctrl); err != nil {
		ctrl.Shutdown()
		display.Finish()
		return err
	}

	done := make(chan struct{})
	go func() {
		ctrl.Wait()
		close(done)
	}()

	var runErr error
	select {
	case <-done:
	case <-runCtx.Done():
		if sigCtx.Err() != nil {
			runErr = errInterrupted
		}
	}
	ctrl.Shutdown()
	display.Finish()

	if logger == nil {
		return runErr
	}

	stats := ctrl.Stats()
	complete := log.LogEvent{
		Event:      log.EventRunComplete,
		Mode:       s.mode,
		Total:      stats.Total,
		DurationMs: time.Since(started).Milliseconds(),
		Data: map[string]any{
			"produced":  stats.Produced,
			"consumed":  stats.Consumed,
			"occupancy": stats.Occupancy,
		},
	}
	if runErr != nil {
		complete.Error = runErr.Error()
	}
	appendEvent(logger, complete)
	if err := logger.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: closing event log: %v\n", err)
	}

	r, err := report.GenerateReport(logger.Dir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: report generation error: %v\n", err)
	}
	if r != nil {
		fmt.Fprintln(out)
		fmt.Fprint(out, report.FormatReport(r))
		fmt.Fprintf(out, "\nRun directory: %s\n", logger.Dir())
	}
	return runErr
}

// pruneRuns applies the configured age limit to old runs before a new one
// starts. Failures only warn.
func pruneRuns(root string, cfg *config.Config) {
	if cfg.Cleanup.MaxAgeDays <= 0 {
		return
	}
	runsDir := filepath.Join(config.Dir(root), "runs")
	pruned, err := cleanup.PruneByAge(runsDir, cfg.Cleanup.MaxAgeDays, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cleanup failed: %v\n", err)
	} else if len(pruned) > 0 {
		fmt.Fprintf(os.Stderr, "Cleaned up %d old run(s)\n", len(pruned))
	}
}
