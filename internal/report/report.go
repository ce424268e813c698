// Package report summarizes a finished run from its event log.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/berth-dev/mesa/internal/log"
)

// Report holds the aggregated statistics for one run.
type Report struct {
	RunID    string
	Mode     string
	Duration time.Duration
	Events   int

	// Table
	Meals         map[int]int // seat -> meals finished
	TotalMeals    int
	ForkPickups   map[int]int // fork -> times taken
	HungryPeriods int

	// Buffer
	Produced      int
	Consumed      int
	ProducerWaits int
	ConsumerWaits int
	MaxOccupancy  int
	LastOccupancy int

	AgentStarts map[string]int
	Interrupted bool
}

// FromEvents folds a run's events into a Report.
func FromEvents(events []log.LogEvent) *Report {
	r := &Report{
		Meals:       make(map[int]int),
		ForkPickups: make(map[int]int),
		AgentStarts: make(map[string]int),
		Events:      len(events),
		Interrupted: true,
	}

	for _, e := range events {
		if r.RunID == "" {
			r.RunID = e.RunID
		}
		switch e.Event {
		case log.EventRunStarted:
			r.Mode = e.Mode
		case log.EventRunComplete:
			r.Interrupted = e.Error != ""
		case log.EventMealCompleted:
			if e.ID != nil && e.Meals > r.Meals[*e.ID] {
				r.Meals[*e.ID] = e.Meals
			}
		case log.EventForkState:
			if e.ID != nil && e.State == "held" {
				r.ForkPickups[*e.ID]++
			}
		case log.EventPhilosopherState:
			if e.State == "hungry" {
				r.HungryPeriods++
			}
		case log.EventItemProduced:
			r.Produced++
		case log.EventItemConsumed:
			r.Consumed++
		case log.EventBufferWait:
			if e.Side == "produced" {
				r.ProducerWaits++
			} else {
				r.ConsumerWaits++
			}
		case log.EventBufferOccupancy:
			if e.Count != nil {
				r.LastOccupancy = *e.Count
				if *e.Count > r.MaxOccupancy {
					r.MaxOccupancy = *e.Count
				}
			}
		case log.EventAgentStarted:
			r.AgentStarts[e.Agent]++
		}
	}

	for _, m := range r.Meals {
		r.TotalMeals += m
	}
	r.Duration = computeDuration(events)
	return r
}

// Spread returns the fewest and most meals any seat had, and the mean.
func (r *Report) Spread() (lo, hi int, mean float64) {
	if len(r.Meals) == 0 {
		return 0, 0, 0
	}
	lo = -1
	for _, m := range r.Meals {
		if lo < 0 || m < lo {
			lo = m
		}
		if m > hi {
			hi = m
		}
	}
	return lo, hi, float64(r.TotalMeals) / float64(len(r.Meals))
}

// GenerateReport reads runDir's event log, builds the Report and writes it
// to runDir/report.md.
func GenerateReport(runDir string) (*Report, error) {
	events, err := log.ReadEvents(filepath.Join(runDir, log.EventsFile))
	if err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("no events recorded in %s", runDir)
	}

	r := FromEvents(events)
	if writeErr := WriteReport(runDir, r); writeErr != nil {
		return r, fmt.Errorf("writing report: %w", writeErr)
	}
	return r, nil
}

// FormatReport produces a terminal-friendly, human-readable summary string.
func FormatReport(r *Report) string {
	var b strings.Builder

	b.WriteString("========================================\n")
	b.WriteString("  Mesa Run Report\n")
	b.WriteString("========================================\n")
	b.WriteString("\n")

	if r.RunID != "" {
		fmt.Fprintf(&b, "Run:         %s\n", r.RunID)
	}
	if r.Mode != "" {
		fmt.Fprintf(&b, "Mode:        %s\n", r.Mode)
	}
	if r.Duration > 0 {
		fmt.Fprintf(&b, "Duration:    %s\n", formatDuration(r.Duration))
	}
	fmt.Fprintf(&b, "Events:      %d\n", r.Events)
	if r.Interrupted {
		b.WriteString("Status:      interrupted\n")
	}
	b.WriteString("\n")

	if len(r.Meals) > 0 || r.HungryPeriods > 0 {
		lo, hi, mean := r.Spread()
		fmt.Fprintf(&b, "Meals:       %d total (min %d, max %d, mean %.1f)\n", r.TotalMeals, lo, hi, mean)
		for _, seat := range sortedKeys(r.Meals) {
			fmt.Fprintf(&b, "  Seat %-3d   %d\n", seat, r.Meals[seat])
		}
		if len(r.ForkPickups) > 0 {
			b.WriteString("Fork pickups:\n")
			for _, fork := range sortedKeys(r.ForkPickups) {
				fmt.Fprintf(&b, "  Fork %-3d   %d\n", fork, r.ForkPickups[fork])
			}
		}
		b.WriteString("\n")
	}

	if r.Produced > 0 || r.Consumed > 0 {
		fmt.Fprintf(&b, "Produced:    %d\n", r.Produced)
		fmt.Fprintf(&b, "Consumed:    %d\n", r.Consumed)
		fmt.Fprintf(&b, "Left over:   %d\n", r.LastOccupancy)
		fmt.Fprintf(&b, "Peak fill:   %d\n", r.MaxOccupancy)
		fmt.Fprintf(&b, "Waits:       %d producer, %d consumer\n", r.ProducerWaits, r.ConsumerWaits)
		b.WriteString("\n")
	}

	if len(r.AgentStarts) > 0 {
		b.WriteString("Agent starts:\n")
		kinds := make([]string, 0, len(r.AgentStarts))
		for k := range r.AgentStarts {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(&b, "  %-12s %d\n", k, r.AgentStarts[k])
		}
		b.WriteString("\n")
	}

	b.WriteString("========================================\n")

	return b.String()
}

// WriteReport writes the formatted report to {runDir}/report.md.
// Creates the run directory if it does not exist.
func WriteReport(runDir string, report *Report) error {
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("creating run directory: %w", err)
	}

	content := FormatReport(report)
	path := filepath.Join(runDir, "report.md")

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing report file: %w", err)
	}

	return nil
}

// LatestRun returns the newest timestamp-named directory in runsDir, or ""
// when there is none.
func LatestRun(runsDir string) (string, error) {
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading runs directory: %w", err)
	}
	latest := ""
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, parseErr := time.Parse(log.RunTimestampLayout, entry.Name()); parseErr != nil {
			continue
		}
		if entry.Name() > latest {
			latest = entry.Name()
		}
	}
	return latest, nil
}

func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// computeDuration calculates the total run duration from log events.
// It looks for the first run_started event and uses either the last
// run_complete event or the last event's timestamp as the end point.
func computeDuration(events []log.LogEvent) time.Duration {
	var start time.Time
	var end time.Time

	for _, e := range events {
		if e.Event == log.EventRunStarted && start.IsZero() {
			start = e.Time
		}
		if !e.Time.IsZero() {
			end = e.Time
		}
		if e.Event == log.EventRunComplete {
			end = e.Time
		}
	}

	if start.IsZero() || end.IsZero() {
		return 0
	}

	d := end.Sub(start)
	if d < 0 {
		return 0
	}

	return d
}

// formatDuration produces a human-readable duration string such as "5m 32s"
// or "1h 12m 5s". Sub-second durations are shown in milliseconds.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
