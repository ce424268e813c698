// Package ui provides terminal UI components for mesa.
// This file implements the live display shown during dine and buffer runs.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/berth-dev/mesa/internal/observe"
)

// redrawInterval bounds how often the TTY panel is repainted. Agents with
// zero delays emit far more events than a terminal can show.
const redrawInterval = 100 * time.Millisecond

// ProgressDisplay is an observer that keeps a live summary of a run on the
// terminal. On a TTY it repaints a panel in place; otherwise it prints one
// line per transition when Verbose is set and only a summary at the end
// when it is not.
type ProgressDisplay struct {
	Verbose bool

	mu         sync.Mutex
	out        io.Writer
	title      string
	isTTY      bool
	linesDrawn int
	started    time.Time
	stop       chan struct{}
	done       chan struct{}

	states    []observe.PhilosopherState
	meals     []int
	forks     []observe.ForkState
	capacity  int
	occupancy int
	produced  int
	consumed  int
	waits     [2]int
	status    string
	agents    map[string]bool
	pending   []string // verbose lines not yet printed
}

var _ observe.Observer = (*ProgressDisplay)(nil)

// NewProgressDisplay creates a display for seats philosophers and a buffer
// of the given capacity writing to stdout. Either may be zero when that
// half of the system is not in use.
func NewProgressDisplay(title string, seats, capacity int) *ProgressDisplay {
	return NewDisplayTo(os.Stdout, term.IsTerminal(int(os.Stdout.Fd())), title, seats, capacity)
}

// NewDisplayTo is NewProgressDisplay with an explicit writer and TTY mode.
func NewDisplayTo(out io.Writer, isTTY bool, title string, seats, capacity int) *ProgressDisplay {
	return &ProgressDisplay{
		out:      out,
		isTTY:    isTTY,
		title:    title,
		states:   make([]observe.PhilosopherState, seats),
		meals:    make([]int, seats),
		forks:    make([]observe.ForkState, seats),
		capacity: capacity,
		agents:   make(map[string]bool),
	}
}

// Start draws the initial display and begins repainting it: the panel on a
// TTY, queued transition lines in verbose plain mode.
func (p *ProgressDisplay) Start() {
	p.mu.Lock()
	p.started = time.Now()
	if !p.isTTY {
		fmt.Fprintf(p.out, "%s\n", p.title)
		if !p.Verbose {
			p.mu.Unlock()
			return
		}
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	p.mu.Unlock()
	p.paint()

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(redrawInterval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stop:
				return
			case <-ticker.C:
				p.paint()
			}
		}
	}()
}

// Finish stops repainting, draws the final state and prints a summary line.
func (p *ProgressDisplay) Finish() {
	if p.stop != nil {
		close(p.stop)
		<-p.done
		p.stop = nil
	}

	p.mu.Lock()
	out := p.frame()
	elapsed := time.Since(p.started).Round(time.Millisecond)
	var parts []string
	if len(p.meals) > 0 {
		parts = append(parts, fmt.Sprintf("%d meals", sum(p.meals)))
	}
	if p.capacity > 0 {
		parts = append(parts, fmt.Sprintf("%d produced, %d consumed, %d left", p.produced, p.consumed, p.occupancy))
	}
	p.mu.Unlock()

	fmt.Fprintf(p.out, "%s\nDone in %s: %s\n", out, elapsed, strings.Join(parts, "; "))
}

// grow makes room for seat or fork id. Must be called with p.mu held.
func (p *ProgressDisplay) grow(id int) {
	for len(p.states) <= id {
		p.states = append(p.states, observe.Thinking)
		p.meals = append(p.meals, 0)
		p.forks = append(p.forks, observe.ForkFree)
	}
}

func (p *ProgressDisplay) note(line string) {
	p.status = line
	if !p.isTTY && p.Verbose {
		p.pending = append(p.pending, line)
	}
}

func (p *ProgressDisplay) OnPhilosopherState(id int, state observe.PhilosopherState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.grow(id)
	p.states[id] = state
	p.note(fmt.Sprintf("Philosopher %d is %s", id, state))
}

func (p *ProgressDisplay) OnMealCompleted(id int, meals int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.grow(id)
	p.meals[id] = meals
}

func (p *ProgressDisplay) OnForkState(id int, state observe.ForkState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.grow(id)
	p.forks[id] = state
}

func (p *ProgressDisplay) OnBufferOccupancy(count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.occupancy = count
}

func (p *ProgressDisplay) OnBufferWait(side observe.Side) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waits[side]++
	if side == observe.Produced {
		p.note("Buffer full, producer waiting for the consumer")
	} else {
		p.note("Buffer empty, consumer waiting for the producer")
	}
}

func (p *ProgressDisplay) OnItem(side observe.Side, agent int, value int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if side == observe.Produced {
		p.produced++
		p.note(fmt.Sprintf("Producer %d produces %d", agent, value))
	} else {
		p.consumed++
		p.note(fmt.Sprintf("Consumer %d consumes %d", agent, value))
	}
}

func (p *ProgressDisplay) OnAgent(kind string, running bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.agents[kind] = running
	if running {
		p.note(fmt.Sprintf("Started %s", kind))
	} else {
		p.note(fmt.Sprintf("Stopped %s", kind))
	}
}

// paint writes the next frame. Callbacks only touch p.mu, never the
// writer, so agents holding a fork or buffer lock are not held up by a slow
// terminal.
func (p *ProgressDisplay) paint() {
	p.mu.Lock()
	out := p.frame()
	p.mu.Unlock()
	if out != "" {
		fmt.Fprint(p.out, out)
	}
}

// frame renders what the next paint writes: the panel, moved up over the
// previous one, on a TTY, and the queued lines otherwise. Must be called
// with p.mu held.
func (p *ProgressDisplay) frame() string {
	var buf strings.Builder
	if !p.isTTY {
		for _, line := range p.pending {
			buf.WriteString(line)
			buf.WriteString("\n")
		}
		p.pending = nil
		return buf.String()
	}

	if p.linesDrawn > 0 {
		fmt.Fprintf(&buf, "\033[%dA", p.linesDrawn)
	}
	lines := p.panel()
	for _, line := range lines {
		buf.WriteString("\033[2K")
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	p.linesDrawn = len(lines)
	return buf.String()
}

// panel returns the display lines. Must be called with p.mu held.
func (p *ProgressDisplay) panel() []string {
	lines := []string{
		fmt.Sprintf("\033[1m%s\033[0m  \033[90m%s\033[0m", p.title, formatDuration(time.Since(p.started))),
		"",
	}

	for i, s := range p.states {
		lines = append(lines, fmt.Sprintf("  %s P%-2d %-8s \033[90mmeals\033[0m %d", stateIcon(s), i, s, p.meals[i]))
	}
	if len(p.forks) > 0 {
		var b strings.Builder
		b.WriteString("  forks ")
		for _, f := range p.forks {
			if f == observe.ForkHeld {
				b.WriteString(" \033[33m■\033[0m")
			} else {
				b.WriteString(" \033[90m□\033[0m")
			}
		}
		lines = append(lines, b.String(), "")
	}

	if p.capacity > 0 {
		lines = append(lines,
			fmt.Sprintf("  buffer %s %d/%d", Gauge(p.occupancy, p.capacity), p.occupancy, p.capacity),
			fmt.Sprintf("  \033[90mproduced\033[0m %d  \033[90mconsumed\033[0m %d  \033[90mwaits\033[0m %d/%d",
				p.produced, p.consumed, p.waits[observe.Produced], p.waits[observe.Consumed]),
			"",
		)
	}

	lines = append(lines, fmt.Sprintf("  \033[90m%s\033[0m", p.status))
	return lines
}

// Gauge draws a fixed-width occupancy bar such as [■■■□□□□].
func Gauge(count, capacity int) string {
	if capacity <= 0 {
		return "[]"
	}
	count = max(0, min(count, capacity))
	return "[" + strings.Repeat("■", count) + strings.Repeat("□", capacity-count) + "]"
}

// stateIcon returns the colored marker for a philosopher state.
func stateIcon(s observe.PhilosopherState) string {
	switch s {
	case observe.Eating:
		return "\033[32m●\033[0m" // green dot
	case observe.Hungry:
		return "\033[33m◐\033[0m" // yellow half
	default:
		return "\033[90m○\033[0m" // dim circle
	}
}

func sum(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", h, m, s)
}
