package tui

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/berth-dev/mesa/internal/observe"
)

// State is everything the dashboard draws about agents. The Bridge keeps
// the live copy; the TUI takes snapshots of it on every tick.
type State struct {
	Philosophers []observe.PhilosopherState
	Meals        []int
	Forks        []observe.ForkState
	Occupancy    int
	Produced     int
	Consumed     int
	ProducerWait int
	ConsumerWait int
	Running      map[string]bool
	Status       string
}

// TotalMeals sums meals across seats.
func (s State) TotalMeals() int {
	n := 0
	for _, m := range s.Meals {
		n += m
	}
	return n
}

// Bridge is the observer the core reports to while the TUI is up. It folds
// events into a State and queues one text line per event for the log tab.
// Agents never block on it: when the queue is full, lines are dropped and
// counted, but the State is always current.
type Bridge struct {
	mu      sync.Mutex
	state   State
	lines   chan string
	dropped atomic.Int64
	closed  bool
}

var _ observe.Observer = (*Bridge)(nil)

// NewBridge creates a Bridge for a table of seats and a line queue of
// backlog entries.
func NewBridge(seats, backlog int) *Bridge {
	return &Bridge{
		state: State{
			Philosophers: make([]observe.PhilosopherState, seats),
			Meals:        make([]int, seats),
			Forks:        make([]observe.ForkState, seats),
			Running:      make(map[string]bool),
			Status:       "Ready",
		},
		lines: make(chan string, backlog),
	}
}

// Lines returns the queue of event lines. It is closed by Close.
func (b *Bridge) Lines() <-chan string {
	return b.lines
}

// Dropped returns how many lines did not fit in the queue.
func (b *Bridge) Dropped() int {
	return int(b.dropped.Load())
}

// Close stops queueing lines and closes the Lines channel.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.lines)
	}
}

// Snapshot returns a copy of the current State.
func (b *Bridge) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.state
	s.Philosophers = append([]observe.PhilosopherState(nil), b.state.Philosophers...)
	s.Meals = append([]int(nil), b.state.Meals...)
	s.Forks = append([]observe.ForkState(nil), b.state.Forks...)
	s.Running = make(map[string]bool, len(b.state.Running))
	for k, v := range b.state.Running {
		s.Running[k] = v
	}
	return s
}

// emit records line as the status and queues it. Must be called with b.mu
// held.
func (b *Bridge) emit(line string) {
	b.state.Status = line
	if b.closed {
		return
	}
	select {
	case b.lines <- line:
	default:
		b.dropped.Add(1)
	}
}

func (b *Bridge) seat(id int) bool {
	return id >= 0 && id < len(b.state.Philosophers)
}

func (b *Bridge) OnPhilosopherState(id int, state observe.PhilosopherState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seat(id) {
		b.state.Philosophers[id] = state
	}
	b.emit(fmt.Sprintf("Philosopher %d is %s", id, state))
}

func (b *Bridge) OnMealCompleted(id int, meals int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seat(id) {
		b.state.Meals[id] = meals
	}
}

func (b *Bridge) OnForkState(id int, state observe.ForkState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id >= 0 && id < len(b.state.Forks) {
		b.state.Forks[id] = state
	}
}

func (b *Bridge) OnBufferOccupancy(count int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Occupancy = count
}

func (b *Bridge) OnBufferWait(side observe.Side) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if side == observe.Produced {
		b.state.ProducerWait++
		b.emit("Buffer full: waiting for the consumer")
	} else {
		b.state.ConsumerWait++
		b.emit("Buffer empty: waiting for the producer")
	}
}

func (b *Bridge) OnItem(side observe.Side, agent int, value int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if side == observe.Produced {
		b.state.Produced++
		b.emit(fmt.Sprintf("Producer %d produces %d", agent, value))
	} else {
		b.state.Consumed++
		b.emit(fmt.Sprintf("Consumer %d consumes %d", agent, value))
	}
}

func (b *Bridge) OnAgent(kind string, running bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Running[kind] = running
	if running {
		b.emit(fmt.Sprintf("Started %s", kind))
	} else {
		b.emit(fmt.Sprintf("Stopped %s", kind))
	}
}
