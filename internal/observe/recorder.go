package observe

import (
	"fmt"
	"sync"
)

// EventKind identifies which Observer callback produced an Event.
type EventKind int

const (
	KindPhilosopherState EventKind = iota
	KindMealCompleted
	KindForkState
	KindBufferOccupancy
	KindBufferWait
	KindItem
	KindAgent
)

// Event is one recorded observer callback. Only the fields relevant to Kind
// are set.
type Event struct {
	Kind        EventKind
	ID          int
	Philosopher PhilosopherState
	Fork        ForkState
	Count       int
	Side        Side
	Value       int
	Agent       string
	Running     bool
}

// Recorder keeps every event in arrival order and checks the invariants an
// outside observer can see: a fork is never reported held twice without a
// free in between, and occupancy stays within [0, capacity].
type Recorder struct {
	mu         sync.Mutex
	capacity   int
	events     []Event
	forks      map[int]ForkState
	states     map[int]PhilosopherState
	meals      map[int]int
	violations []string
}

// NewRecorder creates a Recorder. capacity bounds OnBufferOccupancy; pass 0
// to skip the bound check.
func NewRecorder(capacity int) *Recorder {
	return &Recorder{
		capacity: capacity,
		forks:    make(map[int]ForkState),
		states:   make(map[int]PhilosopherState),
		meals:    make(map[int]int),
	}
}

func (r *Recorder) record(e Event) {
	r.events = append(r.events, e)
}

func (r *Recorder) violate(format string, args ...any) {
	r.violations = append(r.violations, fmt.Sprintf(format, args...))
}

func (r *Recorder) OnPhilosopherState(id int, state PhilosopherState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, seen := r.states[id]
	if seen && !validTransition(prev, state) {
		r.violate("philosopher %d: %s -> %s", id, prev, state)
	}
	r.states[id] = state
	r.record(Event{Kind: KindPhilosopherState, ID: id, Philosopher: state})
}

// validTransition allows the cycle plus the early return to thinking that an
// interrupted philosopher reports.
func validTransition(from, to PhilosopherState) bool {
	switch from {
	case Thinking:
		return to == Hungry || to == Thinking
	case Hungry:
		return to == Eating || to == Thinking
	case Eating:
		return to == Thinking
	}
	return false
}

func (r *Recorder) OnMealCompleted(id int, meals int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if meals != r.meals[id]+1 {
		r.violate("philosopher %d: meal count jumped %d -> %d", id, r.meals[id], meals)
	}
	r.meals[id] = meals
	r.record(Event{Kind: KindMealCompleted, ID: id, Count: meals})
}

func (r *Recorder) OnForkState(id int, state ForkState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.forks[id] == state {
		r.violate("fork %d: reported %s twice", id, state)
	}
	r.forks[id] = state
	r.record(Event{Kind: KindForkState, ID: id, Fork: state})
}

func (r *Recorder) OnBufferOccupancy(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if count < 0 || (r.capacity > 0 && count > r.capacity) {
		r.violate("buffer occupancy %d outside [0, %d]", count, r.capacity)
	}
	r.record(Event{Kind: KindBufferOccupancy, Count: count})
}

func (r *Recorder) OnBufferWait(side Side) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Event{Kind: KindBufferWait, Side: side})
}

func (r *Recorder) OnItem(side Side, agent int, value int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Event{Kind: KindItem, Side: side, ID: agent, Value: value})
}

func (r *Recorder) OnAgent(kind string, running bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Event{Kind: KindAgent, Agent: kind, Running: running})
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Violations returns every invariant breach seen so far.
func (r *Recorder) Violations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.violations...)
}

// Meals returns the last reported meal count for a philosopher.
func (r *Recorder) Meals(id int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.meals[id]
}

// Items returns the values reported for side, in arrival order.
func (r *Recorder) Items(side Side) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, e := range r.events {
		if e.Kind == KindItem && e.Side == side {
			out = append(out, e.Value)
		}
	}
	return out
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
