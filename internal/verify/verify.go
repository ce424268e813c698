// Package verify explores every interleaving of the fork acquisition
// protocol for a small table and reports whether any of them deadlocks or
// leaves a philosopher unable to ever eat again.
//
// Each philosopher is modelled as a four-step program:
//
//	thinking -> hungry -> holding first fork -> eating -> thinking
//
// Moving to "holding first fork" requires the first fork to be free, moving
// to "eating" requires the second. Fork ownership is derived from the
// program counters, so a state is just the vector of counters.
package verify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/berth-dev/mesa/internal/table"
)

// MaxSeats bounds the table size the checker accepts. 4^10 states is the
// most it will ever enumerate.
const MaxSeats = 10

type phase uint32

const (
	thinking phase = iota
	hungry
	holdingFirst
	eating
)

var phaseNames = [...]string{"T", "H", "1", "E"}

type state uint32

func (s state) phase(seat int) phase {
	return phase(s>>(2*uint(seat))) & 3
}

func (s state) with(seat int, p phase) state {
	shift := 2 * uint(seat)
	return s&^(3<<shift) | state(p)<<shift
}

// Step is one transition in a trace.
type Step struct {
	Seat   int
	Action string
}

func (s Step) String() string {
	return fmt.Sprintf("philosopher %d %s", s.Seat, s.Action)
}

// Result summarizes one exploration.
type Result struct {
	Seats       int
	Policy      table.Policy
	States      int
	Transitions int
	// Deadlock is the shortest path from the initial state to a state with
	// no enabled move, or nil when none exists.
	Deadlock []Step
	// DeadlockState renders the stuck state, one letter per seat:
	// T thinking, H hungry, 1 holding first fork, E eating.
	DeadlockState string
	// LockedOut lists seats that, from some reachable state, can never
	// reach eating again.
	LockedOut []int
}

// OK reports a protocol with no deadlock and no seat locked out. It does
// not bound how often neighbours eat while a seat waits; that comes from
// the arrival-order fork queue in package table.
func (r Result) OK() bool {
	return r.Deadlock == nil && len(r.LockedOut) == 0
}

func (r Result) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s seats=%d states=%d transitions=%d", r.Policy, r.Seats, r.States, r.Transitions)
	if r.OK() {
		b.WriteString(" ok")
		return b.String()
	}
	if r.Deadlock != nil {
		fmt.Fprintf(&b, " DEADLOCK at [%s] after %d steps", r.DeadlockState, len(r.Deadlock))
	}
	if len(r.LockedOut) > 0 {
		fmt.Fprintf(&b, " locked-out=%v", r.LockedOut)
	}
	return b.String()
}

// ErrSeats is returned for a table size the checker does not handle.
var ErrSeats = errors.New("seats out of range")

type model struct {
	seats  int
	first  []int
	second []int
}

func newModel(seats int, policy table.Policy) model {
	m := model{seats: seats, first: make([]int, seats), second: make([]int, seats)}
	for i := 0; i < seats; i++ {
		m.first[i], m.second[i] = policy.Order(i, seats)
	}
	return m
}

// held returns which forks are taken in s.
func (m model) held(s state) []bool {
	out := make([]bool, m.seats)
	for i := 0; i < m.seats; i++ {
		switch s.phase(i) {
		case holdingFirst:
			out[m.first[i]] = true
		case eating:
			out[m.first[i]] = true
			out[m.second[i]] = true
		}
	}
	return out
}

type move struct {
	next state
	step Step
}

func (m model) moves(s state) []move {
	held := m.held(s)
	var out []move
	for i := 0; i < m.seats; i++ {
		switch s.phase(i) {
		case thinking:
			out = append(out, move{s.with(i, hungry), Step{i, "gets hungry"}})
		case hungry:
			if !held[m.first[i]] {
				out = append(out, move{s.with(i, holdingFirst), Step{i, fmt.Sprintf("takes fork %d", m.first[i])}})
			}
		case holdingFirst:
			if !held[m.second[i]] {
				out = append(out, move{s.with(i, eating), Step{i, fmt.Sprintf("takes fork %d and eats", m.second[i])}})
			}
		case eating:
			out = append(out, move{s.with(i, thinking), Step{i, "puts both forks down"}})
		}
	}
	return out
}

func (m model) render(s state) string {
	parts := make([]string, m.seats)
	for i := range parts {
		parts[i] = phaseNames[s.phase(i)]
	}
	return strings.Join(parts, " ")
}

// Check explores every state reachable from all philosophers thinking.
// Unlike Table, it accepts the naive policy so its deadlock can be shown.
func Check(seats int, policy table.Policy) (Result, error) {
	if seats < 2 || seats > MaxSeats {
		return Result{}, fmt.Errorf("%w: %d (want 2..%d)", ErrSeats, seats, MaxSeats)
	}
	m := newModel(seats, policy)
	res := Result{Seats: seats, Policy: policy}

	index := map[state]int{0: 0}
	states := []state{0}
	parent := []int{-1}
	via := []Step{{}}
	var succ [][]int

	deadlockAt := -1
	for cur := 0; cur < len(states); cur++ {
		moves := m.moves(states[cur])
		if len(moves) == 0 && deadlockAt < 0 {
			deadlockAt = cur
		}
		edges := make([]int, 0, len(moves))
		for _, mv := range moves {
			idx, seen := index[mv.next]
			if !seen {
				idx = len(states)
				index[mv.next] = idx
				states = append(states, mv.next)
				parent = append(parent, cur)
				via = append(via, mv.step)
			}
			edges = append(edges, idx)
		}
		succ = append(succ, edges)
		res.Transitions += len(edges)
	}
	res.States = len(states)

	if deadlockAt >= 0 {
		res.DeadlockState = m.render(states[deadlockAt])
		var trace []Step
		for at := deadlockAt; parent[at] >= 0; at = parent[at] {
			trace = append(trace, via[at])
		}
		for i, j := 0, len(trace)-1; i < j; i, j = i+1, j-1 {
			trace[i], trace[j] = trace[j], trace[i]
		}
		res.Deadlock = trace
		if res.Deadlock == nil {
			res.Deadlock = []Step{}
		}
	}

	res.LockedOut = lockedOut(m, states, succ)
	return res, nil
}

// lockedOut returns the seats for which some reachable state has no path to
// that seat eating.
func lockedOut(m model, states []state, succ [][]int) []int {
	pred := make([][]int, len(states))
	for from, edges := range succ {
		for _, to := range edges {
			pred[to] = append(pred[to], from)
		}
	}

	var out []int
	for seat := 0; seat < m.seats; seat++ {
		canEat := make([]bool, len(states))
		var queue []int
		for i, s := range states {
			if s.phase(seat) == eating {
				canEat[i] = true
				queue = append(queue, i)
			}
		}
		for len(queue) > 0 {
			at := queue[0]
			queue = queue[1:]
			for _, from := range pred[at] {
				if !canEat[from] {
					canEat[from] = true
					queue = append(queue, from)
				}
			}
		}
		for _, ok := range canEat {
			if !ok {
				out = append(out, seat)
				break
			}
		}
	}
	return out
}

// CheckAll runs Check for every seat count and policy given.
func CheckAll(seats []int, policies []table.Policy) ([]Result, error) {
	var out []Result
	for _, p := range policies {
		for _, n := range seats {
			r, err := Check(n, p)
			if err != nil {
				return out, err
			}
			out = append(out, r)
		}
	}
	return out, nil
}
