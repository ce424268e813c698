// forks.go implements the ring of exclusive forks.
package table

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/berth-dev/mesa/internal/observe"
)

// NoHolder is the holder of a free fork.
const NoHolder = -1

type fork struct {
	sem    *semaphore.Weighted
	mu     sync.Mutex // guards holder and serializes this fork's observer events
	holder int
}

// ForkSet is N exclusive forks arranged in a ring. Fork i sits between
// philosophers i-1 and i.
type ForkSet struct {
	forks []*fork
	obs   observe.Observer
}

// NewForkSet creates n free forks. It panics if n < 2: a ring needs at least
// two seats for anyone to share anything.
func NewForkSet(n int, obs observe.Observer) *ForkSet {
	if n < 2 {
		panic(fmt.Sprintf("table: fork ring needs at least 2 forks, got %d", n))
	}
	forks := make([]*fork, n)
	for i := range forks {
		forks[i] = &fork{
			sem:    semaphore.NewWeighted(1),
			holder: NoHolder,
		}
	}
	return &ForkSet{
		forks: forks,
		obs:   observe.OrNop(obs),
	}
}

// Len returns the number of forks.
func (s *ForkSet) Len() int {
	return len(s.forks)
}

// Acquire blocks until fork id is free and hands it to owner. Waiters are
// served in arrival order. If ctx ends first, nothing changes and the
// returned error wraps ErrInterrupted.
func (s *ForkSet) Acquire(ctx context.Context, id, owner int) error {
	f := s.forks[id]
	if err := f.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: fork %d: %w", ErrInterrupted, id, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.holder != NoHolder {
		panic(&InvariantError{Fork: id, Owner: owner, Holder: f.holder, Op: "acquired"})
	}
	f.holder = owner
	s.obs.OnForkState(id, observe.ForkHeld)
	return nil
}

// Release returns fork id, which owner must hold, and wakes at most one
// waiter. Releasing a fork owner does not hold panics with *InvariantError.
func (s *ForkSet) Release(id, owner int) {
	f := s.forks[id]

	f.mu.Lock()
	if f.holder != owner {
		holder := f.holder
		f.mu.Unlock()
		panic(&InvariantError{Fork: id, Owner: owner, Holder: holder, Op: "released"})
	}
	f.holder = NoHolder
	s.obs.OnForkState(id, observe.ForkFree)
	f.mu.Unlock()

	f.sem.Release(1)
}

// Holder returns the philosopher holding fork id, or NoHolder.
func (s *ForkSet) Holder(id int) int {
	f := s.forks[id]
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.holder
}

// State is a read-only projection of fork id for display.
func (s *ForkSet) State(id int) observe.ForkState {
	if s.Holder(id) == NoHolder {
		return observe.ForkFree
	}
	return observe.ForkHeld
}

// Snapshot returns the state of every fork.
func (s *ForkSet) Snapshot() []observe.ForkState {
	out := make([]observe.ForkState, len(s.forks))
	for i := range s.forks {
		out[i] = s.State(i)
	}
	return out
}
