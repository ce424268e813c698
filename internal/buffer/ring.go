// Package buffer implements a blocking bounded FIFO and the producer and
// consumer agents that hand values through it.
package buffer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/berth-dev/mesa/internal/observe"
)

// ErrInterrupted is returned by Push or Pop when ctx ends before the
// operation could complete. The ring is left untouched.
var ErrInterrupted = errors.New("interrupted while blocked")

// ErrRunning is returned when an agent's Run is already in progress.
var ErrRunning = errors.New("agent is already running")

// InvariantError reports a ring whose bookkeeping no longer adds up. It is
// raised as a panic value.
type InvariantError struct {
	Count    int
	Capacity int
	Op       string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("ring %s: count %d outside [0, %d]", e.Op, e.Count, e.Capacity)
}

// Ring is a fixed-capacity FIFO of ints. Push blocks while it is full and
// Pop blocks while it is empty. One mutex guards the whole ring.
type Ring struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond
	slots    []int
	head     int // next read
	tail     int // next write
	count    int
	obs      observe.Observer
}

// NewRing creates an empty ring. It panics if capacity < 1.
func NewRing(capacity int, obs observe.Observer) *Ring {
	if capacity < 1 {
		panic(fmt.Sprintf("buffer: capacity must be at least 1, got %d", capacity))
	}
	r := &Ring{
		slots: make([]int, capacity),
		obs:   observe.OrNop(obs),
	}
	r.notFull = sync.NewCond(&r.mu)
	r.notEmpty = sync.NewCond(&r.mu)
	return r
}

// Push appends v, blocking while the ring is full.
func (r *Ring) Push(ctx context.Context, v int) error {
	return r.push(ctx, -1, v)
}

// Pop removes the oldest value, blocking while the ring is empty.
func (r *Ring) Pop(ctx context.Context) (int, error) {
	return r.pop(ctx, -1)
}

func (r *Ring) push(ctx context.Context, agent, v int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.await(ctx, r.notFull, observe.Produced, r.full); err != nil {
		return err
	}
	r.put(agent, v)
	return nil
}

func (r *Ring) pop(ctx context.Context, agent int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.await(ctx, r.notEmpty, observe.Consumed, r.empty); err != nil {
		return 0, err
	}
	return r.take(agent), nil
}

// await waits on cond while blocked() holds. Every wake-up re-checks both
// the condition and ctx, so a waiter never acts on a slot another waiter
// already claimed. Must be called with r.mu held.
func (r *Ring) await(ctx context.Context, cond *sync.Cond, side observe.Side, blocked func() bool) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInterrupted, err)
	}
	if !blocked() {
		return nil
	}

	r.obs.OnBufferWait(side)
	stop := context.AfterFunc(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		cond.Broadcast()
	})
	defer stop()

	for blocked() {
		cond.Wait()
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrInterrupted, err)
		}
	}
	return nil
}

func (r *Ring) full() bool  { return r.count == len(r.slots) }
func (r *Ring) empty() bool { return r.count == 0 }

// put writes at tail. Must be called with r.mu held and room available.
func (r *Ring) put(agent, v int) {
	r.slots[r.tail] = v
	r.tail = (r.tail + 1) % len(r.slots)
	r.count++
	r.check("push")

	r.obs.OnItem(observe.Produced, agent, v)
	r.obs.OnBufferOccupancy(r.count)
	r.notEmpty.Broadcast()
}

// take reads at head. Must be called with r.mu held and an item available.
func (r *Ring) take(agent int) int {
	v := r.slots[r.head]
	r.slots[r.head] = 0
	r.head = (r.head + 1) % len(r.slots)
	r.count--
	r.check("pop")

	r.obs.OnItem(observe.Consumed, agent, v)
	r.obs.OnBufferOccupancy(r.count)
	r.notFull.Broadcast()
	return v
}

func (r *Ring) check(op string) {
	if r.count < 0 || r.count > len(r.slots) {
		panic(&InvariantError{Count: r.count, Capacity: len(r.slots), Op: op})
	}
}

// TryPush appends v if there is room and reports whether it did.
func (r *Ring) TryPush(v int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full() {
		return false
	}
	r.put(-1, v)
	return true
}

// TryPop removes the oldest value if there is one.
func (r *Ring) TryPop() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.empty() {
		return 0, false
	}
	return r.take(-1), true
}

// Len returns the number of unread values.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Cap returns the ring's capacity.
func (r *Ring) Cap() int {
	return len(r.slots)
}

// Snapshot is a copy of the ring's bookkeeping for display.
type Snapshot struct {
	Items    []int // unread values, oldest first
	Head     int
	Tail     int
	Count    int
	Capacity int
}

// Snapshot copies the ring's current contents.
func (r *Ring) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]int, r.count)
	for i := range items {
		items[i] = r.slots[(r.head+i)%len(r.slots)]
	}
	return Snapshot{
		Items:    items,
		Head:     r.head,
		Tail:     r.tail,
		Count:    r.count,
		Capacity: len(r.slots),
	}
}
