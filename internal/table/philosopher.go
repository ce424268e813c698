// philosopher.go implements the think/acquire/eat/release agent loop.
package table

import (
	"context"
	"sync/atomic"

	"github.com/berth-dev/mesa/internal/observe"
	"github.com/berth-dev/mesa/internal/pace"
)

// Philosopher is one seat at the table. Its forks are references into the
// shared ForkSet; it owns nothing but its meal counter.
type Philosopher struct {
	ID     int
	first  int
	second int
	forks  *ForkSet
	think  *pace.Delay
	eat    *pace.Delay
	limit  int
	obs    observe.Observer
	tally  *Tally
	meals  atomic.Int64
	state  atomic.Int32
	active atomic.Bool
}

// PhilosopherOptions configures a single philosopher.
type PhilosopherOptions struct {
	Think *pace.Delay
	Eat   *pace.Delay
	// Meals stops the philosopher after this many meals; 0 runs until
	// cancelled.
	Meals int
	Tally *Tally
}

// NewPhilosopher seats a philosopher at seat, picking up forks in the order
// policy dictates.
func NewPhilosopher(forks *ForkSet, seat int, policy Policy, obs observe.Observer, opts PhilosopherOptions) *Philosopher {
	first, second := policy.Order(seat, forks.Len())
	return &Philosopher{
		ID:     seat,
		first:  first,
		second: second,
		forks:  forks,
		think:  opts.Think,
		eat:    opts.Eat,
		limit:  opts.Meals,
		obs:    observe.OrNop(obs),
		tally:  opts.Tally,
	}
}

// Meals returns how many meals this philosopher has finished.
func (p *Philosopher) Meals() int {
	return int(p.meals.Load())
}

// State returns the philosopher's current phase.
func (p *Philosopher) State() observe.PhilosopherState {
	return observe.PhilosopherState(p.state.Load())
}

// Done reports whether the meal limit has been reached.
func (p *Philosopher) Done() bool {
	return p.limit > 0 && p.Meals() >= p.limit
}

func (p *Philosopher) setState(s observe.PhilosopherState) {
	p.state.Store(int32(s))
	p.obs.OnPhilosopherState(p.ID, s)
}

// Run cycles think, pick up, eat, put down until ctx is cancelled or the
// meal limit is reached. Cancellation is observed at the top of each cycle,
// during every delay and right after every fork wait; whichever point it
// hits, the philosopher leaves holding no forks. Run always returns nil:
// an interrupted wait is a normal way to stop.
func (p *Philosopher) Run(ctx context.Context) error {
	if !p.active.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer p.active.Store(false)

	p.setState(observe.Thinking)
	for {
		if ctx.Err() != nil || p.Done() {
			return nil
		}
		if err := p.think.Wait(ctx); err != nil {
			return nil
		}

		p.setState(observe.Hungry)
		if !p.pickUp(ctx) {
			p.setState(observe.Thinking)
			return nil
		}

		p.setState(observe.Eating)
		if err := p.eat.Wait(ctx); err != nil {
			p.putDown()
			p.setState(observe.Thinking)
			return nil
		}
		p.putDown()

		meals := p.meals.Add(1)
		if p.tally != nil {
			p.tally.Record(p.ID)
		}
		p.obs.OnMealCompleted(p.ID, int(meals))
		p.setState(observe.Thinking)
	}
}

// pickUp takes both forks in policy order. It returns false, holding
// nothing, if ctx is cancelled at either wait.
func (p *Philosopher) pickUp(ctx context.Context) bool {
	if err := p.forks.Acquire(ctx, p.first, p.ID); err != nil {
		return false
	}
	if ctx.Err() != nil {
		p.forks.Release(p.first, p.ID)
		return false
	}
	if err := p.forks.Acquire(ctx, p.second, p.ID); err != nil {
		p.forks.Release(p.first, p.ID)
		return false
	}
	if ctx.Err() != nil {
		p.putDown()
		return false
	}
	return true
}

func (p *Philosopher) putDown() {
	p.forks.Release(p.second, p.ID)
	p.forks.Release(p.first, p.ID)
}
