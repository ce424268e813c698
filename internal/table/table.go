// table.go seats the philosophers around a ForkSet and runs them together.
package table

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/berth-dev/mesa/internal/observe"
	"github.com/berth-dev/mesa/internal/pace"
)

// Config fixes the shape of a table. It is not changed after New.
type Config struct {
	Seats    int
	Policy   Policy
	ThinkMax time.Duration
	EatMax   time.Duration
	// Meals is the per-philosopher meal limit; 0 runs until cancelled.
	Meals int
	Seed  uint64
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var errs []error
	if c.Seats < 2 {
		errs = append(errs, fmt.Errorf("seats must be at least 2, got %d", c.Seats))
	}
	if c.ThinkMax < 0 {
		errs = append(errs, fmt.Errorf("think delay must not be negative, got %v", c.ThinkMax))
	}
	if c.EatMax < 0 {
		errs = append(errs, fmt.Errorf("eat delay must not be negative, got %v", c.EatMax))
	}
	if c.Meals < 0 {
		errs = append(errs, fmt.Errorf("meals must not be negative, got %d", c.Meals))
	}
	if !c.Policy.Safe() {
		errs = append(errs, fmt.Errorf("policy %q can deadlock; use parity or ordered", c.Policy))
	}
	return errors.Join(errs...)
}

// Table is a ring of philosophers sharing one ForkSet.
type Table struct {
	cfg          Config
	forks        *ForkSet
	philosophers []*Philosopher
	tally        *Tally
	running      atomic.Bool
}

// New builds a table from cfg. Every philosopher gets its own delay streams
// derived from cfg.Seed.
func New(cfg Config, obs observe.Observer) (*Table, error) {
	if cfg.Policy == "" {
		cfg.Policy = PolicyParity
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid table config: %w", err)
	}

	obs = observe.OrNop(obs)
	forks := NewForkSet(cfg.Seats, obs)
	tally := NewTally(cfg.Seats, cfg.Meals*cfg.Seats)

	philosophers := make([]*Philosopher, cfg.Seats)
	for i := range philosophers {
		philosophers[i] = NewPhilosopher(forks, i, cfg.Policy, obs, PhilosopherOptions{
			Think: pace.New(cfg.ThinkMax, pace.Seed(cfg.Seed, 2*i)),
			Eat:   pace.New(cfg.EatMax, pace.Seed(cfg.Seed, 2*i+1)),
			Meals: cfg.Meals,
			Tally: tally,
		})
	}

	return &Table{
		cfg:          cfg,
		forks:        forks,
		philosophers: philosophers,
		tally:        tally,
	}, nil
}

// Run starts one goroutine per philosopher and waits for all of them to
// stop, either because ctx was cancelled or every meal limit was reached.
// A table can be run again after Run returns; meal counts carry over.
func (t *Table) Run(ctx context.Context) error {
	if !t.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer t.running.Store(false)

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range t.philosophers {
		g.Go(func() error {
			return p.Run(gctx)
		})
	}
	return g.Wait()
}

// Running reports whether Run is in progress.
func (t *Table) Running() bool {
	return t.running.Load()
}

// Config returns the configuration the table was built with.
func (t *Table) Config() Config {
	return t.cfg
}

// Forks exposes the shared fork ring for read-only inspection.
func (t *Table) Forks() *ForkSet {
	return t.forks
}

// Tally returns the table's meal counter.
func (t *Table) Tally() *Tally {
	return t.tally
}

// Meals returns per-seat meal counts.
func (t *Table) Meals() []int {
	out := make([]int, len(t.philosophers))
	for i, p := range t.philosophers {
		out[i] = p.Meals()
	}
	return out
}

// States returns each philosopher's current phase.
func (t *Table) States() []observe.PhilosopherState {
	out := make([]observe.PhilosopherState, len(t.philosophers))
	for i, p := range t.philosophers {
		out[i] = p.State()
	}
	return out
}

// Total returns the number of meals eaten so far.
func (t *Table) Total() int {
	return t.tally.Total()
}
