package buffer

import (
	"context"
	"math/rand/v2"
	"sync/atomic"

	"github.com/berth-dev/mesa/internal/pace"
)

// ValueFunc computes the value for a producer's seq-th item.
type ValueFunc func(seq int) int

// Sequential yields 0, 1, 2, ...
func Sequential(seq int) int { return seq }

// Random yields values in [0, 100) from a seeded generator. The returned
// func is not safe for concurrent use.
func Random(seed uint64) ValueFunc {
	rng := rand.New(rand.NewPCG(seed, ^seed))
	return func(int) int { return rng.IntN(100) }
}

// Sequence hands out consecutive item numbers. Producers that share one
// never produce the same number twice.
type Sequence struct {
	n atomic.Int64
}

// Next returns the next number, starting at 0.
func (s *Sequence) Next() int {
	return int(s.n.Add(1) - 1)
}

// Producer pushes one value into Ring per cycle, then pauses for Delay.
type Producer struct {
	ID     int
	Ring   *Ring
	Delay  *pace.Delay
	Values ValueFunc
	// Seq numbers items across runs and, if shared, across producers.
	Seq *Sequence
	// Limit stops the producer after this many pushes; 0 runs until
	// cancelled.
	Limit int

	produced atomic.Int64
	active   atomic.Bool
	// pending holds a value whose push was interrupted so the next run
	// delivers it instead of skipping its number.
	pending *int
}

// Produced returns how many values this producer has pushed.
func (p *Producer) Produced() int {
	return int(p.produced.Load())
}

// Done reports whether the limit has been reached.
func (p *Producer) Done() bool {
	return p.Limit > 0 && p.Produced() >= p.Limit
}

// Running reports whether Run is in progress.
func (p *Producer) Running() bool {
	return p.active.Load()
}

func (p *Producer) next() int {
	if p.pending != nil {
		v := *p.pending
		p.pending = nil
		return v
	}
	if p.Seq == nil {
		p.Seq = &Sequence{}
	}
	seq := p.Seq.Next()
	if p.Values == nil {
		return seq
	}
	return p.Values(seq)
}

// Run pushes and pauses until ctx is cancelled or Limit is reached. A push
// interrupted by cancellation ends the run without error.
func (p *Producer) Run(ctx context.Context) error {
	if !p.active.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer p.active.Store(false)

	for {
		if ctx.Err() != nil || p.Done() {
			return nil
		}
		v := p.next()
		if err := p.Ring.push(ctx, p.ID, v); err != nil {
			p.pending = &v
			return nil
		}
		p.produced.Add(1)

		if err := p.Delay.Wait(ctx); err != nil {
			return nil
		}
	}
}
