// Package pace produces the bounded random delays agents sleep between
// steps, and sleeps that end early when their context is cancelled.
package pace

import (
	"context"
	"math/rand/v2"
	"time"
)

// Delay draws durations uniformly from [0, Max). A Delay is not safe for
// concurrent use; give each agent its own.
type Delay struct {
	Max time.Duration
	rng *rand.Rand
}

// New creates a Delay bounded by max. Equal seeds give equal sequences.
func New(max time.Duration, seed uint64) *Delay {
	return &Delay{
		Max: max,
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Next returns the next duration. A non-positive Max always yields zero.
func (d *Delay) Next() time.Duration {
	if d == nil || d.Max <= 0 {
		return 0
	}
	return time.Duration(d.rng.Int64N(int64(d.Max)))
}

// Wait sleeps for Next() and returns ctx.Err() if cancelled first.
func (d *Delay) Wait(ctx context.Context) error {
	return Sleep(ctx, d.Next())
}

// Sleep blocks for dur or until ctx is done. A zero duration still reports
// cancellation so callers can use it as a checkpoint.
func Sleep(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(dur)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Seed returns a seed derived from base and an agent index so agents built
// from one configuration do not share a sequence.
func Seed(base uint64, index int) uint64 {
	return base*6364136223846793005 + uint64(index)*1442695040888963407 + 1
}
