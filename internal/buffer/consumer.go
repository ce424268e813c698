package buffer

import (
	"context"
	"sync/atomic"

	"github.com/berth-dev/mesa/internal/pace"
)

// Consumer pops one value from Ring per cycle, hands it to Sink, then
// pauses for Delay.
type Consumer struct {
	ID    int
	Ring  *Ring
	Delay *pace.Delay
	Sink  func(v int)
	// Limit stops the consumer after this many pops; 0 runs until
	// cancelled.
	Limit int

	consumed atomic.Int64
	active   atomic.Bool
}

// Consumed returns how many values this consumer has popped.
func (c *Consumer) Consumed() int {
	return int(c.consumed.Load())
}

// Done reports whether the limit has been reached.
func (c *Consumer) Done() bool {
	return c.Limit > 0 && c.Consumed() >= c.Limit
}

// Running reports whether Run is in progress.
func (c *Consumer) Running() bool {
	return c.active.Load()
}

// Run pops and pauses until ctx is cancelled or Limit is reached.
func (c *Consumer) Run(ctx context.Context) error {
	if !c.active.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer c.active.Store(false)

	for {
		if ctx.Err() != nil || c.Done() {
			return nil
		}
		v, err := c.Ring.pop(ctx, c.ID)
		if err != nil {
			return nil
		}
		c.consumed.Add(1)
		if c.Sink != nil {
			c.Sink(v)
		}

		if err := c.Delay.Wait(ctx); err != nil {
			return nil
		}
	}
}
