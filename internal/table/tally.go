// tally.go tracks meal totals across the table.
package table

import (
	"fmt"
	"sync"
)

// Tally counts meals per seat. All methods are safe for concurrent use.
type Tally struct {
	mu     sync.Mutex
	meals  []int
	Target int // total meals the run aims for; 0 means unbounded
}

// NewTally creates a Tally for seats philosophers.
func NewTally(seats, target int) *Tally {
	return &Tally{
		meals:  make([]int, seats),
		Target: target,
	}
}

// Record counts one meal for seat.
func (t *Tally) Record(seat int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.meals[seat]++
}

// Meals returns a copy of the per-seat counts.
func (t *Tally) Meals() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]int(nil), t.meals...)
}

// Total returns the number of meals eaten at the table.
func (t *Tally) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, m := range t.meals {
		total += m
	}
	return total
}

// Progress returns a string like "[12/200]", or "[12]" when unbounded.
func (t *Tally) Progress() string {
	total := t.Total()
	if t.Target <= 0 {
		return fmt.Sprintf("[%d]", total)
	}
	return fmt.Sprintf("[%d/%d]", total, t.Target)
}

// IsComplete returns true once the target has been reached.
func (t *Tally) IsComplete() bool {
	return t.Target > 0 && t.Total() >= t.Target
}

// Spread returns the smallest and largest per-seat count and their mean.
func (t *Tally) Spread() (lo, hi int, mean float64) {
	meals := t.Meals()
	if len(meals) == 0 {
		return 0, 0, 0
	}
	lo, hi = meals[0], meals[0]
	sum := 0
	for _, m := range meals {
		lo = min(lo, m)
		hi = max(hi, m)
		sum += m
	}
	return lo, hi, float64(sum) / float64(len(meals))
}
