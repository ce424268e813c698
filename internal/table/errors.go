// Package table implements the dining table: a ring of forks shared by
// philosopher goroutines that acquire them in a cycle-free order.
package table

import (
	"errors"
	"fmt"
)

// ErrInterrupted is returned by a blocking wait that ended because its
// context was cancelled. Agents recover from it locally.
var ErrInterrupted = errors.New("interrupted while blocked")

// ErrRunning is returned when Run is called on a table that is already running.
var ErrRunning = errors.New("table is already running")

// InvariantError describes a broken acquire/release pairing. It is only ever
// raised as a panic value: shared state is no longer trustworthy.
type InvariantError struct {
	Fork   int
	Owner  int
	Holder int
	Op     string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("fork %d: %s by philosopher %d while held by %d", e.Fork, e.Op, e.Owner, e.Holder)
}
