// Package observe defines the event sink that the concurrency core reports to.
// Observers receive values only and must never call back into the core.
package observe

import "fmt"

// PhilosopherState is the phase of a philosopher's think/eat cycle.
type PhilosopherState int

const (
	Thinking PhilosopherState = iota // initial state
	Hungry                           // waiting for forks
	Eating                           // holding both forks
)

func (s PhilosopherState) String() string {
	switch s {
	case Thinking:
		return "thinking"
	case Hungry:
		return "hungry"
	case Eating:
		return "eating"
	default:
		return fmt.Sprintf("PhilosopherState(%d)", int(s))
	}
}

// ForkState is the ownership state of a single fork.
type ForkState int

const (
	ForkFree ForkState = iota
	ForkHeld
)

func (s ForkState) String() string {
	switch s {
	case ForkFree:
		return "free"
	case ForkHeld:
		return "held"
	default:
		return fmt.Sprintf("ForkState(%d)", int(s))
	}
}

// Side distinguishes the producing and consuming ends of a buffer.
type Side int

const (
	Produced Side = iota
	Consumed
)

func (s Side) String() string {
	if s == Produced {
		return "produced"
	}
	return "consumed"
}

// Observer receives state-change notifications. Implementations must be safe
// for concurrent use: every agent calls it from its own goroutine.
//
// Fork and buffer events are delivered while the fork or buffer lock is held,
// so callbacks must not block or do I/O. Queue the work and return.
type Observer interface {
	OnPhilosopherState(id int, state PhilosopherState)
	OnMealCompleted(id int, meals int)
	OnForkState(id int, state ForkState)
	OnBufferOccupancy(count int)
	// OnBufferWait reports that an agent on side is about to block: a
	// producer on a full buffer or a consumer on an empty one.
	OnBufferWait(side Side)
	OnItem(side Side, agent int, value int)
	OnAgent(kind string, running bool)
}

// Nop ignores every event. Embed it to implement only the callbacks you need.
type Nop struct{}

func (Nop) OnPhilosopherState(int, PhilosopherState) {}
func (Nop) OnMealCompleted(int, int)                 {}
func (Nop) OnForkState(int, ForkState)               {}
func (Nop) OnBufferOccupancy(int)                    {}
func (Nop) OnBufferWait(Side)                        {}
func (Nop) OnItem(Side, int, int)                    {}
func (Nop) OnAgent(string, bool)                     {}

// OrNop returns obs, or Nop when obs is nil.
func OrNop(obs Observer) Observer {
	if obs == nil {
		return Nop{}
	}
	return obs
}
