package log

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/berth-dev/mesa/internal/observe"
)

// Observer writes every observer callback to a Logger. Agents never see a
// write failure: failures are counted and the first one is reported to
// stderr once.
type Observer struct {
	logger   *Logger
	failures atomic.Int64
	warnOnce sync.Once
}

var _ observe.Observer = (*Observer)(nil)

// NewObserver adapts logger to the observe.Observer interface.
func NewObserver(logger *Logger) *Observer {
	return &Observer{logger: logger}
}

// Failures returns how many events could not be written.
func (o *Observer) Failures() int {
	return int(o.failures.Load())
}

func (o *Observer) append(e LogEvent) {
	if err := o.logger.Append(e); err != nil {
		o.failures.Add(1)
		o.warnOnce.Do(func() {
			fmt.Fprintf(os.Stderr, "Warning: event log: %v\n", err)
		})
	}
}

func (o *Observer) OnPhilosopherState(id int, state observe.PhilosopherState) {
	o.append(LogEvent{Event: EventPhilosopherState, ID: Int(id), State: state.String()})
}

func (o *Observer) OnMealCompleted(id int, meals int) {
	o.append(LogEvent{Event: EventMealCompleted, ID: Int(id), Meals: meals})
}

func (o *Observer) OnForkState(id int, state observe.ForkState) {
	o.append(LogEvent{Event: EventForkState, ID: Int(id), State: state.String()})
}

func (o *Observer) OnBufferOccupancy(count int) {
	o.append(LogEvent{Event: EventBufferOccupancy, Count: Int(count)})
}

func (o *Observer) OnBufferWait(side observe.Side) {
	o.append(LogEvent{Event: EventBufferWait, Side: side.String()})
}

func (o *Observer) OnItem(side observe.Side, agent int, value int) {
	event := EventItemProduced
	if side == observe.Consumed {
		event = EventItemConsumed
	}
	o.append(LogEvent{Event: event, ID: Int(agent), Value: Int(value)})
}

func (o *Observer) OnAgent(kind string, running bool) {
	event := EventAgentStopped
	if running {
		event = EventAgentStarted
	}
	o.append(LogEvent{Event: event, Agent: kind})
}
