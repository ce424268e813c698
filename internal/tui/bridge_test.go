package tui

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berth-dev/mesa/internal/observe"
)

func TestBridgeFoldsEventsIntoState(t *testing.T) {
	b := NewBridge(3, 16)

	b.OnPhilosopherState(1, observe.Eating)
	b.OnMealCompleted(1, 2)
	b.OnForkState(2, observe.ForkHeld)
	b.OnBufferOccupancy(4)
	b.OnBufferWait(observe.Produced)
	b.OnBufferWait(observe.Consumed)
	b.OnItem(observe.Produced, 0, 7)
	b.OnItem(observe.Consumed, 1, 7)
	b.OnAgent("producer", true)

	s := b.Snapshot()
	assert.Equal(t, observe.Eating, s.Philosophers[1])
	assert.Equal(t, []int{0, 2, 0}, s.Meals)
	assert.Equal(t, 2, s.TotalMeals())
	assert.Equal(t, observe.ForkHeld, s.Forks[2])
	assert.Equal(t, 4, s.Occupancy)
	assert.Equal(t, 1, s.ProducerWait)
	assert.Equal(t, 1, s.ConsumerWait)
	assert.Equal(t, 1, s.Produced)
	assert.Equal(t, 1, s.Consumed)
	assert.True(t, s.Running["producer"])
	assert.Equal(t, "Started producer", s.Status)
}

func TestBridgeQueuesLinesInOrder(t *testing.T) {
	b := NewBridge(2, 8)

	b.OnPhilosopherState(0, observe.Hungry)
	b.OnItem(observe.Produced, 0, 42)
	b.OnBufferWait(observe.Produced)

	assert.Equal(t, "Philosopher 0 is hungry", <-b.Lines())
	assert.Equal(t, "Producer 0 produces 42", <-b.Lines())
	assert.Equal(t, "Buffer full: waiting for the consumer", <-b.Lines())
}

func TestBridgeDropsLinesButKeepsState(t *testing.T) {
	b := NewBridge(2, 2)

	for i := range 5 {
		b.OnItem(observe.Produced, 0, i)
	}

	assert.Equal(t, 3, b.Dropped())
	assert.Equal(t, 5, b.Snapshot().Produced)
	assert.Equal(t, "Producer 0 produces 4", b.Snapshot().Status)
}

func TestBridgeIgnoresUnknownSeats(t *testing.T) {
	b := NewBridge(2, 4)

	b.OnPhilosopherState(5, observe.Eating)
	b.OnMealCompleted(-1, 3)
	b.OnForkState(2, observe.ForkHeld)

	s := b.Snapshot()
	assert.Equal(t, []observe.PhilosopherState{observe.Thinking, observe.Thinking}, s.Philosophers)
	assert.Zero(t, s.TotalMeals())
}

func TestBridgeSnapshotIsACopy(t *testing.T) {
	b := NewBridge(2, 4)
	b.OnAgent("philosophers", true)

	s := b.Snapshot()
	s.Meals[0] = 99
	s.Running["philosophers"] = false

	again := b.Snapshot()
	assert.Zero(t, again.Meals[0])
	assert.True(t, again.Running["philosophers"])
}

func TestBridgeCloseStopsLines(t *testing.T) {
	b := NewBridge(2, 4)
	b.OnAgent("consumer", true)
	b.Close()
	b.Close()

	// Events after Close still update state and never panic.
	b.OnAgent("consumer", false)
	assert.False(t, b.Snapshot().Running["consumer"])

	line, ok := <-b.Lines()
	require.True(t, ok)
	assert.Equal(t, "Started consumer", line)
	_, ok = <-b.Lines()
	assert.False(t, ok)
}

func TestModelAppendLogIsBounded(t *testing.T) {
	m := NewModel(nil, "")
	for i := range maxLogLines + 10 {
		m.AppendLog(fmt.Sprint(i))
	}

	require.Len(t, m.Log, maxLogLines)
	assert.Equal(t, "10", m.Log[0])
	assert.Equal(t, fmt.Sprint(maxLogLines+9), m.Log[len(m.Log)-1])
}

func TestModelNextTabWraps(t *testing.T) {
	m := NewModel(nil, "")
	var seen []Tab
	for range len(Tabs) + 1 {
		seen = append(seen, m.ActiveTab)
		m.NextTab()
	}
	assert.Equal(t, []Tab{TabTable, TabBuffer, TabLog, TabTable}, seen)
	assert.Equal(t, "Buffer", TabBuffer.String())
}
