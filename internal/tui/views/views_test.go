package views

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"

	"github.com/berth-dev/mesa/internal/buffer"
	"github.com/berth-dev/mesa/internal/observe"
	"github.com/berth-dev/mesa/internal/tui"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func testState() tui.State {
	return tui.State{
		Philosophers: []observe.PhilosopherState{observe.Eating, observe.Thinking, observe.Hungry},
		Meals:        []int{4, 2, 3},
		Forks:        []observe.ForkState{observe.ForkHeld, observe.ForkHeld, observe.ForkFree},
		Produced:     12,
		Consumed:     9,
		ProducerWait: 1,
		Running:      map[string]bool{"philosophers": true, "producer": true},
		Status:       "Philosopher 0 is eating",
	}
}

func TestRenderTableListsSeats(t *testing.T) {
	out := RenderTable(testState(), "parity", 100)

	for _, want := range []string{"P0", "P1", "P2", "eating", "hungry", "4 meals", "Total meals: 9", "Policy: parity", "philosophers running"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderBufferMarksHeadAndTail(t *testing.T) {
	snap := buffer.Snapshot{Items: []int{7, 8}, Head: 3, Tail: 0, Count: 2, Capacity: 4}
	out := RenderBuffer(testState(), snap, 100)

	assert.Contains(t, out, "[ 7]")
	assert.Contains(t, out, "[ 8]")
	assert.Contains(t, out, "2/4")
	assert.Contains(t, out, "Produced: 12")
	assert.Contains(t, out, "producer running")
	assert.Contains(t, out, "consumer stopped")
}

func TestSlotCellsWrapAround(t *testing.T) {
	snap := buffer.Snapshot{Items: []int{7, 8}, Head: 3, Tail: 1, Count: 2, Capacity: 4}
	cells, marks := slotCells(snap)

	assert.Len(t, cells, 4)
	assert.Equal(t, "[ 8]", cells[0])
	assert.Equal(t, "[  ]", cells[1])
	assert.Equal(t, "[ 7]", cells[3])
	assert.Equal(t, " w", strings.TrimRight(marks[1], " "))
	assert.Equal(t, " r", strings.TrimRight(marks[3], " "))
}

func TestSlotCellsHeadMeetsTail(t *testing.T) {
	_, marks := slotCells(buffer.Snapshot{Head: 2, Tail: 2, Capacity: 3})
	assert.Equal(t, " rw", strings.TrimRight(marks[2], " "))
}

func TestRenderBufferWithoutRing(t *testing.T) {
	assert.Contains(t, RenderBuffer(testState(), buffer.Snapshot{}, 80), "no buffer")
}

func TestLogModelPlaceholderAndLines(t *testing.T) {
	m := NewLogModel(80, 24)
	assert.Contains(t, m.View(0), "No events yet")

	m.SetLines([]string{"Started producer", "Producer 0 produces 1"})
	out := m.View(3)
	assert.Contains(t, out, "Producer 0 produces 1")
	assert.Contains(t, out, "3 lines skipped")
}

func TestRenderTabsShowsAll(t *testing.T) {
	out := RenderTabs(tui.TabBuffer)
	for _, tab := range tui.Tabs {
		assert.Contains(t, out, tab.String())
	}
}

func TestRenderStatusBar(t *testing.T) {
	m := tui.NewModel(nil, "")
	m.State = testState()
	assert.Contains(t, RenderStatusBar(m, 100), "Philosopher 0 is eating")

	m.CtrlCPending = true
	assert.Contains(t, RenderStatusBar(m, 100), "Ctrl+C again")
}
