package app

import (
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berth-dev/mesa/internal/buffer"
	"github.com/berth-dev/mesa/internal/config"
	"github.com/berth-dev/mesa/internal/control"
	"github.com/berth-dev/mesa/internal/observe"
	"github.com/berth-dev/mesa/internal/tui"
)

type fakeController struct {
	mu       sync.Mutex
	running  map[control.Kind]bool
	err      error
	shutdown int
}

func (f *fakeController) Toggle(kind control.Kind) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	f.running[kind] = !f.running[kind]
	return f.running[kind], nil
}

func (f *fakeController) Shutdown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdown++
}

func newTestApp(t *testing.T) (*App, *fakeController, *tui.Bridge) {
	t.Helper()
	cfg := config.DefaultConfig()
	ctrl := &fakeController{running: make(map[control.Kind]bool)}
	bridge := tui.NewBridge(cfg.Table.Seats, 16)
	ring := buffer.NewRing(cfg.Buffer.Capacity, bridge)
	return newApp(cfg, t.TempDir(), ctrl, bridge, ring.Snapshot), ctrl, bridge
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestToggleKeysDriveController(t *testing.T) {
	a, ctrl, _ := newTestApp(t)

	for _, tc := range []struct {
		key  string
		kind control.Kind
	}{
		{"d", control.KindPhilosophers},
		{"p", control.KindProducer},
		{"c", control.KindConsumer},
	} {
		_, cmd := a.Update(keyMsg(tc.key))
		require.NotNil(t, cmd, tc.key)
		msg := cmd()
		assert.Equal(t, tui.ToggledMsg{Kind: tc.kind, Running: true}, msg)
		assert.True(t, ctrl.running[tc.kind])
	}
}

func TestToggleErrorIsShown(t *testing.T) {
	a, ctrl, _ := newTestApp(t)
	ctrl.err = errors.New("boom")

	_, cmd := a.Update(keyMsg("p"))
	a.Update(cmd())

	assert.EqualError(t, a.Model().Err, "boom")
	assert.Contains(t, a.View(), "Error: boom")
}

func TestTabCyclesViews(t *testing.T) {
	a, _, _ := newTestApp(t)
	assert.Equal(t, tui.TabTable, a.Model().ActiveTab)

	a.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, tui.TabBuffer, a.Model().ActiveTab)
	assert.Contains(t, a.View(), "Ring buffer")

	a.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, tui.TabLog, a.Model().ActiveTab)

	a.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, tui.TabTable, a.Model().ActiveTab)
}

func TestTickRefreshesFromBridge(t *testing.T) {
	a, _, bridge := newTestApp(t)

	bridge.OnPhilosopherState(2, observe.Eating)
	bridge.OnItem(observe.Produced, 0, 5)

	_, cmd := a.Update(tui.TickMsg{})
	assert.NotNil(t, cmd)
	assert.Equal(t, observe.Eating, a.Model().State.Philosophers[2])
	assert.Equal(t, 1, a.Model().State.Produced)
}

func TestLinesReachLogOnTick(t *testing.T) {
	a, _, _ := newTestApp(t)

	_, cmd := a.Update(tui.LineMsg{Line: "Producer 0 produces 5"})
	assert.NotNil(t, cmd)
	assert.Equal(t, []string{"Producer 0 produces 5"}, a.Model().Log)

	a.Update(tui.TickMsg{})
	a.Update(tea.KeyMsg{Type: tea.KeyTab})
	a.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Contains(t, a.View(), "Producer 0 produces 5")
}

func TestQuitShutsDownOnce(t *testing.T) {
	a, ctrl, bridge := newTestApp(t)

	_, cmd := a.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.True(t, a.Model().Quitting)

	_, again := a.Update(keyMsg("q"))
	assert.Nil(t, again)

	msg := cmd()
	assert.Equal(t, tui.ShutdownMsg{}, msg)
	assert.Equal(t, 1, ctrl.shutdown)

	_, cmd = a.Update(msg)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	_, open := <-bridge.Lines()
	assert.False(t, open)
}

func TestCtrlCNeedsConfirmation(t *testing.T) {
	a, ctrl, _ := newTestApp(t)

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.NotNil(t, cmd)
	assert.True(t, a.Model().CtrlCPending)
	assert.False(t, a.Model().Quitting)

	a.Update(tui.CtrlCResetMsg{})
	assert.False(t, a.Model().CtrlCPending)

	a.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	_, cmd = a.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, 1, ctrl.shutdown)
}

func TestHelpToggles(t *testing.T) {
	a, _, _ := newTestApp(t)
	short := a.View()

	a.Update(keyMsg("?"))
	assert.NotEqual(t, short, a.View())
	assert.Contains(t, a.View(), "scroll up")
}
