// Package app provides the main TUI application that wires all views together.
package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/berth-dev/mesa/internal/buffer"
	"github.com/berth-dev/mesa/internal/config"
	"github.com/berth-dev/mesa/internal/control"
	"github.com/berth-dev/mesa/internal/tui"
	"github.com/berth-dev/mesa/internal/tui/commands"
	"github.com/berth-dev/mesa/internal/tui/views"
)

// App is the main TUI application that wires all views together.
type App struct {
	model  *tui.Model
	ctrl   commands.Controller
	bridge *tui.Bridge
	ring   func() buffer.Snapshot

	// View models
	logView views.LogModel
	help    help.Model
	keys    tui.KeyMap

	logDirty bool
}

// New creates an App driving ctrl. bridge must be the observer ctrl
// reports to.
func New(cfg *config.Config, projectRoot string, ctrl *control.Controller, bridge *tui.Bridge) *App {
	return newApp(cfg, projectRoot, ctrl, bridge, ctrl.Ring().Snapshot)
}

func newApp(cfg *config.Config, projectRoot string, ctrl commands.Controller, bridge *tui.Bridge, ring func() buffer.Snapshot) *App {
	model := tui.NewModel(cfg, projectRoot)
	model.State = bridge.Snapshot()
	model.Ring = ring()

	return &App{
		model:   model,
		ctrl:    ctrl,
		bridge:  bridge,
		ring:    ring,
		logView: views.NewLogModel(model.Width, model.Height),
		help:    help.New(),
		keys:    tui.DefaultKeyMap,
	}
}

// Model exposes the application state.
func (a *App) Model() *tui.Model {
	return a.model
}

// Init starts listening for event lines and schedules the first refresh.
func (a *App) Init() tea.Cmd {
	return tea.Batch(commands.ListenLinesCmd(a.bridge.Lines()), commands.TickCmd())
}

// Update handles messages and updates the application state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.model.Width = msg.Width
		a.model.Height = msg.Height
		a.help.Width = msg.Width
		a.logView.SetSize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case tui.TickMsg:
		a.refresh()
		if a.model.Quitting {
			return a, nil
		}
		return a, commands.TickCmd()

	case tui.LineMsg:
		a.model.AppendLog(msg.Line)
		a.logDirty = true
		return a, commands.ListenLinesCmd(a.bridge.Lines())

	case tui.LinesClosedMsg:
		return a, nil

	case tui.ToggledMsg:
		a.model.Err = msg.Err
		return a, nil

	case tui.ShutdownMsg:
		a.refresh()
		a.bridge.Close()
		return a, tea.Quit

	case tui.CtrlCResetMsg:
		// Reset Ctrl+C confirmation state after timeout
		a.model.CtrlCPending = false
		return a, nil

	case tui.ErrorMsg:
		a.model.Err = msg.Err
		return a, nil
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == tui.KeyCtrlC {
		if a.model.CtrlCPending {
			// Second press within timeout - exit
			return a, a.quit()
		}
		// First press - set pending and start timeout
		a.model.CtrlCPending = true
		return a, commands.CtrlCResetCmd()
	}

	// Agents are going away; only a second Ctrl+C matters now.
	if a.model.Quitting {
		return a, nil
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, a.quit()
	case key.Matches(msg, a.keys.Philosophers):
		return a, commands.ToggleCmd(a.ctrl, control.KindPhilosophers)
	case key.Matches(msg, a.keys.Producer):
		return a, commands.ToggleCmd(a.ctrl, control.KindProducer)
	case key.Matches(msg, a.keys.Consumer):
		return a, commands.ToggleCmd(a.ctrl, control.KindConsumer)
	case key.Matches(msg, a.keys.Tab):
		a.model.NextTab()
		return a, nil
	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return a, nil
	}

	if a.model.ActiveTab == tui.TabLog {
		var cmd tea.Cmd
		a.logView, cmd = a.logView.Update(msg)
		return a, cmd
	}
	return a, nil
}

// quit stops every agent before the program exits. Returns nil when a
// shutdown is already underway.
func (a *App) quit() tea.Cmd {
	if a.model.Quitting {
		return nil
	}
	a.model.Quitting = true
	a.model.State.Status = "Stopping agents..."
	return commands.ShutdownCmd(a.ctrl)
}

// refresh copies live state from the bridge and the ring into the model.
func (a *App) refresh() {
	status := a.model.State.Status
	a.model.State = a.bridge.Snapshot()
	if a.model.Quitting {
		a.model.State.Status = status
	}
	a.model.Ring = a.ring()
	a.model.Dropped = a.bridge.Dropped()
	if a.logDirty {
		a.logView.SetLines(a.model.Log)
		a.logDirty = false
	}
}

// View renders the active tab with the tab bar, help and status bar.
func (a *App) View() string {
	var b strings.Builder
	b.WriteString(views.RenderTabs(a.model.ActiveTab))
	b.WriteString("\n")

	switch a.model.ActiveTab {
	case tui.TabTable:
		policy := ""
		if a.model.Cfg != nil {
			policy = a.model.Cfg.Table.Policy
		}
		b.WriteString(views.RenderTable(a.model.State, policy, a.model.Width))
	case tui.TabBuffer:
		b.WriteString(views.RenderBuffer(a.model.State, a.model.Ring, a.model.Width))
	case tui.TabLog:
		b.WriteString(a.logView.View(a.model.Dropped))
	}

	b.WriteString("\n")
	b.WriteString(a.help.View(a.keys))
	b.WriteString("\n")
	b.WriteString(views.RenderStatusBar(a.model, a.model.Width))
	return b.String()
}
