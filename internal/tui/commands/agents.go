// Package commands provides Bubble Tea commands for TUI operations.
package commands

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/berth-dev/mesa/internal/control"
	"github.com/berth-dev/mesa/internal/tui"
)

// Controller is the part of control.Controller the TUI drives.
type Controller interface {
	Toggle(kind control.Kind) (bool, error)
	Shutdown()
}

// ToggleCmd starts or stops an agent group off the UI goroutine. Stopping
// waits for every agent to let go of its forks or its ring slot, which can
// take as long as the longest delay.
func ToggleCmd(ctrl Controller, kind control.Kind) tea.Cmd {
	return func() tea.Msg {
		running, err := ctrl.Toggle(kind)
		return tui.ToggledMsg{Kind: kind, Running: running, Err: err}
	}
}

// ShutdownCmd stops every agent and reports when they are all gone.
func ShutdownCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctrl.Shutdown()
		return tui.ShutdownMsg{}
	}
}
