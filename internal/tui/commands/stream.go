package commands

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/berth-dev/mesa/internal/tui"
)

// RefreshInterval is how often the dashboard re-reads live state.
const RefreshInterval = 100 * time.Millisecond

// ListenLinesCmd waits for the next event line. Returns LineMsg for each
// line and LinesClosedMsg when the channel closes.
func ListenLinesCmd(lines <-chan string) tea.Cmd {
	return func() tea.Msg {
		line, ok := <-lines
		if !ok {
			return tui.LinesClosedMsg{}
		}
		return tui.LineMsg{Line: line}
	}
}

// TickCmd schedules the next dashboard refresh.
func TickCmd() tea.Cmd {
	return tea.Tick(RefreshInterval, func(time.Time) tea.Msg {
		return tui.TickMsg{}
	})
}

// CtrlCResetCmd clears a pending Ctrl+C confirmation after a second.
func CtrlCResetCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tui.CtrlCResetMsg{}
	})
}
