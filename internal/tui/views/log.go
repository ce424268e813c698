package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/berth-dev/mesa/internal/tui"
)

// ============================================================================
// LogModel
// ============================================================================

// LogModel is a scrollable view of event lines. It follows the newest line
// until the user scrolls up.
type LogModel struct {
	viewport viewport.Model
	follow   bool
	lines    int
}

// NewLogModel creates a LogModel sized for the terminal.
func NewLogModel(width, height int) LogModel {
	w, h := logSize(width, height)
	return LogModel{viewport: viewport.New(w, h), follow: true}
}

func logSize(width, height int) (int, int) {
	return max(20, width-6), max(5, height-8)
}

// SetSize adapts the viewport to a new terminal size.
func (m *LogModel) SetSize(width, height int) {
	m.viewport.Width, m.viewport.Height = logSize(width, height)
}

// SetLines replaces the content.
func (m *LogModel) SetLines(lines []string) {
	m.lines = len(lines)
	m.viewport.SetContent(strings.Join(lines, "\n"))
	if m.follow {
		m.viewport.GotoBottom()
	}
}

// Update handles scrolling.
func (m LogModel) Update(msg tea.Msg) (LogModel, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	m.follow = m.viewport.AtBottom()
	return m, cmd
}

// View renders the log box.
func (m LogModel) View(dropped int) string {
	title := tui.TitleStyle.Render("Events")
	if dropped > 0 {
		title += tui.DimStyle.Render(fmt.Sprintf("  (%d lines skipped)", dropped))
	}
	if m.lines == 0 {
		return tui.BoxStyle.Render(title + "\n\n" + tui.DimStyle.Render("No events yet. Press d, p or c to start agents."))
	}
	return tui.BoxStyle.Render(title + "\n\n" + m.viewport.View())
}
