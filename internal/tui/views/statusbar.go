package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/berth-dev/mesa/internal/tui"
)

// RenderTabs draws the tab bar with the active tab highlighted.
func RenderTabs(active tui.Tab) string {
	tabs := make([]string, len(tui.Tabs))
	for i, t := range tui.Tabs {
		if t == active {
			tabs[i] = tui.ActiveTabStyle.Render(t.String())
		} else {
			tabs[i] = tui.InactiveTabStyle.Render(t.String())
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// RenderStatusBar shows the last transition, elapsed time and, while a
// Ctrl+C confirmation is pending, the prompt for it.
func RenderStatusBar(m *tui.Model, width int) string {
	status := m.State.Status
	if m.Err != nil {
		status = tui.ErrorStyle.Render("Error: " + m.Err.Error())
	}
	if m.CtrlCPending {
		status = tui.WarningStyle.Render("Press Ctrl+C again to quit")
	}
	elapsed := time.Since(m.StartedAt).Round(time.Second)
	right := fmt.Sprintf("%d meals  %d/%d items  %s", m.State.TotalMeals(), m.State.Produced, m.State.Consumed, elapsed)

	gap := max(1, width-lipgloss.Width(status)-lipgloss.Width(right)-2)
	return tui.StatusBarStyle.Width(max(width, 1)).Render(status + strings.Repeat(" ", gap) + right)
}
