// Package views provides TUI view components for the mesa dashboard.
package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/berth-dev/mesa/internal/observe"
	"github.com/berth-dev/mesa/internal/tui"
	"github.com/berth-dev/mesa/internal/tui/diagram"
)

// diagramRadius picks a circle size that keeps labels apart for the seat
// count without outgrowing a small terminal.
func diagramRadius(seats int) int {
	return max(3, min(seats, 8))
}

// RenderTable draws the philosophers around the table next to a per-seat
// list of states and meal counts.
func RenderTable(s tui.State, policy string, width int) string {
	seats := make([]diagram.Label, len(s.Philosophers))
	for i, st := range s.Philosophers {
		seats[i] = diagram.Label{Text: fmt.Sprintf("P%d", i), Render: stateStyle(st).Render}
	}
	forks := make([]diagram.Label, len(s.Forks))
	for i, f := range s.Forks {
		if f == observe.ForkHeld {
			forks[i] = diagram.Label{Text: "ψ", Render: tui.WarningStyle.Render}
		} else {
			forks[i] = diagram.Label{Text: "ψ", Render: tui.DimStyle.Render}
		}
	}
	ring := diagram.Ring(seats, forks, diagramRadius(len(seats)))

	var list strings.Builder
	list.WriteString(tui.TitleStyle.Render("Philosophers"))
	list.WriteString("\n\n")
	for i, st := range s.Philosophers {
		fmt.Fprintf(&list, "%s P%-2d %-9s %s\n", stateIcon(st), i, st, tui.DimStyle.Render(fmt.Sprintf("%d meals", s.Meals[i])))
	}
	list.WriteString("\n")
	fmt.Fprintf(&list, "%s %d\n", tui.DimStyle.Render("Total meals:"), s.TotalMeals())
	if policy != "" {
		fmt.Fprintf(&list, "%s %s\n", tui.DimStyle.Render("Policy:"), policy)
	}
	list.WriteString("\n")
	list.WriteString(agentLine(s, "philosophers", "d"))

	content := lipgloss.JoinHorizontal(lipgloss.Top, ring, "    ", list.String())
	return tui.BoxStyle.Width(boxWidth(width)).Render(content)
}

func stateStyle(s observe.PhilosopherState) lipgloss.Style {
	switch s {
	case observe.Eating:
		return tui.SuccessStyle.Bold(true)
	case observe.Hungry:
		return tui.WarningStyle.Bold(true)
	default:
		return tui.DimStyle
	}
}

func stateIcon(s observe.PhilosopherState) string {
	switch s {
	case observe.Eating:
		return tui.IconEating
	case observe.Hungry:
		return tui.IconHungry
	default:
		return tui.IconThinking
	}
}

// agentLine shows whether kind is running and the key that toggles it.
func agentLine(s tui.State, kind, key string) string {
	if s.Running[kind] {
		return fmt.Sprintf("%s %s running  %s\n", tui.IconRunning, kind, tui.DimStyle.Render("["+key+"] stop"))
	}
	return fmt.Sprintf("%s %s stopped  %s\n", tui.IconStopped, kind, tui.DimStyle.Render("["+key+"] start"))
}

// boxWidth leaves room for the border within the terminal width.
func boxWidth(width int) int {
	return max(40, width-2)
}
