package tui

import "github.com/charmbracelet/lipgloss"

// Color constants.
const (
	primaryColor   = "#7C3AED" // Purple
	secondaryColor = "#10B981" // Green
	warningColor   = "#F59E0B" // Amber
	errorColor     = "#EF4444" // Red
	dimColor       = "#6B7280" // Gray
)

// Style variables for consistent TUI rendering.
var (
	// BoxStyle provides a rounded border box with primary color.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(primaryColor)).
			Padding(0, 1)

	// TitleStyle renders titles in primary color with bold.
	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true)

	// DimStyle renders dim/muted text.
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(dimColor))

	// SuccessStyle renders success messages in green.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(secondaryColor))

	// ErrorStyle renders error messages in red.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(errorColor))

	// WarningStyle renders warning messages in amber.
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(warningColor))

	// StatusBarStyle provides styling for the status bar.
	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#1F2937")).
			Foreground(lipgloss.Color("#9CA3AF")).
			Padding(0, 1)

	// ActiveTabStyle renders the active tab.
	ActiveTabStyle = lipgloss.NewStyle().
			Background(lipgloss.Color(primaryColor)).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 2)

	// InactiveTabStyle renders inactive tabs.
	InactiveTabStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("#374151")).
				Foreground(lipgloss.Color("#9CA3AF")).
				Padding(0, 2)

	// SlotFullStyle renders occupied buffer slots.
	SlotFullStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(secondaryColor)).
			Bold(true)

	// SlotEmptyStyle renders empty buffer slots.
	SlotEmptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(dimColor))
)

// Philosopher and fork icons (pre-rendered strings).
var (
	// IconThinking marks a philosopher who is thinking.
	IconThinking = DimStyle.Render("○")

	// IconHungry marks a philosopher waiting for forks.
	IconHungry = WarningStyle.Render("◐")

	// IconEating marks a philosopher holding both forks.
	IconEating = SuccessStyle.Render("●")

	// IconRunning marks an agent group that is running.
	IconRunning = SuccessStyle.Render("▸")

	// IconStopped marks an agent group that is stopped.
	IconStopped = DimStyle.Render("■")
)
