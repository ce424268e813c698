package tui

import "github.com/berth-dev/mesa/internal/control"

// ============================================================================
// Agent Control Messages
// ============================================================================

// ToggledMsg reports the outcome of starting or stopping an agent group.
type ToggledMsg struct {
	Kind    control.Kind
	Running bool
	Err     error
}

// ShutdownMsg signals that every agent has stopped and the TUI may exit.
type ShutdownMsg struct{}

// ============================================================================
// Event Stream Messages
// ============================================================================

// LineMsg carries one human-readable event line from the Bridge.
type LineMsg struct {
	Line string
}

// LinesClosedMsg signals that the Bridge will send no more lines.
type LinesClosedMsg struct{}

// ============================================================================
// Utility Messages
// ============================================================================

// TickMsg is sent periodically to refresh the dashboard from the Bridge.
type TickMsg struct{}

// CtrlCResetMsg clears a pending Ctrl+C confirmation.
type CtrlCResetMsg struct{}

// ErrorMsg is a generic error message for unrecoverable errors.
type ErrorMsg struct {
	Err error
}
