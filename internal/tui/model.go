package tui

import (
	"time"

	"github.com/berth-dev/mesa/internal/buffer"
	"github.com/berth-dev/mesa/internal/config"
)

// Tab represents the active tab in the TUI.
type Tab int

const (
	TabTable Tab = iota
	TabBuffer
	TabLog
)

// Tabs lists every tab in display order.
var Tabs = []Tab{TabTable, TabBuffer, TabLog}

func (t Tab) String() string {
	switch t {
	case TabTable:
		return "Table"
	case TabBuffer:
		return "Buffer"
	case TabLog:
		return "Log"
	}
	return "?"
}

// maxLogLines bounds the log tab's history.
const maxLogLines = 1000

// Model is the main TUI model that holds all application state.
type Model struct {
	ActiveTab Tab
	Err       error

	// Configuration
	Cfg         *config.Config
	ProjectRoot string
	RunDir      string
	StartedAt   time.Time

	// Live data, refreshed every tick
	State State
	Ring  buffer.Snapshot

	// Log tab
	Log     []string
	Dropped int

	// Terminal dimensions
	Width  int
	Height int

	// Ctrl+C confirmation state
	CtrlCPending bool
	Quitting     bool
}

// NewModel creates a new Model with the given configuration.
func NewModel(cfg *config.Config, projectRoot string) *Model {
	return &Model{
		ActiveTab:   TabTable,
		Cfg:         cfg,
		ProjectRoot: projectRoot,
		StartedAt:   time.Now(),
		Log:         make([]string, 0, 64),

		// Default dimensions (will be updated on WindowSizeMsg)
		Width:  80,
		Height: 24,
	}
}

// AppendLog adds a line to the log tab, discarding the oldest beyond
// maxLogLines.
func (m *Model) AppendLog(line string) {
	m.Log = append(m.Log, line)
	if over := len(m.Log) - maxLogLines; over > 0 {
		m.Log = append(m.Log[:0], m.Log[over:]...)
	}
}

// NextTab cycles the active tab.
func (m *Model) NextTab() {
	m.ActiveTab = Tabs[(int(m.ActiveTab)+1)%len(Tabs)]
}
