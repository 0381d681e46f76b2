package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/RotemSwisa/incident-response-simulator/internal/scenario"
	"github.com/RotemSwisa/incident-response-simulator/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	Session   scenario.Session
	Events    int
	Responded int
	Syncing   bool
	// SyncFailures counts consecutive failed syncs; zero means healthy.
	SyncFailures int
	Errors       int
	Width        int
}

func New() Model {
	return Model{}
}

// SetCounts updates the event counters.
func (m *Model) SetCounts(events, responded int) {
	m.Events = events
	m.Responded = responded
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var state string
	switch m.Session.Status {
	case scenario.Active:
		state = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Active")
	case scenario.Completed:
		state = lipgloss.NewStyle().Foreground(theme.ColorAccent).Render("✓ Completed")
	default:
		state = lipgloss.NewStyle().Foreground(theme.ColorDimmed).Render("○ No session")
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := state

	if m.Session.ID != "" {
		name := m.Session.ScenarioName
		if name == "" {
			name = m.Session.ScenarioID
		}
		content += sep + name
	}

	if m.Session.Status != scenario.NotStarted {
		counts := fmt.Sprintf("%d events  %d responded", m.Events, m.Responded)
		if m.Session.TotalEvents > 0 {
			counts = fmt.Sprintf("%d/%d events  %d responded", m.Events, m.Session.TotalEvents, m.Responded)
		}
		content += sep + counts
	}

	if m.Session.Status == scenario.Active {
		var sync string
		switch {
		case m.SyncFailures > 0:
			sync = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render(fmt.Sprintf("sync failing (%d)", m.SyncFailures))
		case m.Syncing:
			sync = lipgloss.NewStyle().Foreground(theme.ColorWarning).Render("syncing...")
		default:
			sync = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("in sync")
		}
		content += sep + sync
	}

	if m.Errors > 0 {
		content += sep + theme.StyleError.Render(fmt.Sprintf("%d errors (l:log)", m.Errors))
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
