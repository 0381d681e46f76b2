// Package activity provides a scrollable log overlay of sync, submit and
// session events, including every recoverable error.
package activity

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/RotemSwisa/incident-response-simulator/internal/theme"
)

const maxEntries = 200

// Kinds of entries.
const (
	KindSession = "sess"
	KindSync    = "sync"
	KindSubmit  = "resp"
	KindError   = "err"
)

// Entry is a single log line.
type Entry struct {
	Time    time.Time
	Kind    string
	Message string
}

// Model holds activity log state.
type Model struct {
	Entries []Entry
	Offset  int // scroll offset (from bottom)
	now     func() time.Time
}

func New() Model {
	return Model{now: time.Now}
}

// Add appends an entry, caps the buffer and scrolls back to the bottom.
func (m *Model) Add(kind, message string) {
	now := time.Now
	if m.now != nil {
		now = m.now
	}
	m.Entries = append(m.Entries, Entry{
		Time:    now(),
		Kind:    kind,
		Message: message,
	})
	if len(m.Entries) > maxEntries {
		m.Entries = m.Entries[len(m.Entries)-maxEntries:]
	}
	m.Offset = 0
}

// Errorf adds an error entry.
func (m *Model) Errorf(format string, args ...interface{}) {
	m.Add(KindError, fmt.Sprintf(format, args...))
}

// Errors returns how many error entries are buffered.
func (m Model) Errors() int {
	n := 0
	for _, e := range m.Entries {
		if e.Kind == KindError {
			n++
		}
	}
	return n
}

func (m *Model) ScrollUp(n int) {
	m.Offset += n
	max := len(m.Entries) - 1
	if max < 0 {
		max = 0
	}
	if m.Offset > max {
		m.Offset = max
	}
}

func (m *Model) ScrollDown(n int) {
	m.Offset -= n
	if m.Offset < 0 {
		m.Offset = 0
	}
}

func panelStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder)
}

// View renders the log as an overlay panel.
func (m Model) View(width, height int) string {
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}
	visibleLines := height - 6
	if visibleLines < 3 {
		visibleLines = 3
	}

	title := theme.StyleHeader.Render(" ACTIVITY ")
	help := theme.StyleDimmed.Render(fmt.Sprintf("j/k:scroll  esc:close  %d entries", len(m.Entries)))

	if len(m.Entries) == 0 {
		body := theme.StyleDimmed.Render("  Nothing has happened yet.")
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", help)
		return panelStyle(innerW).Render(content)
	}

	end := len(m.Entries) - m.Offset
	start := end - visibleLines
	if start < 0 {
		start = 0
	}
	if end < 0 {
		end = 0
	}

	var lines []string
	for i := start; i < end; i++ {
		e := m.Entries[i]
		ts := theme.StyleDimmed.Render(e.Time.Format("15:04:05.000"))
		kind := lipgloss.NewStyle().Foreground(kindColor(e.Kind)).Width(4).Render(e.Kind)
		msg := e.Message
		if len(msg) > innerW-20 && innerW > 23 {
			msg = msg[:innerW-23] + "..."
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", ts, kind, msg))
	}

	body := strings.Join(lines, "\n")
	more := ""
	if m.Offset > 0 {
		more = theme.StyleDimmed.Render(fmt.Sprintf(" ↓ %d more", m.Offset))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, body, more, help)
	return panelStyle(innerW).Render(content)
}

func kindColor(kind string) lipgloss.Color {
	switch kind {
	case KindSync:
		return theme.ColorInfo
	case KindSubmit:
		return theme.ColorAccent
	case KindSession:
		return theme.ColorHealthy
	case KindError:
		return theme.ColorDanger
	default:
		return theme.ColorDimmed
	}
}
