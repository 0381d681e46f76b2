// Package feed renders the live event feed: one row per synced event in
// arrival order, colored by verdict, with a movable cursor.
package feed

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/RotemSwisa/incident-response-simulator/internal/scenario"
	"github.com/RotemSwisa/incident-response-simulator/internal/theme"
)

const (
	colTime   = 8
	colLevel  = 8
	colSource = 14
	colVerd   = 10
)

// Model holds the feed state.
type Model struct {
	Width  int
	Height int

	events  []scenario.EventView
	pending string
	cursor  int
}

func New() Model {
	return Model{}
}

// SetEvents replaces the rows. The cursor stays on the same event when the
// list grows, since events are only ever appended.
func (m *Model) SetEvents(events []scenario.EventView, pending string) {
	m.events = events
	m.pending = pending
	if m.cursor >= len(events) {
		m.cursor = max(len(events)-1, 0)
	}
}

func (m *Model) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
	}
}

func (m *Model) MoveDown() {
	if m.cursor < len(m.events)-1 {
		m.cursor++
	}
}

// Selected returns the event under the cursor.
func (m Model) Selected() (scenario.EventView, bool) {
	if len(m.events) == 0 {
		return scenario.EventView{}, false
	}
	return m.events[m.cursor], true
}

// Cursor returns the cursor index.
func (m Model) Cursor() int { return m.cursor }

// Counts returns the number of events and how many have a response.
func (m Model) Counts() (events, responded int) {
	for _, e := range m.events {
		if e.Resolved() {
			responded++
		}
	}
	return len(m.events), responded
}

func (m Model) View() string {
	width := m.Width
	if width < 60 {
		width = 60
	}
	total, responded := m.Counts()
	header := theme.StyleHeader.Render("  Events") +
		theme.StyleDimmed.Render(fmt.Sprintf("  %d events • %d responded", total, responded))

	if total == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			theme.StyleDimmed.Render("  Waiting for events..."),
		)
	}

	colMsg := width - colTime - colLevel - colSource - colVerd - 10
	if colMsg < 10 {
		colMsg = 10
	}

	dim := lipgloss.NewStyle().Foreground(theme.ColorDimmed)
	tableHeader := fmt.Sprintf("  %-*s %-*s %-*s %-*s %s",
		colVerd, "Verdict",
		colTime, "Time",
		colLevel, "Level",
		colSource, "Source",
		"Message",
	)
	lines := []string{
		header,
		dim.Render(tableHeader),
		dim.Render("  " + strings.Repeat("─", min(width-4, colVerd+colTime+colLevel+colSource+colMsg+4))),
	}

	visible := m.Height - 4
	if visible < 3 {
		visible = len(m.events)
	}
	start := m.scrollStart(visible)
	end := min(start+visible, len(m.events))

	for i := start; i < end; i++ {
		lines = append(lines, m.renderRow(i, colMsg))
	}
	if end < len(m.events) {
		lines = append(lines, dim.Render(fmt.Sprintf("  ↓ %d more", len(m.events)-end)))
	}
	if fb := m.feedbackLine(width); fb != "" {
		lines = append(lines, "", fb)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// feedbackLine shows the evaluation of the resolved event under the cursor.
func (m Model) feedbackLine(width int) string {
	e, ok := m.Selected()
	if !ok || e.Response == nil {
		return ""
	}
	ev := e.Response.Evaluation
	verdict := e.Verdict().String()
	head := lipgloss.NewStyle().Foreground(theme.VerdictColor(verdict)).Bold(true).
		Render(fmt.Sprintf("  %s %d pts", theme.VerdictGlyph(verdict), ev.Score))
	if ev.Feedback == "" {
		return head
	}
	return head + theme.StyleDimmed.Render("  "+truncate(ev.Feedback, max(width-16, 10)))
}

// scrollStart keeps the cursor inside the visible window.
func (m Model) scrollStart(visible int) int {
	if m.cursor < visible {
		return 0
	}
	return m.cursor - visible + 1
}

func (m Model) renderRow(i, colMsg int) string {
	e := m.events[i]
	verdict := e.Verdict().String()
	vStyle := lipgloss.NewStyle().Foreground(theme.VerdictColor(verdict)).Width(colVerd)
	verd := vStyle.Render(theme.VerdictGlyph(verdict) + " " + e.Verdict().Label())

	ts := "--:--:--"
	if !e.Timestamp.IsZero() {
		ts = e.Timestamp.Format("15:04:05")
	}
	level := lipgloss.NewStyle().Foreground(theme.LevelColor(string(e.Level))).Width(colLevel).Render(string(e.Level))
	source := lipgloss.NewStyle().Width(colSource).Render(truncate(e.Source, colSource-1))
	msg := truncate(e.Message, colMsg)

	marker := "  "
	switch {
	case e.ID == m.pending:
		marker = lipgloss.NewStyle().Foreground(theme.ColorAccent).Render("» ")
	case i == m.cursor:
		marker = theme.StyleSelected.Render("> ")
	}

	row := fmt.Sprintf("%s%s %-*s %s %s %s", marker, verd, colTime, ts, level, source, msg)
	if i == m.cursor {
		row = theme.StyleSelected.Render(row)
	}
	return row
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n < 2 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
