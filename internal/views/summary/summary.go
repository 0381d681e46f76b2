// Package summary provides the end-of-session performance overlay. The
// report body is rendered with glamour into a scrollable viewport and the
// headline accuracy gauge settles in with a spring animation.
package summary

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"

	"github.com/RotemSwisa/incident-response-simulator/internal/report"
	"github.com/RotemSwisa/incident-response-simulator/internal/theme"
)

const (
	gaugeWidth = 30
	fps        = 60
	// settleEpsilon is how close to the target the gauge must be, in
	// percentage points, before the animation stops.
	settleEpsilon = 0.05
)

// FrameMsg advances the gauge animation by one frame.
type FrameMsg struct{}

func frame() tea.Cmd {
	return tea.Tick(time.Second/fps, func(time.Time) tea.Msg { return FrameMsg{} })
}

// Model holds the summary overlay state.
type Model struct {
	summary  *report.Summary
	loading  bool
	fetchErr string

	vp     viewport.Model
	width  int
	height int

	spring    harmonica.Spring
	pos, vel  float64
	target    float64
	animating bool
}

func New() Model {
	return Model{
		vp:     viewport.New(60, 10),
		spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 0.5),
	}
}

// SetLoading shows a placeholder while the summary is fetched.
func (m *Model) SetLoading() {
	m.loading = true
	m.fetchErr = ""
}

// SetError shows a fetch failure. The caller keeps the session active so
// completion can be retried.
func (m *Model) SetError(err error) {
	m.loading = false
	m.fetchErr = err.Error()
}

// Apply shows s and starts the gauge animation.
func (m *Model) Apply(s *report.Summary) tea.Cmd {
	m.loading = false
	m.fetchErr = ""
	m.summary = s
	m.pos, m.vel = 0, 0
	m.target = clampPct(s.Accuracy())
	m.animating = true
	m.render()
	return frame()
}

// Summary returns the shown summary, if any.
func (m Model) Summary() *report.Summary { return m.summary }

// Gauge returns the current animated gauge value.
func (m Model) Gauge() float64 { return m.pos }

// SetSize lays the overlay out for a w×h terminal.
func (m *Model) SetSize(w, h int) {
	m.width, m.height = w, h
	mw := overlayWidth(w)
	m.vp.Width = mw - 4
	m.vp.Height = max(h-14, 5)
	m.render()
}

func (m *Model) render() {
	if m.summary == nil {
		m.vp.SetContent("")
		return
	}
	m.vp.SetContent(renderMarkdown(m.summary.Markdown(), m.vp.Width))
}

func renderMarkdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// Update handles animation frames and scroll keys forwarded by the parent.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FrameMsg:
		if !m.animating {
			return m, nil
		}
		m.pos, m.vel = m.spring.Update(m.pos, m.vel, m.target)
		if math.Abs(m.pos-m.target) < settleEpsilon && math.Abs(m.vel) < settleEpsilon {
			m.pos, m.vel = m.target, 0
			m.animating = false
			return m, nil
		}
		return m, frame()

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			m.vp.LineDown(1)
		case "k", "up":
			m.vp.LineUp(1)
		case "pgdown", "f":
			m.vp.ViewDown()
		case "pgup", "b":
			m.vp.ViewUp()
		case "g":
			m.vp.GotoTop()
		case "G":
			m.vp.GotoBottom()
		}
	}
	return m, nil
}

// ViewOverlay renders the panel centered in a w×h terminal.
func (m Model) ViewOverlay(w, h int) string {
	mw := overlayWidth(w)
	inner := m.renderInner(mw - 4)

	box := lipgloss.NewStyle().
		Width(mw).
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorAccent).
		Render(inner)

	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderInner(w int) string {
	var b strings.Builder
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBright).Render("PERFORMANCE SUMMARY")
	b.WriteString(title + "\n\n")

	switch {
	case m.loading:
		b.WriteString(theme.StyleDimmed.Render("Fetching summary..."))
		return b.String()
	case m.fetchErr != "":
		b.WriteString(theme.StyleError.Render("Error: "+m.fetchErr) + "\n\n")
		b.WriteString(theme.StyleDimmed.Render("c:retry  esc:close"))
		return b.String()
	case m.summary == nil:
		b.WriteString(theme.StyleDimmed.Render("No summary yet. Press c to complete the session."))
		return b.String()
	}

	s := m.summary
	grade := s.Grade()
	if grade == "" {
		grade = "-"
	}
	gradeStr := lipgloss.NewStyle().Bold(true).Foreground(theme.GradeColor(grade)).Render("Grade " + grade)
	score := s.Score()
	b.WriteString(fmt.Sprintf("%s   %d / %d points\n", gradeStr, score.Total, score.Max))
	b.WriteString(renderGauge(m.pos, gaugeWidth) + "\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(strings.Repeat("─", w)) + "\n")
	b.WriteString(m.vp.View() + "\n")
	b.WriteString(theme.StyleDimmed.Render(fmt.Sprintf("j/k:scroll  %3.0f%%  r:new session  esc:close", m.vp.ScrollPercent()*100)))
	return b.String()
}

func renderGauge(pct float64, width int) string {
	pct = clampPct(pct)
	filled := int(pct / 100 * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	color := theme.AccuracyColor(pct)
	return lipgloss.NewStyle().Foreground(color).Render(bar) + fmt.Sprintf(" %5.1f%% accuracy", pct)
}

func clampPct(p float64) float64 {
	return math.Max(0, math.Min(100, p))
}

func overlayWidth(w int) int {
	return min(max(w-8, 60), 110)
}
