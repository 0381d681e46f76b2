// Package respond renders the response composer for the selected event:
// the event details, the action catalog and the suspicious toggle.
package respond

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/RotemSwisa/incident-response-simulator/internal/client"
	"github.com/RotemSwisa/incident-response-simulator/internal/scenario"
	"github.com/RotemSwisa/incident-response-simulator/internal/theme"
)

const (
	panelWidth = 64
	labelWidth = 12
)

var (
	stylePanel = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.ColorAccent).
			Padding(0, 1)

	styleLabel = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed).
			Width(labelWidth)

	styleValue = lipgloss.NewStyle().
			Foreground(theme.ColorBright)

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorBright)

	styleFooter = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed)
)

// Model is the composer state for one pending event.
type Model struct {
	Event      scenario.EventView
	Suspicious bool
	Submitting bool
	Err        string

	actions []client.ActionEntry
	cursor  int
	spinner spinner.Model
}

// New opens the composer on ev with the first action highlighted and the
// event marked not suspicious.
func New(ev scenario.EventView) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.ColorAccent)
	return Model{
		Event:   ev,
		actions: client.Catalog(),
		spinner: s,
	}
}

func (m *Model) MoveUp() {
	if m.Submitting {
		return
	}
	if m.cursor > 0 {
		m.cursor--
	}
}

func (m *Model) MoveDown() {
	if m.Submitting {
		return
	}
	if m.cursor < len(m.actions)-1 {
		m.cursor++
	}
}

func (m *Model) ToggleSuspicious() {
	if !m.Submitting {
		m.Suspicious = !m.Suspicious
	}
}

// Action returns the highlighted action.
func (m Model) Action() client.Action {
	return m.actions[m.cursor].Action
}

// BeginSubmit marks the composer busy and returns the spinner's first tick.
func (m *Model) BeginSubmit() tea.Cmd {
	m.Submitting = true
	m.Err = ""
	return m.spinner.Tick
}

// Fail records a submission error and re-enables the controls.
func (m *Model) Fail(err error) {
	m.Submitting = false
	m.Err = err.Error()
}

// Update advances the spinner while a submission is outstanding.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); !ok || !m.Submitting {
		return m, nil
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder
	ev := m.Event

	b.WriteString(styleTitle.Render("Respond to "+ev.ID) + "\n")
	b.WriteString(strings.Repeat("─", panelWidth-4) + "\n")

	writeRow(&b, "Message", ev.Message)
	writeRow(&b, "Source", ev.Source)
	if ev.Level != "" {
		writeRow(&b, "Level", lipgloss.NewStyle().Foreground(theme.LevelColor(string(ev.Level))).Render(string(ev.Level)))
	}
	if ev.EventType != "" {
		writeRow(&b, "Type", ev.EventType)
	}
	if !ev.Timestamp.IsZero() {
		writeRow(&b, "Time", ev.Timestamp.Format("2006-01-02 15:04:05"))
	}
	b.WriteString("\n")

	box := "[ ]"
	if m.Suspicious {
		box = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("[x]")
	}
	b.WriteString(box + " Suspicious\n\n")

	for i, a := range m.actions {
		line := "  " + a.Label + theme.StyleDimmed.Render("  "+a.Description)
		if i == m.cursor {
			line = theme.StyleSelected.Render("> "+a.Label) + theme.StyleDimmed.Render("  "+a.Description)
		}
		b.WriteString(line + "\n")
	}

	if m.Err != "" {
		b.WriteString("\n" + theme.StyleError.Render("Submit failed: "+m.Err) + "\n")
	}

	b.WriteString("\n")
	if m.Submitting {
		b.WriteString(m.spinner.View() + " Submitting...")
	} else {
		b.WriteString(styleFooter.Render("j/k:action  space:suspicious  enter:submit  esc:cancel"))
	}

	return stylePanel.Width(panelWidth).Render(b.String())
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString(styleLabel.Render(label+":") + styleValue.Render(value) + "\n")
}
