package feed

import (
	"strings"
	"testing"

	"github.com/RotemSwisa/incident-response-simulator/internal/client"
	"github.com/RotemSwisa/incident-response-simulator/internal/scenario"
)

func views(n int, responded ...int) []scenario.EventView {
	out := make([]scenario.EventView, n)
	for i := range out {
		out[i] = scenario.EventView{Event: client.Event{
			ID:      string(rune('a' + i)),
			Message: "event " + string(rune('a'+i)),
			Source:  "fw",
			Level:   client.LevelInfo,
		}}
	}
	for _, i := range responded {
		out[i].Response = &scenario.Response{EventID: out[i].ID, Evaluation: scenario.Evaluation{CorrectSuspicion: true, CorrectAction: true}}
	}
	return out
}

func TestCountsHeader(t *testing.T) {
	m := New()
	m.SetEvents(views(3, 1), "")
	total, responded := m.Counts()
	if total != 3 || responded != 1 {
		t.Errorf("Counts() = %d, %d", total, responded)
	}
	if out := m.View(); !strings.Contains(out, "3 events • 1 responded") {
		t.Errorf("header missing counts:\n%s", out)
	}
}

func TestEmptyFeed(t *testing.T) {
	m := New()
	if out := m.View(); !strings.Contains(out, "Waiting for events") {
		t.Errorf("empty feed:\n%s", out)
	}
	if _, ok := m.Selected(); ok {
		t.Error("Selected() ok on empty feed")
	}
}

func TestCursorMovementBounded(t *testing.T) {
	m := New()
	m.SetEvents(views(3), "")
	m.MoveUp()
	if m.Cursor() != 0 {
		t.Errorf("cursor = %d after MoveUp at top", m.Cursor())
	}
	for i := 0; i < 5; i++ {
		m.MoveDown()
	}
	if m.Cursor() != 2 {
		t.Errorf("cursor = %d, want 2", m.Cursor())
	}
	sel, ok := m.Selected()
	if !ok || sel.ID != "c" {
		t.Errorf("Selected() = %+v", sel)
	}
}

func TestCursorSurvivesGrowth(t *testing.T) {
	m := New()
	m.SetEvents(views(2), "")
	m.MoveDown()
	m.SetEvents(views(5), "")
	if sel, _ := m.Selected(); sel.ID != "b" {
		t.Errorf("cursor moved to %q after append", sel.ID)
	}
}

func TestRowShowsVerdict(t *testing.T) {
	m := New()
	m.Width = 100
	m.SetEvents(views(2, 0), "b")
	out := m.View()
	if !strings.Contains(out, "CORRECT") || !strings.Contains(out, "OPEN") {
		t.Errorf("verdict labels missing:\n%s", out)
	}
	if !strings.Contains(out, "»") {
		t.Errorf("pending marker missing:\n%s", out)
	}
}

func TestFeedbackForResolvedEventUnderCursor(t *testing.T) {
	m := New()
	m.Width = 100
	evs := views(2, 0)
	evs[0].Response.Evaluation.Score = 50
	evs[0].Response.Evaluation.Feedback = "Great detection!"
	m.SetEvents(evs, "")

	if out := m.View(); !strings.Contains(out, "50 pts") || !strings.Contains(out, "Great detection!") {
		t.Errorf("feedback missing:\n%s", out)
	}
	m.MoveDown()
	if out := m.View(); strings.Contains(out, "Great detection!") {
		t.Errorf("feedback shown for unresolved event:\n%s", out)
	}
}
