package activity

import (
	"strings"
	"testing"
	"time"
)

func TestAddEntry(t *testing.T) {
	m := New()
	m.Add(KindSync, "+2 events")
	if len(m.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(m.Entries))
	}
	if m.Entries[0].Kind != KindSync {
		t.Errorf("expected kind %q, got %q", KindSync, m.Entries[0].Kind)
	}
}

func TestMaxEntries(t *testing.T) {
	m := New()
	for i := 0; i < maxEntries+50; i++ {
		m.Add(KindSync, "msg")
	}
	if len(m.Entries) != maxEntries {
		t.Errorf("expected %d entries, got %d", maxEntries, len(m.Entries))
	}
}

func TestErrorfCountsErrors(t *testing.T) {
	m := New()
	m.Add(KindSession, "started")
	m.Errorf("sync failed: %s", "timeout")
	m.Errorf("submit failed")
	if got := m.Errors(); got != 2 {
		t.Errorf("Errors() = %d, want 2", got)
	}
	if m.Entries[1].Message != "sync failed: timeout" {
		t.Errorf("message = %q", m.Entries[1].Message)
	}
}

func TestScrollUpDown(t *testing.T) {
	m := New()
	for i := 0; i < 20; i++ {
		m.Add(KindSync, "msg")
	}
	m.ScrollUp(5)
	if m.Offset != 5 {
		t.Errorf("expected offset 5, got %d", m.Offset)
	}
	m.ScrollDown(3)
	if m.Offset != 2 {
		t.Errorf("expected offset 2, got %d", m.Offset)
	}
	m.ScrollDown(10)
	if m.Offset != 0 {
		t.Errorf("expected offset 0, got %d", m.Offset)
	}
	m.ScrollUp(100)
	if m.Offset != 19 {
		t.Errorf("expected offset capped at 19, got %d", m.Offset)
	}
	m.Add(KindSync, "new")
	if m.Offset != 0 {
		t.Error("Add did not reset scroll")
	}
}

func TestViewEmpty(t *testing.T) {
	m := New()
	if out := m.View(80, 24); !strings.Contains(out, "Nothing has happened yet") {
		t.Errorf("empty view missing placeholder:\n%s", out)
	}
}

func TestViewShowsEntries(t *testing.T) {
	m := New()
	m.now = func() time.Time { return time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC) }
	m.Errorf("summary fetch failed")
	out := m.View(100, 24)
	if !strings.Contains(out, "summary fetch failed") || !strings.Contains(out, "09:30:00.000") {
		t.Errorf("view missing entry:\n%s", out)
	}
}
