package scenario

import (
	"encoding/json"
	"testing"

	"github.com/RotemSwisa/incident-response-simulator/internal/client"
	"github.com/RotemSwisa/incident-response-simulator/internal/report"
)

func ev(id, msg string) client.Event {
	return client.Event{ID: id, Message: msg, Source: "test"}
}

func ids(views []EventView) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.ID
	}
	return out
}

func equalIDs(got []string, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestMergeAppendsNewInOrder(t *testing.T) {
	s := NewEventStore()
	added, _ := s.Merge([]client.Event{ev("e1", "a"), ev("e2", "b")})
	if len(added) != 2 {
		t.Fatalf("added %d, want 2", len(added))
	}
	added, _ = s.Merge([]client.Event{ev("e3", "c"), ev("e1", "a"), ev("e2", "b")})
	if len(added) != 1 || added[0].ID != "e3" {
		t.Errorf("second merge added %+v", added)
	}
	if got := ids(s.Views()); !equalIDs(got, "e1", "e2", "e3") {
		t.Errorf("order = %v", got)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	s := NewEventStore()
	batch := []client.Event{ev("e1", "a"), ev("e2", "b")}
	s.Merge(batch)
	added, conflicts := s.Merge(batch)
	if len(added) != 0 || len(conflicts) != 0 {
		t.Errorf("re-merge added=%v conflicts=%v", added, conflicts)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d", s.Len())
	}
}

func TestMergeSkipsEmptyIDs(t *testing.T) {
	s := NewEventStore()
	s.Merge([]client.Event{ev("", "nameless"), ev("e1", "a")})
	if s.Len() != 1 || !s.Has("e1") {
		t.Errorf("store = %v", ids(s.Views()))
	}
}

func TestMergeKeepsFirstObservation(t *testing.T) {
	s := NewEventStore()
	s.Merge([]client.Event{ev("e1", "original")})
	_, conflicts := s.Merge([]client.Event{ev("e1", "rewritten")})
	if len(conflicts) != 1 || conflicts[0] != "e1" {
		t.Errorf("conflicts = %v", conflicts)
	}
	if got := s.Views()[0].Message; got != "original" {
		t.Errorf("message = %q, want original", got)
	}
}

func TestAttachAtMostOnce(t *testing.T) {
	s := NewEventStore()
	s.Merge([]client.Event{ev("e1", "a")})

	if s.Attach(Response{EventID: "missing"}) {
		t.Error("Attach succeeded for unknown event")
	}
	if !s.Attach(Response{EventID: "e1", Action: client.ActionMonitor}) {
		t.Fatal("first Attach failed")
	}
	if s.Attach(Response{EventID: "e1", Action: client.ActionShutdown}) {
		t.Error("second Attach succeeded")
	}
	if got := s.Views()[0].Response.Action; got != client.ActionMonitor {
		t.Errorf("action = %s, want monitor", got)
	}
	if s.Responses() != 1 {
		t.Errorf("Responses = %d", s.Responses())
	}
}

func TestViewsAreCopies(t *testing.T) {
	s := NewEventStore()
	s.Merge([]client.Event{ev("e1", "a")})
	s.Attach(Response{EventID: "e1", Evaluation: Evaluation{Score: 50}})

	v := s.Views()
	v[0].Message = "changed"
	v[0].Response.Evaluation.Score = 0

	again := s.Views()[0]
	if again.Message != "a" || again.Response.Evaluation.Score != 50 {
		t.Errorf("store mutated through view: %+v", again)
	}
}

func TestEventViewVerdict(t *testing.T) {
	open := EventView{Event: ev("e1", "a")}
	if open.Verdict() != report.Unjudged || open.Resolved() {
		t.Errorf("open verdict = %s", open.Verdict())
	}
	done := EventView{Event: ev("e2", "b"), Response: &Response{Evaluation: Evaluation{CorrectSuspicion: true}}}
	if done.Verdict() != report.PartiallyCorrect {
		t.Errorf("done verdict = %s", done.Verdict())
	}
}

func TestStatusJSON(t *testing.T) {
	data, err := json.Marshal(Completed)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"completed"` {
		t.Errorf("marshal = %s", data)
	}
	var s Status
	if err := json.Unmarshal([]byte(`"active"`), &s); err != nil || s != Active {
		t.Errorf("unmarshal = %v, %v", s, err)
	}
	s = Active
	if err := json.Unmarshal([]byte(`"paused"`), &s); err == nil {
		t.Error("unknown status name decoded without error")
	}
	if s != Active {
		t.Errorf("failed decode changed status to %s", s)
	}
	if Status(42).String() != "unknown" {
		t.Errorf("unknown status = %q", Status(42).String())
	}
}

func TestShouldPoll(t *testing.T) {
	tests := []struct {
		status  Status
		pending bool
		want    bool
	}{
		{NotStarted, false, false},
		{Active, false, true},
		{Active, true, false},
		{Completed, false, false},
	}
	for _, tt := range tests {
		if got := ShouldPoll(tt.status, tt.pending); got != tt.want {
			t.Errorf("ShouldPoll(%s, %v) = %v, want %v", tt.status, tt.pending, got, tt.want)
		}
	}
}
