package client

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestampUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339", `"2025-03-01T10:00:00Z"`, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"offset", `"2025-03-01T12:00:00+02:00"`, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"zoneless micros", `"2025-03-01T10:00:00.5"`, time.Date(2025, 3, 1, 10, 0, 0, 500000000, time.UTC)},
		{"zoneless seconds", `"2025-03-01T10:00:00"`, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"space separated", `"2025-03-01 10:00:00"`, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"null", `null`, time.Time{}},
		{"empty", `""`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			if err := json.Unmarshal([]byte(tt.in), &ts); err != nil {
				t.Fatalf("Unmarshal(%s): %v", tt.in, err)
			}
			if !ts.Equal(tt.want) {
				t.Errorf("got %v, want %v", ts.Time, tt.want)
			}
		})
	}
}

func TestTimestampUnmarshalRejectsGarbage(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
		t.Error("expected error for unparseable timestamp")
	}
}

func TestTimestampMarshalZeroIsNull(t *testing.T) {
	data, err := json.Marshal(Timestamp{})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "null" {
		t.Errorf("got %s, want null", data)
	}
}

func TestEventIgnoresGroundTruthField(t *testing.T) {
	var ev Event
	in := `{"event_id":"e1","message":"m","source":"s","timestamp":"2025-03-01T10:00:00","is_suspicious":true}`
	if err := json.Unmarshal([]byte(in), &ev); err != nil {
		t.Fatal(err)
	}
	out, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatal(err)
	}
	if _, ok := m["is_suspicious"]; ok {
		t.Error("ground truth leaked into decoded event")
	}
}

func TestSummaryMissingBlocksStayNil(t *testing.T) {
	var p SummaryPayload
	if err := json.Unmarshal([]byte(`{"session_id":"s1","detailed_results":[]}`), &p); err != nil {
		t.Fatal(err)
	}
	if p.OverallPerformance != nil || p.EventStatistics != nil {
		t.Errorf("missing blocks decoded as non-nil: %+v", p)
	}
}

func TestDetailedResultUnansweredHasNilChoices(t *testing.T) {
	var d DetailedResult
	in := `{"event_id":"e1","responded":false,"student_marked_suspicious":null,"student_action":null}`
	if err := json.Unmarshal([]byte(in), &d); err != nil {
		t.Fatal(err)
	}
	if d.StudentMarkedSuspicious != nil || d.StudentAction != nil {
		t.Errorf("unanswered row has choices: %+v", d)
	}
}

func TestParseAction(t *testing.T) {
	for _, e := range Catalog() {
		got, err := ParseAction(string(e.Action))
		if err != nil || got != e.Action {
			t.Errorf("ParseAction(%q) = %q, %v", e.Action, got, err)
		}
	}
	if _, err := ParseAction("nuke"); err == nil {
		t.Error("ParseAction accepted unknown action")
	}
	if len(Catalog()) != 6 {
		t.Errorf("catalog has %d actions, want 6", len(Catalog()))
	}
}

func TestActionLabelFallsBackToRaw(t *testing.T) {
	if got := ActionBlockIP.Label(); got != "Block IP/Domain" {
		t.Errorf("label = %q", got)
	}
	if got := Action("custom").Label(); got != "custom" {
		t.Errorf("label = %q", got)
	}
}
