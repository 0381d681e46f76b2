package status

import (
	"strings"
	"testing"

	"github.com/RotemSwisa/incident-response-simulator/internal/scenario"
)

func TestViewStates(t *testing.T) {
	tests := []struct {
		name string
		m    Model
		want []string
	}{
		{
			name: "idle",
			m:    Model{Width: 100},
			want: []string{"No session"},
		},
		{
			name: "active",
			m: Model{
				Width:     120,
				Session:   scenario.Session{ID: "s1", Status: scenario.Active, ScenarioName: "Phishing", TotalEvents: 16},
				Events:    4,
				Responded: 1,
			},
			want: []string{"Active", "Phishing", "4/16 events", "1 responded", "in sync"},
		},
		{
			name: "failing",
			m: Model{
				Width:        120,
				Session:      scenario.Session{ID: "s1", Status: scenario.Active},
				SyncFailures: 3,
				Errors:       3,
			},
			want: []string{"sync failing (3)", "3 errors"},
		},
		{
			name: "completed",
			m:    Model{Width: 120, Session: scenario.Session{ID: "s1", Status: scenario.Completed, ScenarioID: "advanced_phishing"}},
			want: []string{"Completed", "advanced_phishing"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.m.View()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("view missing %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestCompletedHidesSyncState(t *testing.T) {
	m := Model{Width: 120, Session: scenario.Session{ID: "s1", Status: scenario.Completed}}
	if out := m.View(); strings.Contains(out, "in sync") {
		t.Errorf("completed session shows sync state:\n%s", out)
	}
}
