// Package scenario tracks one training session against the scoring service:
// its lifecycle, the locally merged event log, the trainee's responses and
// the terminal summary.
package scenario

import (
	"encoding/json"
	"fmt"
	"time"
)

type Status int

const (
	NotStarted Status = iota
	Active
	Completed
)

var statusNames = map[Status]string{
	NotStarted: "not_started",
	Active:     "active",
	Completed:  "completed",
}

var statusFromName = map[string]Status{
	"not_started": NotStarted,
	"active":      Active,
	"completed":   Completed,
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var n string
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	v, ok := statusFromName[n]
	if !ok {
		return fmt.Errorf("unknown session status %q", n)
	}
	*s = v
	return nil
}

// Session is the client's view of the server-assigned session.
type Session struct {
	ID           string    `json:"id,omitempty"`
	Status       Status    `json:"status"`
	ScenarioID   string    `json:"scenarioId,omitempty"`
	ScenarioName string    `json:"scenarioName,omitempty"`
	TotalEvents  int       `json:"totalEvents,omitempty"`
	StartedAt    time.Time `json:"startedAt,omitempty"`
}

// ShouldPoll reports whether a scheduled sync should fetch now.
func ShouldPoll(status Status, pending bool) bool {
	return status == Active && !pending
}
