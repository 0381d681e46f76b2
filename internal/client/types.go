// Package client provides the HTTP client for the incident-response scoring
// service. Types mirror the service's JSON wire format.
package client

import (
	"encoding/json"
	"strings"
	"time"
)

// Level is the severity the service attaches to an event.
type Level string

const (
	LevelInfo     Level = "INFO"
	LevelWarning  Level = "WARNING"
	LevelCritical Level = "CRITICAL"
)

// Timestamp decodes the service's ISO-8601 instants. The service emits them
// without a zone offset, so zone-less values are read as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// Event is one entry of a session's remote event log. The service also sends
// the ground-truth is_suspicious flag; it is intentionally not decoded.
type Event struct {
	ID        string    `json:"event_id"`
	Message   string    `json:"message"`
	Source    string    `json:"source"`
	Timestamp Timestamp `json:"timestamp"`
	Level     Level     `json:"level,omitempty"`
	EventType string    `json:"event_type,omitempty"`
}

// --- request/response payloads ---

// StartResponse is returned by POST /scenarios/complex/{scenario}/start.
type StartResponse struct {
	SessionID    string `json:"session_id"`
	ScenarioID   string `json:"scenario_id,omitempty"`
	ScenarioName string `json:"scenario_name,omitempty"`
	TotalEvents  int    `json:"total_events,omitempty"`
	Message      string `json:"message,omitempty"`
}

// EventsResponse is returned by GET /scenarios/complex/{session}/events.
type EventsResponse struct {
	SessionID string  `json:"session_id"`
	Events    []Event `json:"events"`
	Count     int     `json:"count"`
	Timestamp string  `json:"timestamp,omitempty"`
}

// RespondRequest is the body of POST /scenarios/complex/{session}/respond.
type RespondRequest struct {
	EventID      string `json:"event_id"`
	Action       Action `json:"action"`
	IsSuspicious bool   `json:"is_suspicious"`
}

// EvaluationPayload is the verdict the service computed for one response.
type EvaluationPayload struct {
	EventID            string `json:"event_id"`
	Action             Action `json:"action"`
	IsSuspiciousMarked bool   `json:"is_suspicious_marked"`
	Timestamp          string `json:"timestamp,omitempty"`
	CorrectSuspicion   bool   `json:"correct_suspicion"`
	CorrectAction      bool   `json:"correct_action"`
	Score              int    `json:"score"`
}

// Feedback is the service's explanation of an evaluation.
type Feedback struct {
	SuspicionFeedback string   `json:"suspicion_feedback"`
	ActionFeedback    string   `json:"action_feedback"`
	Recommendations   []string `json:"recommendations,omitempty"`
}

// Text joins the feedback into a single paragraph.
func (f Feedback) Text() string {
	var parts []string
	for _, s := range []string{f.SuspicionFeedback, f.ActionFeedback} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	parts = append(parts, f.Recommendations...)
	return strings.Join(parts, " ")
}

// RespondResponse is returned by POST /scenarios/complex/{session}/respond.
type RespondResponse struct {
	Status     string             `json:"status"`
	Evaluation *EvaluationPayload `json:"evaluation"`
	Feedback   Feedback           `json:"feedback"`
}

// OverallPerformance is the headline block of a summary.
type OverallPerformance struct {
	TotalScore       int     `json:"total_score"`
	MaxPossibleScore int     `json:"max_possible_score"`
	OverallAccuracy  float64 `json:"overall_accuracy"`
	LetterGrade      string  `json:"letter_grade"`
}

// EventStatistics counts the events the service knows about.
type EventStatistics struct {
	TotalEvents           int     `json:"total_events"`
	TotalSuspiciousEvents int     `json:"total_suspicious_events"`
	TotalNormalEvents     int     `json:"total_normal_events"`
	EventsRespondedTo     int     `json:"events_responded_to"`
	UnansweredEvents      int     `json:"unanswered_events"`
	ResponseRate          float64 `json:"response_rate"`
}

// AccuracyBreakdown splits accuracy into the suspicion and action halves.
type AccuracyBreakdown struct {
	CorrectSuspicions int     `json:"correct_suspicions"`
	CorrectActions    int     `json:"correct_actions"`
	SuspicionAccuracy float64 `json:"suspicion_accuracy"`
	ActionAccuracy    float64 `json:"action_accuracy"`
}

// DetailedResult is the per-event row of a summary.
type DetailedResult struct {
	EventID                 string   `json:"event_id"`
	Message                 string   `json:"message"`
	ActualSuspicion         bool     `json:"actual_suspicion"`
	CorrectActionOptions    []Action `json:"correct_action_options"`
	Explanation             string   `json:"explanation"`
	Responded               bool     `json:"responded"`
	StudentMarkedSuspicious *bool    `json:"student_marked_suspicious"`
	StudentAction           *Action  `json:"student_action"`
	SuspicionCorrect        bool     `json:"suspicion_correct"`
	ActionCorrect           bool     `json:"action_correct"`
	PointsEarned            int      `json:"points_earned"`
}

// SummaryPayload is returned by GET /scenarios/complex/{session}/summary.
// Required blocks are pointers so a missing block can be told apart from a
// zero one.
type SummaryPayload struct {
	SessionID          string              `json:"session_id"`
	ScenarioName       string              `json:"scenario_name,omitempty"`
	OverallPerformance *OverallPerformance `json:"overall_performance"`
	EventStatistics    *EventStatistics    `json:"event_statistics"`
	AccuracyBreakdown  *AccuracyBreakdown  `json:"accuracy_breakdown,omitempty"`
	DetailedResults    []DetailedResult    `json:"detailed_results"`
	Recommendations    []string            `json:"recommendations"`
}
