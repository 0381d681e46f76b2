package report

import (
	"fmt"
	"strings"

	"github.com/RotemSwisa/incident-response-simulator/internal/client"
)

// ValidationError reports a summary payload that lacks a required part or
// carries an impossible value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("summary: %s %s", e.Field, e.Reason)
}

// Totals are the aggregate counters reported by the service.
type Totals struct {
	Events     int
	Suspicious int
	Normal     int
	Responded  int
	Unanswered int
	// ResponseRate is a percentage in [0, 100].
	ResponseRate float64
}

// Score is the headline result.
type Score struct {
	Total    int
	Max      int
	Accuracy float64
	Grade    string
}

// EventResult is one row of the per-event breakdown.
type EventResult struct {
	EventID         string
	Message         string
	Explanation     string
	Suspicious      bool
	CorrectActions  []client.Action
	Responded       bool
	MarkedSuspicion *bool
	Action          *client.Action
	Points          int
	Verdict         Verdict
}

// Summary is a validated, read-only view over a summary payload. Nothing is
// recomputed; every figure comes from the service.
type Summary struct {
	sessionID       string
	scenarioName    string
	score           Score
	totals          Totals
	breakdown       *client.AccuracyBreakdown
	results         []EventResult
	recommendations []string
}

// Load validates p and wraps it. The returned Summary shares no memory
// with p.
func Load(p *client.SummaryPayload) (*Summary, error) {
	if p == nil {
		return nil, &ValidationError{Field: "payload", Reason: "is empty"}
	}
	if p.OverallPerformance == nil {
		return nil, &ValidationError{Field: "overall_performance", Reason: "is missing"}
	}
	if p.EventStatistics == nil {
		return nil, &ValidationError{Field: "event_statistics", Reason: "is missing"}
	}
	if p.DetailedResults == nil {
		return nil, &ValidationError{Field: "detailed_results", Reason: "is missing"}
	}
	if p.Recommendations == nil {
		return nil, &ValidationError{Field: "recommendations", Reason: "is missing"}
	}

	op, es := p.OverallPerformance, p.EventStatistics
	counts := []struct {
		field string
		n     int
	}{
		{"overall_performance.total_score", op.TotalScore},
		{"overall_performance.max_possible_score", op.MaxPossibleScore},
		{"event_statistics.total_events", es.TotalEvents},
		{"event_statistics.total_suspicious_events", es.TotalSuspiciousEvents},
		{"event_statistics.total_normal_events", es.TotalNormalEvents},
		{"event_statistics.events_responded_to", es.EventsRespondedTo},
		{"event_statistics.unanswered_events", es.UnansweredEvents},
	}
	for _, c := range counts {
		if c.n < 0 {
			return nil, &ValidationError{Field: c.field, Reason: "is negative"}
		}
	}

	s := &Summary{
		sessionID:    p.SessionID,
		scenarioName: p.ScenarioName,
		score: Score{
			Total:    op.TotalScore,
			Max:      op.MaxPossibleScore,
			Accuracy: op.OverallAccuracy,
			Grade:    op.LetterGrade,
		},
		totals: Totals{
			Events:       es.TotalEvents,
			Suspicious:   es.TotalSuspiciousEvents,
			Normal:       es.TotalNormalEvents,
			Responded:    es.EventsRespondedTo,
			Unanswered:   es.UnansweredEvents,
			ResponseRate: es.ResponseRate,
		},
		recommendations: append([]string{}, p.Recommendations...),
	}
	if p.AccuracyBreakdown != nil {
		b := *p.AccuracyBreakdown
		s.breakdown = &b
	}

	s.results = make([]EventResult, 0, len(p.DetailedResults))
	for i, d := range p.DetailedResults {
		if d.EventID == "" {
			return nil, &ValidationError{Field: fmt.Sprintf("detailed_results[%d].event_id", i), Reason: "is empty"}
		}
		r := EventResult{
			EventID:        d.EventID,
			Message:        d.Message,
			Explanation:    d.Explanation,
			Suspicious:     d.ActualSuspicion,
			CorrectActions: append([]client.Action{}, d.CorrectActionOptions...),
			Responded:      d.Responded,
			Points:         d.PointsEarned,
			Verdict:        Classify(d.Responded, d.SuspicionCorrect, d.ActionCorrect),
		}
		if d.StudentMarkedSuspicious != nil {
			v := *d.StudentMarkedSuspicious
			r.MarkedSuspicion = &v
		}
		if d.StudentAction != nil {
			a := *d.StudentAction
			r.Action = &a
		}
		s.results = append(s.results, r)
	}
	return s, nil
}

func (s *Summary) SessionID() string    { return s.sessionID }
func (s *Summary) ScenarioName() string { return s.scenarioName }
func (s *Summary) Score() Score         { return s.score }
func (s *Summary) Totals() Totals       { return s.totals }

// Accuracy returns the overall accuracy percentage.
func (s *Summary) Accuracy() float64 { return s.score.Accuracy }

// Grade returns the letter grade.
func (s *Summary) Grade() string { return s.score.Grade }

// AccuracyBreakdown returns the suspicion/action split, if the service sent it.
func (s *Summary) AccuracyBreakdown() (client.AccuracyBreakdown, bool) {
	if s.breakdown == nil {
		return client.AccuracyBreakdown{}, false
	}
	return *s.breakdown, true
}

// Breakdown returns a copy of the per-event results in service order.
func (s *Summary) Breakdown() []EventResult {
	out := make([]EventResult, len(s.results))
	copy(out, s.results)
	return out
}

// Recommendations returns a copy of the service's recommendations.
func (s *Summary) Recommendations() []string {
	return append([]string{}, s.recommendations...)
}

// Markdown renders the summary as a markdown document.
func (s *Summary) Markdown() string {
	var b strings.Builder

	title := s.scenarioName
	if title == "" {
		title = "Scenario"
	}
	fmt.Fprintf(&b, "# %s: Performance Summary\n\n", title)
	fmt.Fprintf(&b, "**Grade %s** with %.1f%% accuracy (%d / %d points)\n\n",
		gradeOrDash(s.score.Grade), s.score.Accuracy, s.score.Total, s.score.Max)

	b.WriteString("## Events\n\n")
	b.WriteString("| Total | Suspicious | Normal | Responded | Unanswered | Response rate |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	t := s.totals
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %.1f%% |\n\n",
		t.Events, t.Suspicious, t.Normal, t.Responded, t.Unanswered, t.ResponseRate)

	if ab, ok := s.AccuracyBreakdown(); ok {
		b.WriteString("## Accuracy\n\n")
		fmt.Fprintf(&b, "- Suspicion: %d correct (%.1f%%)\n", ab.CorrectSuspicions, ab.SuspicionAccuracy)
		fmt.Fprintf(&b, "- Action: %d correct (%.1f%%)\n\n", ab.CorrectActions, ab.ActionAccuracy)
	}

	if len(s.results) > 0 {
		b.WriteString("## Breakdown\n\n")
		for _, r := range s.results {
			fmt.Fprintf(&b, "### %s `%s`\n\n", r.Verdict.Label(), r.EventID)
			if r.Message != "" {
				fmt.Fprintf(&b, "> %s\n\n", r.Message)
			}
			if r.Responded {
				fmt.Fprintf(&b, "- Your call: %s, %s (%d pts)\n", suspicionWord(r.MarkedSuspicion), actionLabel(r.Action), r.Points)
			} else {
				b.WriteString("- Not answered\n")
			}
			fmt.Fprintf(&b, "- Expected: %s, one of %s\n", suspicionWord(&r.Suspicious), joinActions(r.CorrectActions))
			if r.Explanation != "" {
				fmt.Fprintf(&b, "- %s\n", r.Explanation)
			}
			b.WriteString("\n")
		}
	}

	if len(s.recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, rec := range s.recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
	}
	return b.String()
}

func gradeOrDash(g string) string {
	if g == "" {
		return "-"
	}
	return g
}

func suspicionWord(v *bool) string {
	switch {
	case v == nil:
		return "unmarked"
	case *v:
		return "suspicious"
	default:
		return "normal"
	}
}

func actionLabel(a *client.Action) string {
	if a == nil {
		return "no action"
	}
	return a.Label()
}

func joinActions(actions []client.Action) string {
	if len(actions) == 0 {
		return "none"
	}
	labels := make([]string, len(actions))
	for i, a := range actions {
		labels[i] = a.Label()
	}
	return strings.Join(labels, ", ")
}
