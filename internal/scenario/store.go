package scenario

import (
	"time"

	"github.com/RotemSwisa/incident-response-simulator/internal/client"
	"github.com/RotemSwisa/incident-response-simulator/internal/report"
)

// Evaluation is the service's verdict on one response.
type Evaluation struct {
	CorrectSuspicion bool
	CorrectAction    bool
	Score            int
	Feedback         string
}

// Response is the trainee's judgment on an event plus its evaluation.
type Response struct {
	EventID          string
	Action           client.Action
	MarkedSuspicious bool
	Evaluation       Evaluation
	RespondedAt      time.Time
}

// EventView pairs an event with its response, if any.
type EventView struct {
	client.Event
	Response *Response
}

func (v EventView) Resolved() bool { return v.Response != nil }

func (v EventView) Verdict() report.Verdict {
	if v.Response == nil {
		return report.Unjudged
	}
	e := v.Response.Evaluation
	return report.Classify(true, e.CorrectSuspicion, e.CorrectAction)
}

type record struct {
	event    client.Event
	response *Response
}

// EventStore is the ordered, append-only local event log. Events are keyed
// by id; once stored an event never changes or moves. Not safe for
// concurrent use; Trainer serializes access.
type EventStore struct {
	order []string
	byID  map[string]*record
}

// NewEventStore returns an empty log.
func NewEventStore() *EventStore {
	return &EventStore{byID: make(map[string]*record)}
}

// Merge appends events whose id is new, in the order given, and returns
// them. Events with an empty or known id are skipped; conflicts lists known
// ids whose incoming fields differ from the stored ones.
func (s *EventStore) Merge(events []client.Event) (added []client.Event, conflicts []string) {
	for _, ev := range events {
		if ev.ID == "" {
			continue
		}
		if existing, ok := s.byID[ev.ID]; ok {
			if !sameEvent(existing.event, ev) {
				conflicts = append(conflicts, ev.ID)
			}
			continue
		}
		s.byID[ev.ID] = &record{event: ev}
		s.order = append(s.order, ev.ID)
		added = append(added, ev)
	}
	return added, conflicts
}

func sameEvent(a, b client.Event) bool {
	return a.Message == b.Message &&
		a.Source == b.Source &&
		a.Timestamp.Equal(b.Timestamp.Time) &&
		a.Level == b.Level &&
		a.EventType == b.EventType
}

// Len returns the number of stored events.
func (s *EventStore) Len() int { return len(s.order) }

// Has reports whether an event with id is stored.
func (s *EventStore) Has(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// Responded reports whether the event with id has a response.
func (s *EventStore) Responded(id string) bool {
	r, ok := s.byID[id]
	return ok && r.response != nil
}

// Attach records resp against its event. It reports false if the event is
// unknown or already has a response.
func (s *EventStore) Attach(resp Response) bool {
	r, ok := s.byID[resp.EventID]
	if !ok || r.response != nil {
		return false
	}
	r.response = &resp
	return true
}

// Responses returns the number of events with a response.
func (s *EventStore) Responses() int {
	n := 0
	for _, r := range s.byID {
		if r.response != nil {
			n++
		}
	}
	return n
}

// Views returns a copy of the log in arrival order.
func (s *EventStore) Views() []EventView {
	out := make([]EventView, 0, len(s.order))
	for _, id := range s.order {
		r := s.byID[id]
		v := EventView{Event: r.event}
		if r.response != nil {
			resp := *r.response
			v.Response = &resp
		}
		out = append(out, v)
	}
	return out
}
