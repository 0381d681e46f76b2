package scenario

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/RotemSwisa/incident-response-simulator/internal/client"
	"github.com/RotemSwisa/incident-response-simulator/internal/report"
)

// API is the subset of the scoring service a Trainer needs.
// *client.HTTPClient satisfies it.
type API interface {
	StartSession(ctx context.Context, scenarioID string) (*client.StartResponse, error)
	ListEvents(ctx context.Context, sessionID string) (*client.EventsResponse, error)
	Respond(ctx context.Context, sessionID string, req client.RespondRequest) (*client.RespondResponse, error)
	Summary(ctx context.Context, sessionID string) (*client.SummaryPayload, error)
}

// SyncResult describes the effect of one successful sync.
type SyncResult struct {
	Added []client.Event
	Total int
}

// PollState is what the polling schedule needs to decide whether to fetch.
type PollState struct {
	SessionID string
	Status    Status
	Pending   bool
}

// Snapshot is a consistent copy of everything a view renders.
type Snapshot struct {
	Session    Session
	Events     []EventView
	Responded  int
	Pending    string
	Submitting bool
	Completing bool
	Summary    *report.Summary
}

// Trainer owns all session-scoped state. It is safe for concurrent use; the
// lock is never held across a network call, and results that come back for
// a session that has since been reset or replaced are discarded.
type Trainer struct {
	api        API
	scenarioID string
	logger     *log.Logger
	now        func() time.Time

	mu         sync.Mutex
	generation uint64
	session    Session
	store      *EventStore
	pending    string
	starting   bool
	syncing    bool
	submitting bool
	completing bool
	summary    *report.Summary
	// ended is closed when the active session stops being active.
	ended chan struct{}
}

var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// TrainerOption configures a Trainer.
type TrainerOption func(*Trainer)

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(l *log.Logger) TrainerOption {
	return func(t *Trainer) {
		t.logger = l
	}
}

// WithClock overrides time.Now for response timestamps.
func WithClock(now func() time.Time) TrainerOption {
	return func(t *Trainer) {
		t.now = now
	}
}

// NewTrainer returns a Trainer for scenarioID with no session.
func NewTrainer(api API, scenarioID string, opts ...TrainerOption) *Trainer {
	t := &Trainer{
		api:        api,
		scenarioID: scenarioID,
		logger:     log.Default(),
		now:        time.Now,
		store:      NewEventStore(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start opens a new session. While a session is active it returns that
// session without contacting the service. A completed session must be Reset
// first.
func (t *Trainer) Start(ctx context.Context) (Session, error) {
	t.mu.Lock()
	switch {
	case t.session.Status == Active:
		s := t.session
		t.mu.Unlock()
		return s, nil
	case t.session.Status == Completed:
		t.mu.Unlock()
		return Session{}, ErrSessionCompleted
	case t.starting:
		t.mu.Unlock()
		return Session{}, ErrBusy
	}
	t.starting = true
	gen := t.generation
	t.mu.Unlock()

	resp, err := t.api.StartSession(ctx, t.scenarioID)

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.generation {
		t.logger.Printf("[session] discarding start result after reset")
		return Session{}, ErrStaleResponse
	}
	t.starting = false
	if err != nil {
		serr := &SessionStartError{Scenario: t.scenarioID, Err: err}
		t.logger.Printf("[session] %v", serr)
		return Session{}, serr
	}

	t.generation++
	t.session = Session{
		ID:           resp.SessionID,
		Status:       Active,
		ScenarioID:   t.scenarioID,
		ScenarioName: resp.ScenarioName,
		TotalEvents:  resp.TotalEvents,
		StartedAt:    t.now(),
	}
	t.store = NewEventStore()
	t.pending = ""
	t.summary = nil
	t.ended = make(chan struct{})
	t.logger.Printf("[session] started %s (scenario=%s, %d events)", resp.SessionID, t.scenarioID, resp.TotalEvents)
	return t.session, nil
}

// Sync fetches the remote event log and appends new events.
func (t *Trainer) Sync(ctx context.Context) (SyncResult, error) {
	t.mu.Lock()
	if t.session.Status != Active {
		t.mu.Unlock()
		return SyncResult{}, ErrNoSession
	}
	if t.syncing {
		t.mu.Unlock()
		return SyncResult{}, ErrBusy
	}
	t.syncing = true
	gen, sid := t.generation, t.session.ID
	t.mu.Unlock()

	resp, err := t.api.ListEvents(ctx, sid)

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.generation || t.session.Status != Active {
		if gen == t.generation {
			t.syncing = false
		}
		t.logger.Printf("[sync] discarding events for %s; session no longer active", sid)
		return SyncResult{}, ErrStaleResponse
	}
	t.syncing = false
	if err != nil {
		serr := &SyncError{SessionID: sid, Err: err}
		t.logger.Printf("[sync] %v", serr)
		return SyncResult{}, serr
	}

	added, conflicts := t.store.Merge(resp.Events)
	for _, id := range conflicts {
		t.logger.Printf("[sync] event %s changed remotely; keeping first observation", id)
	}
	if len(added) > 0 {
		t.logger.Printf("[sync] %s: +%d events (%d total)", sid, len(added), t.store.Len())
	}
	return SyncResult{Added: added, Total: t.store.Len()}, nil
}

// Select makes eventID the pending response target. It is a no-op returning
// false unless the session is active, the event is known and unanswered,
// and nothing else is pending.
func (t *Trainer) Select(eventID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session.Status != Active || t.pending != "" || t.submitting || t.completing {
		return false
	}
	if !t.store.Has(eventID) || t.store.Responded(eventID) {
		return false
	}
	t.pending = eventID
	return true
}

// Cancel clears the pending target. It is a no-op while a submission is in
// flight.
func (t *Trainer) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == "" || t.submitting {
		return false
	}
	t.pending = ""
	return true
}

// Submit sends the trainee's judgment on the pending event. On success the
// response and its evaluation are recorded together and the selection is
// cleared; on failure nothing is recorded and the selection is kept.
func (t *Trainer) Submit(ctx context.Context, action client.Action, suspicious bool) (Evaluation, error) {
	t.mu.Lock()
	switch {
	case t.session.Status != Active:
		t.mu.Unlock()
		return Evaluation{}, ErrNoSession
	case t.pending == "":
		t.mu.Unlock()
		return Evaluation{}, ErrNoSelection
	case t.store.Responded(t.pending):
		t.mu.Unlock()
		return Evaluation{}, ErrAlreadyResponded
	case t.submitting:
		t.mu.Unlock()
		return Evaluation{}, ErrSubmitInFlight
	case t.completing:
		t.mu.Unlock()
		return Evaluation{}, ErrBusy
	case !action.Valid():
		t.mu.Unlock()
		return Evaluation{}, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	t.submitting = true
	gen, sid, eventID := t.generation, t.session.ID, t.pending
	t.mu.Unlock()

	resp, err := t.api.Respond(ctx, sid, client.RespondRequest{
		EventID:      eventID,
		Action:       action,
		IsSuspicious: suspicious,
	})

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.generation || t.session.Status != Active {
		if gen == t.generation {
			t.submitting = false
		}
		t.logger.Printf("[submit] discarding evaluation for %s; session no longer active", eventID)
		return Evaluation{}, ErrStaleResponse
	}
	t.submitting = false
	if err == nil && resp.Evaluation.EventID != "" && resp.Evaluation.EventID != eventID {
		err = fmt.Errorf("evaluation is for event %s", resp.Evaluation.EventID)
	}
	if err != nil {
		serr := &SubmitError{EventID: eventID, Err: err}
		t.logger.Printf("[submit] %v", serr)
		return Evaluation{}, serr
	}

	eval := Evaluation{
		CorrectSuspicion: resp.Evaluation.CorrectSuspicion,
		CorrectAction:    resp.Evaluation.CorrectAction,
		Score:            resp.Evaluation.Score,
		Feedback:         resp.Feedback.Text(),
	}
	t.store.Attach(Response{
		EventID:          eventID,
		Action:           action,
		MarkedSuspicious: suspicious,
		Evaluation:       eval,
		RespondedAt:      t.now(),
	})
	t.pending = ""
	t.logger.Printf("[submit] %s: action=%s suspicious=%v score=%d", eventID, action, suspicious, eval.Score)
	return eval, nil
}

// Complete fetches the summary and ends the session. Once completed it
// returns the cached summary without contacting the service.
func (t *Trainer) Complete(ctx context.Context) (*report.Summary, error) {
	t.mu.Lock()
	switch {
	case t.session.Status == Completed:
		s := t.summary
		t.mu.Unlock()
		return s, nil
	case t.session.Status != Active:
		t.mu.Unlock()
		return nil, ErrNoSession
	case t.completing:
		t.mu.Unlock()
		return nil, ErrBusy
	case t.submitting:
		t.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	t.completing = true
	gen, sid := t.generation, t.session.ID
	t.mu.Unlock()

	summary, err := t.fetchSummary(ctx, sid)

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.generation {
		t.logger.Printf("[session] discarding summary for %s after reset", sid)
		return nil, ErrStaleResponse
	}
	t.completing = false
	if err != nil {
		serr := &SummaryFetchError{SessionID: sid, Err: err}
		t.logger.Printf("[session] %v", serr)
		return nil, serr
	}

	t.session.Status = Completed
	t.pending = ""
	t.summary = summary
	t.endSession()
	t.logger.Printf("[session] completed %s: grade %s, %.1f%%", sid, summary.Grade(), summary.Accuracy())
	return summary, nil
}

func (t *Trainer) fetchSummary(ctx context.Context, sid string) (*report.Summary, error) {
	payload, err := t.api.Summary(ctx, sid)
	if err != nil {
		return nil, err
	}
	return report.Load(payload)
}

// Reset discards the session and all local state. In-flight requests for
// the old session are ignored when they return.
func (t *Trainer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session.ID != "" {
		t.logger.Printf("[session] reset %s", t.session.ID)
	}
	t.generation++
	t.session = Session{}
	t.store = NewEventStore()
	t.pending = ""
	t.starting = false
	t.syncing = false
	t.submitting = false
	t.completing = false
	t.summary = nil
	t.endSession()
}

// endSession wakes anything waiting on sessionEnded. Callers hold t.mu.
func (t *Trainer) endSession() {
	if t.ended != nil {
		close(t.ended)
		t.ended = nil
	}
}

// sessionEnded returns a channel that is closed once session sid is no
// longer the active session. It is already closed if sid is not active.
func (t *Trainer) sessionEnded(sid string) <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session.Status != Active || t.session.ID != sid || t.ended == nil {
		return closedChan
	}
	return t.ended
}

// Session returns a copy of the current session.
func (t *Trainer) Session() Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}

// Pending returns the selected event id, if any.
func (t *Trainer) Pending() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending, t.pending != ""
}

// PollState returns the session id, status and whether a selection is pending.
func (t *Trainer) PollState() PollState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return PollState{
		SessionID: t.session.ID,
		Status:    t.session.Status,
		Pending:   t.pending != "",
	}
}

// Snapshot returns a copy of the session, event log and flags.
func (t *Trainer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		Session:    t.session,
		Events:     t.store.Views(),
		Responded:  t.store.Responses(),
		Pending:    t.pending,
		Submitting: t.submitting,
		Completing: t.completing,
		Summary:    t.summary,
	}
}

// IsStale reports whether err means a result was dropped because the
// session changed underneath it.
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleResponse)
}
