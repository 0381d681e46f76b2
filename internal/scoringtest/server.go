// Package scoringtest provides a scripted, in-process fake of the scoring
// service's HTTP contract for tests. Events are published explicitly (or
// dripped on a ticker); scoring follows the service's 25+25 point rules
// against ground truth supplied by the test.
package scoringtest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/RotemSwisa/incident-response-simulator/internal/client"
)

// Route names one of the four service operations.
type Route string

const (
	RouteStart   Route = "start"
	RouteEvents  Route = "events"
	RouteRespond Route = "respond"
	RouteSummary Route = "summary"
)

const pointsPerHalf = 25

// Truth is the ground truth the fake scores a response against.
type Truth struct {
	Suspicious  bool
	Actions     []client.Action
	Explanation string
}

var defaultTruth = Truth{
	Actions:     []client.Action{client.ActionMonitor},
	Explanation: "This is normal routine activity in the system and not suspicious",
}

type session struct {
	id        string
	scenario  string
	events    []client.Event
	responses []client.EvaluationPayload
}

type block struct {
	entered chan struct{}
	release chan struct{}
}

// Server is a running fake. The embedded httptest.Server exposes URL.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	sessions map[string]*session
	latest   string
	truth    map[string]Truth
	calls    map[Route]int
	failures map[Route]int
	blocks   map[Route]*block
	summary  json.RawMessage
}

// NewServer starts a fake. Callers must Close it.
func NewServer() *Server {
	s := &Server{
		sessions: make(map[string]*session),
		truth:    make(map[string]Truth),
		calls:    make(map[Route]int),
		failures: make(map[Route]int),
		blocks:   make(map[Route]*block),
	}

	r := chi.NewRouter()
	r.Route("/scenarios/complex/{id}", func(r chi.Router) {
		r.Post("/start", s.handleStart)
		r.Get("/events", s.handleEvents)
		r.Post("/respond", s.handleRespond)
		r.Get("/summary", s.handleSummary)
	})
	s.Server = httptest.NewServer(r)
	return s
}

// Latest returns the id of the most recently started session.
func (s *Server) Latest() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Publish appends events to a session's remote log.
func (s *Server) Publish(sessionID string, events ...client.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		sess.events = append(sess.events, events...)
	}
}

// Replace overwrites a session's remote log, simulating compaction or
// reordering on the service side.
func (s *Server) Replace(sessionID string, events ...client.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		sess.events = append([]client.Event(nil), events...)
	}
}

// Drip publishes one event per interval until all are delivered or ctx ends.
func (s *Server) Drip(ctx context.Context, sessionID string, interval time.Duration, events ...client.Event) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for _, ev := range events {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Publish(sessionID, ev)
			}
		}
	}()
}

// SetTruth sets the ground truth used to score responses to eventID.
func (s *Server) SetTruth(eventID string, t Truth) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.truth[eventID] = t
}

// FailNext makes the next n calls to route answer 500.
func (s *Server) FailNext(route Route, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] += n
}

// OverrideSummary makes the summary route answer with raw verbatim.
func (s *Server) OverrideSummary(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = json.RawMessage(raw)
}

// Block holds every call to route until release is called. entered receives
// once per call that reaches the handler.
func (s *Server) Block(route Route) (entered <-chan struct{}, release func()) {
	b := &block{
		entered: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
	s.mu.Lock()
	s.blocks[route] = b
	s.mu.Unlock()

	var once sync.Once
	return b.entered, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.blocks, route)
			s.mu.Unlock()
			close(b.release)
		})
	}
}

// Calls returns how many requests reached route.
func (s *Server) Calls(route Route) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// enter records the call, waits on any block and reports whether a failure
// was injected.
func (s *Server) enter(route Route) (fail bool) {
	s.mu.Lock()
	s.calls[route]++
	b := s.blocks[route]
	s.mu.Unlock()

	if b != nil {
		b.entered <- struct{}{}
		<-b.release
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures[route] > 0 {
		s.failures[route]--
		return true
	}
	return false
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if s.enter(RouteStart) {
		respondError(w, http.StatusInternalServerError, "injected failure")
		return
	}
	scenario := chi.URLParam(r, "id")
	sess := &session{id: uuid.NewString(), scenario: scenario}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.latest = sess.id
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, client.StartResponse{
		SessionID:    sess.id,
		ScenarioID:   scenario,
		ScenarioName: "Advanced Multi-Stage Attack Simulation",
		TotalEvents:  16,
		Message:      "Complex scenario started successfully",
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.enter(RouteEvents) {
		respondError(w, http.StatusInternalServerError, "injected failure")
		return
	}
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	var events []client.Event
	if sess, ok := s.sessions[id]; ok {
		events = append(events, sess.events...)
	}
	s.mu.Unlock()
	if events == nil {
		events = []client.Event{}
	}

	respondJSON(w, http.StatusOK, client.EventsResponse{
		SessionID: id,
		Events:    events,
		Count:     len(events),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	if s.enter(RouteRespond) {
		respondError(w, http.StatusInternalServerError, "injected failure")
		return
	}
	id := chi.URLParam(r, "id")

	var req client.RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.EventID == "" || req.Action == "" {
		respondError(w, http.StatusBadRequest, "event_id and action are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}
	if !sess.delivered(req.EventID) {
		respondError(w, http.StatusNotFound, "Event not found")
		return
	}

	truth := s.truthFor(req.EventID)
	eval := client.EvaluationPayload{
		EventID:            req.EventID,
		Action:             req.Action,
		IsSuspiciousMarked: req.IsSuspicious,
		Timestamp:          time.Now().UTC().Format(time.RFC3339),
		CorrectSuspicion:   truth.Suspicious == req.IsSuspicious,
		CorrectAction:      containsAction(truth.Actions, req.Action),
	}
	if eval.CorrectSuspicion {
		eval.Score += pointsPerHalf
	}
	if eval.CorrectAction {
		eval.Score += pointsPerHalf
	}
	sess.responses = append(sess.responses, eval)

	respondJSON(w, http.StatusOK, client.RespondResponse{
		Status:     "success",
		Evaluation: &eval,
		Feedback:   feedbackFor(truth, eval),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if s.enter(RouteSummary) {
		respondError(w, http.StatusInternalServerError, "injected failure")
		return
	}
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(s.summary)
		return
	}
	sess, ok := s.sessions[id]
	if !ok {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}
	respondJSON(w, http.StatusOK, s.summarize(sess))
}

func (s *Server) summarize(sess *session) client.SummaryPayload {
	var suspicious, score, correctSusp, correctAct int
	details := make([]client.DetailedResult, 0, len(sess.events))
	for _, ev := range sess.events {
		truth := s.truthFor(ev.ID)
		if truth.Suspicious {
			suspicious++
		}
		d := client.DetailedResult{
			EventID:              ev.ID,
			Message:              ev.Message,
			ActualSuspicion:      truth.Suspicious,
			CorrectActionOptions: truth.Actions,
			Explanation:          truth.Explanation,
		}
		if resp, ok := sess.responseFor(ev.ID); ok {
			marked := resp.IsSuspiciousMarked
			action := resp.Action
			d.Responded = true
			d.StudentMarkedSuspicious = &marked
			d.StudentAction = &action
			d.SuspicionCorrect = resp.CorrectSuspicion
			d.ActionCorrect = resp.CorrectAction
			d.PointsEarned = resp.Score
		}
		details = append(details, d)
	}
	for _, resp := range sess.responses {
		score += resp.Score
		if resp.CorrectSuspicion {
			correctSusp++
		}
		if resp.CorrectAction {
			correctAct++
		}
	}

	total := len(sess.events)
	responded := len(sess.responses)
	maxScore := total * 2 * pointsPerHalf
	overall := percent(score, maxScore)

	return client.SummaryPayload{
		SessionID:    sess.id,
		ScenarioName: "Advanced Multi-Stage Attack",
		OverallPerformance: &client.OverallPerformance{
			TotalScore:       score,
			MaxPossibleScore: maxScore,
			OverallAccuracy:  overall,
			LetterGrade:      letterGrade(overall),
		},
		EventStatistics: &client.EventStatistics{
			TotalEvents:           total,
			TotalSuspiciousEvents: suspicious,
			TotalNormalEvents:     total - suspicious,
			EventsRespondedTo:     responded,
			UnansweredEvents:      total - responded,
			ResponseRate:          percent(responded, total),
		},
		AccuracyBreakdown: &client.AccuracyBreakdown{
			CorrectSuspicions: correctSusp,
			CorrectActions:    correctAct,
			SuspicionAccuracy: percent(correctSusp, responded),
			ActionAccuracy:    percent(correctAct, responded),
		},
		DetailedResults: details,
		Recommendations: recommendations(overall, percent(responded, total)),
	}
}

func (s *Server) truthFor(eventID string) Truth {
	if t, ok := s.truth[eventID]; ok {
		return t
	}
	return defaultTruth
}

func (sess *session) delivered(eventID string) bool {
	for _, ev := range sess.events {
		if ev.ID == eventID {
			return true
		}
	}
	return false
}

func (sess *session) responseFor(eventID string) (client.EvaluationPayload, bool) {
	for _, r := range sess.responses {
		if r.EventID == eventID {
			return r, true
		}
	}
	return client.EvaluationPayload{}, false
}

func feedbackFor(t Truth, eval client.EvaluationPayload) client.Feedback {
	var fb client.Feedback
	switch {
	case eval.CorrectSuspicion && t.Suspicious:
		fb.SuspicionFeedback = "Great detection! This is indeed a suspicious event."
	case eval.CorrectSuspicion:
		fb.SuspicionFeedback = "Correct - this is a normal event."
	case t.Suspicious:
		fb.SuspicionFeedback = "You missed a threat! This was a suspicious event."
	default:
		fb.SuspicionFeedback = "This was a normal event, not suspicious."
	}
	if eval.CorrectAction {
		fb.ActionFeedback = "Correct action choice!"
	} else {
		fb.ActionFeedback = fmt.Sprintf("Expected one of %v", t.Actions)
	}
	return fb
}

func recommendations(overall, responseRate float64) []string {
	var out []string
	if responseRate < 70 {
		out = append(out, "Try to identify and respond to more events - unanswered events may escalate issues")
	}
	switch {
	case overall >= 90:
		out = append(out, "Excellent performance! Try more advanced scenarios")
	case overall >= 70:
		out = append(out, "Good performance. Continue practicing similar scenarios to strengthen skills")
	default:
		out = append(out, "Recommended to review study material and practice more basic scenarios")
	}
	return out
}

func letterGrade(acc float64) string {
	switch {
	case acc >= 90:
		return "A"
	case acc >= 80:
		return "B"
	case acc >= 70:
		return "C"
	case acc >= 60:
		return "D"
	default:
		return "F"
	}
}

func percent(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(d)*1000) / 10
}

func containsAction(actions []client.Action, a client.Action) bool {
	for _, x := range actions {
		if x == a {
			return true
		}
	}
	return false
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"detail": message})
}
