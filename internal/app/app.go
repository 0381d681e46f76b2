package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/RotemSwisa/incident-response-simulator/internal/report"
	"github.com/RotemSwisa/incident-response-simulator/internal/scenario"
	"github.com/RotemSwisa/incident-response-simulator/internal/theme"
	"github.com/RotemSwisa/incident-response-simulator/internal/views/activity"
	"github.com/RotemSwisa/incident-response-simulator/internal/views/feed"
	"github.com/RotemSwisa/incident-response-simulator/internal/views/respond"
	"github.com/RotemSwisa/incident-response-simulator/internal/views/status"
	"github.com/RotemSwisa/incident-response-simulator/internal/views/summary"
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayRespond
	OverlaySummary
	OverlayActivity
)

// Options tunes the sync schedule.
type Options struct {
	SyncInterval time.Duration
	InitialDelay time.Duration
	MaxBackoff   time.Duration
	// AutoStart opens a session as soon as the program starts.
	AutoStart bool
}

func (o Options) withDefaults() Options {
	if o.SyncInterval <= 0 {
		o.SyncInterval = scenario.DefaultSyncInterval
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = scenario.DefaultInitialDelay
	}
	if o.MaxBackoff < o.SyncInterval {
		o.MaxBackoff = max(scenario.DefaultMaxBackoff, o.SyncInterval)
	}
	return o
}

// --- Bubble Tea messages ---

type startedMsg struct {
	Session scenario.Session
	Err     error
}

// pollTickMsg fires when the sync timer for SessionID elapses.
type pollTickMsg struct{ SessionID string }

type syncedMsg struct {
	SessionID string
	Result    scenario.SyncResult
	Err       error
}

type submittedMsg struct {
	EventID string
	Eval    scenario.Evaluation
	Err     error
}

type completedMsg struct {
	Summary *report.Summary
	Err     error
}

// Model is the root Bubble Tea model.
type Model struct {
	trainer *scenario.Trainer
	opts    Options
	ctx     context.Context
	cancel  context.CancelFunc

	keys    KeyMap
	width   int
	height  int
	overlay Overlay

	// Sub-views.
	statusBar status.Model
	feed      feed.Model
	composer  respond.Model
	summary   summary.Model
	activity  activity.Model

	// Sync schedule.
	syncDelay    time.Duration
	syncFailures int
	starting     bool
}

// New creates the root model around trainer.
func New(trainer *scenario.Trainer, opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())
	opts = opts.withDefaults()
	return Model{
		trainer:   trainer,
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		keys:      DefaultKeyMap(),
		statusBar: status.New(),
		feed:      feed.New(),
		summary:   summary.New(),
		activity:  activity.New(),
		syncDelay: opts.SyncInterval,
		starting:  opts.AutoStart,
	}
}

// Init starts a session when AutoStart is set.
func (m Model) Init() tea.Cmd {
	if m.opts.AutoStart {
		return m.startCmd()
	}
	return nil
}

func (m Model) startCmd() tea.Cmd {
	return func() tea.Msg {
		s, err := m.trainer.Start(m.ctx)
		return startedMsg{Session: s, Err: err}
	}
}

func (m Model) syncCmd(sessionID string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.trainer.Sync(m.ctx)
		return syncedMsg{SessionID: sessionID, Result: res, Err: err}
	}
}

func (m Model) submitCmd(eventID string) tea.Cmd {
	action, suspicious := m.composer.Action(), m.composer.Suspicious
	return func() tea.Msg {
		eval, err := m.trainer.Submit(m.ctx, action, suspicious)
		return submittedMsg{EventID: eventID, Eval: eval, Err: err}
	}
}

func (m Model) completeCmd() tea.Cmd {
	return func() tea.Msg {
		s, err := m.trainer.Complete(m.ctx)
		return completedMsg{Summary: s, Err: err}
	}
}

func pollAfter(d time.Duration, sessionID string) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return pollTickMsg{SessionID: sessionID} })
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.feed.Width = msg.Width
		m.feed.Height = msg.Height - 5
		m.summary.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case startedMsg:
		m.starting = false
		if errors.Is(msg.Err, scenario.ErrBusy) {
			// another start is already on its way
			return m, nil
		}
		if msg.Err != nil {
			m.activity.Errorf("start failed: %v", msg.Err)
			m.refresh()
			return m, nil
		}
		m.syncDelay = m.opts.SyncInterval
		m.syncFailures = 0
		m.activity.Add(activity.KindSession, fmt.Sprintf("session %s started", msg.Session.ID))
		m.refresh()
		return m, pollAfter(m.opts.InitialDelay, msg.Session.ID)

	case pollTickMsg:
		return m.handlePollTick(msg)

	case syncedMsg:
		return m.handleSynced(msg)

	case submittedMsg:
		return m.handleSubmitted(msg)

	case completedMsg:
		if msg.Err != nil {
			m.activity.Errorf("%v", msg.Err)
			m.summary.SetError(msg.Err)
			m.refresh()
			return m, nil
		}
		m.activity.Add(activity.KindSession, fmt.Sprintf("session completed: grade %s", msg.Summary.Grade()))
		m.overlay = OverlaySummary
		m.refresh()
		return m, m.summary.Apply(msg.Summary)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.composer, cmd = m.composer.Update(msg)
		return m, cmd

	case summary.FrameMsg:
		var cmd tea.Cmd
		m.summary, cmd = m.summary.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handlePollTick decides at fire time whether to fetch. The chain ends when
// the session it was scheduled for is no longer the active one.
func (m Model) handlePollTick(msg pollTickMsg) (tea.Model, tea.Cmd) {
	st := m.trainer.PollState()
	if st.SessionID != msg.SessionID || st.Status != scenario.Active {
		return m, nil
	}
	if !scenario.ShouldPoll(st.Status, st.Pending) {
		return m, pollAfter(m.opts.SyncInterval, msg.SessionID)
	}
	m.statusBar.Syncing = true
	return m, m.syncCmd(msg.SessionID)
}

func (m Model) handleSynced(msg syncedMsg) (tea.Model, tea.Cmd) {
	m.statusBar.Syncing = false
	var syncErr *scenario.SyncError
	switch {
	case msg.Err == nil:
		m.syncDelay = m.opts.SyncInterval
		m.syncFailures = 0
		if n := len(msg.Result.Added); n > 0 {
			m.activity.Add(activity.KindSync, fmt.Sprintf("+%d events (%d total)", n, msg.Result.Total))
		}
	case errors.As(msg.Err, &syncErr):
		m.syncFailures++
		m.syncDelay = scenario.NextBackoff(m.syncDelay, m.opts.MaxBackoff)
		m.activity.Errorf("%v (retry in %v)", msg.Err, m.syncDelay)
		m.refresh()
		return m, pollAfter(m.syncDelay, msg.SessionID)
	case errors.Is(msg.Err, scenario.ErrBusy):
	default:
		// stale or no session: this chain is over
		m.refresh()
		return m, nil
	}
	m.refresh()
	return m, pollAfter(m.opts.SyncInterval, msg.SessionID)
}

func (m Model) handleSubmitted(msg submittedMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Err == nil:
		verdict := report.Classify(true, msg.Eval.CorrectSuspicion, msg.Eval.CorrectAction)
		m.activity.Add(activity.KindSubmit, fmt.Sprintf("%s: %s, %d pts", msg.EventID, verdict, msg.Eval.Score))
		if m.overlay == OverlayRespond {
			m.overlay = OverlayNone
		}
	case scenario.IsStale(msg.Err):
		m.activity.Add(activity.KindSubmit, fmt.Sprintf("%s: result discarded", msg.EventID))
	default:
		m.activity.Errorf("%v", msg.Err)
		m.composer.Fail(msg.Err)
	}
	m.refresh()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Only ctrl+c quits from the composer, where q is an ordinary key.
	if key.Matches(msg, m.keys.Quit) && (m.overlay != OverlayRespond || msg.String() == "ctrl+c") {
		m.cancel()
		return m, tea.Quit
	}

	switch m.overlay {
	case OverlayRespond:
		return m.handleRespondKey(msg)
	case OverlaySummary:
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.overlay = OverlayNone
			return m, nil
		case key.Matches(msg, m.keys.Complete):
			return m.beginComplete()
		case key.Matches(msg, m.keys.Reset):
			return m.reset()
		}
		var cmd tea.Cmd
		m.summary, cmd = m.summary.Update(msg)
		return m, cmd
	case OverlayActivity:
		switch {
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Log):
			m.overlay = OverlayNone
		case key.Matches(msg, m.keys.Up):
			m.activity.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.activity.ScrollDown(1)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		m.feed.MoveDown()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.feed.MoveUp()
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		ev, ok := m.feed.Selected()
		if !ok || !m.trainer.Select(ev.ID) {
			return m, nil
		}
		m.composer = respond.New(ev)
		m.overlay = OverlayRespond
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Start):
		if m.starting || m.trainer.Session().Status != scenario.NotStarted {
			return m, nil
		}
		m.starting = true
		return m, m.startCmd()

	case key.Matches(msg, m.keys.Complete):
		return m.beginComplete()

	case key.Matches(msg, m.keys.Reset):
		return m.reset()

	case key.Matches(msg, m.keys.Log):
		m.overlay = OverlayActivity
		return m, nil
	}

	return m, nil
}

func (m Model) handleRespondKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		if m.trainer.Cancel() {
			m.overlay = OverlayNone
			m.refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.composer.MoveUp()

	case key.Matches(msg, m.keys.Down):
		m.composer.MoveDown()

	case key.Matches(msg, m.keys.Suspicious):
		m.composer.ToggleSuspicious()

	case key.Matches(msg, m.keys.Enter):
		if m.composer.Submitting {
			return m, nil
		}
		tick := m.composer.BeginSubmit()
		return m, tea.Batch(m.submitCmd(m.composer.Event.ID), tick)
	}
	return m, nil
}

func (m Model) beginComplete() (tea.Model, tea.Cmd) {
	switch m.trainer.Session().Status {
	case scenario.Active:
		m.overlay = OverlaySummary
		m.summary.SetLoading()
		return m, m.completeCmd()
	case scenario.Completed:
		m.overlay = OverlaySummary
	}
	return m, nil
}

func (m Model) reset() (tea.Model, tea.Cmd) {
	m.trainer.Reset()
	m.overlay = OverlayNone
	m.summary = summary.New()
	m.summary.SetSize(m.width, m.height)
	m.feed = feed.New()
	m.feed.Width = m.width
	m.feed.Height = m.height - 5
	m.syncDelay = m.opts.SyncInterval
	m.syncFailures = 0
	m.activity.Add(activity.KindSession, "session reset")
	m.refresh()
	return m, nil
}

// refresh copies trainer state into the sub-views.
func (m *Model) refresh() {
	snap := m.trainer.Snapshot()
	m.feed.SetEvents(snap.Events, snap.Pending)
	m.statusBar.Session = snap.Session
	m.statusBar.SetCounts(len(snap.Events), snap.Responded)
	m.statusBar.SyncFailures = m.syncFailures
	m.statusBar.Errors = m.activity.Errors()
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	switch m.overlay {
	case OverlaySummary:
		return m.summary.ViewOverlay(m.width, m.height)
	case OverlayActivity:
		return m.activity.View(m.width, m.height)
	}

	body := m.feed.View()
	if m.overlay == OverlayRespond {
		body = lipgloss.Place(m.width, max(m.height-4, 10), lipgloss.Center, lipgloss.Center, m.composer.View())
	}

	sections := []string{
		m.statusBar.View(),
		body,
		theme.StyleDimmed.Render("  " + m.helpLine()),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) helpLine() string {
	switch m.trainer.Session().Status {
	case scenario.NotStarted:
		return "s:start  l:log  q:quit"
	case scenario.Completed:
		return "c:summary  r:new session  l:log  q:quit"
	default:
		return "j/k:navigate  enter:respond  c:complete  r:reset  l:log  q:quit"
	}
}
