package scenario

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RotemSwisa/incident-response-simulator/internal/scoringtest"
)

func fastPoller(tr *Trainer, opts ...PollerOption) *Poller {
	base := []PollerOption{
		WithInterval(10 * time.Millisecond),
		WithInitialDelay(5 * time.Millisecond),
		WithMaxBackoff(40 * time.Millisecond),
		WithPollerLogger(quiet),
	}
	return NewPoller(tr, append(base, opts...)...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestNextDelayDoublesToCap(t *testing.T) {
	tr, _ := newTrainer(t)
	p := NewPoller(tr, WithInterval(3*time.Second), WithMaxBackoff(30*time.Second))

	want := []time.Duration{6 * time.Second, 12 * time.Second, 24 * time.Second, 30 * time.Second, 30 * time.Second}
	d := 3 * time.Second
	for i, w := range want {
		d = p.NextDelay(d)
		if d != w {
			t.Errorf("step %d: delay = %v, want %v", i, d, w)
		}
	}
}

func TestPollerRequiresActiveSession(t *testing.T) {
	tr, _ := newTrainer(t)
	if err := fastPoller(tr).Run(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("Run = %v, want ErrNoSession", err)
	}
}

func TestPollerSyncsAndStopsOnCompletion(t *testing.T) {
	tr, srv := newTrainer(t)
	s := startWith(t, tr, srv, ev("e1", "a"))
	srv.Drip(context.Background(), s.ID, 10*time.Millisecond, ev("e2", "b"), ev("e3", "c"))

	var total atomic.Int64
	p := fastPoller(tr)
	p.OnSync = func(r SyncResult) { total.Store(int64(r.Total)) }

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	waitFor(t, "three events", func() bool { return total.Load() == 3 })
	if got := ids(tr.Snapshot().Events); !equalIDs(got, "e1", "e2", "e3") {
		t.Errorf("events = %v", got)
	}

	if _, err := tr.Complete(context.Background()); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("poller did not stop after completion")
	}
}

func TestPollerSuspendsWhileSelected(t *testing.T) {
	tr, srv := newTrainer(t)
	startWith(t, tr, srv, ev("e1", "a"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fastPoller(tr).Run(ctx)

	waitFor(t, "first sync", func() bool { return tr.Snapshot().Session.Status == Active && len(tr.Snapshot().Events) == 1 })
	if !tr.Select("e1") {
		t.Fatal("Select failed")
	}
	time.Sleep(30 * time.Millisecond)
	before := srv.Calls(scoringtest.RouteEvents)
	time.Sleep(80 * time.Millisecond)
	if after := srv.Calls(scoringtest.RouteEvents); after != before {
		t.Errorf("poller fetched while selected: %d -> %d", before, after)
	}

	tr.Cancel()
	waitFor(t, "sync to resume", func() bool { return srv.Calls(scoringtest.RouteEvents) > before })
}

func TestPollerBacksOffAndRecovers(t *testing.T) {
	tr, srv := newTrainer(t)
	startWith(t, tr, srv, ev("e1", "a"))
	srv.FailNext(scoringtest.RouteEvents, 2)

	var failures, successes atomic.Int64
	p := fastPoller(tr)
	p.OnError = func(err error) {
		var se *SyncError
		if errors.As(err, &se) {
			failures.Add(1)
		}
	}
	p.OnSync = func(SyncResult) { successes.Add(1) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	waitFor(t, "recovery", func() bool { return successes.Load() > 0 })
	if failures.Load() != 2 {
		t.Errorf("failures = %d, want 2", failures.Load())
	}
	if len(tr.Snapshot().Events) != 1 {
		t.Error("store not populated after recovery")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

func TestPollerStopsOnReset(t *testing.T) {
	tr, srv := newTrainer(t)
	startWith(t, tr, srv)

	done := make(chan error, 1)
	go func() { done <- fastPoller(tr).Run(context.Background()) }()

	tr.Reset()
	select {
	case err := <-done:
		// Reset may land before Run reads the session.
		if err != nil && !errors.Is(err, ErrNoSession) {
			t.Errorf("Run = %v, want nil", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("poller did not stop after reset")
	}
}

func TestPollerWakesWhenSessionEnds(t *testing.T) {
	tests := []struct {
		name string
		end  func(*Trainer) error
	}{
		{"reset", func(tr *Trainer) error { tr.Reset(); return nil }},
		{"complete", func(tr *Trainer) error {
			_, err := tr.Complete(context.Background())
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, srv := newTrainer(t)
			startWith(t, tr, srv)

			// Long enough that only the end of the session can stop it in time.
			p := NewPoller(tr,
				WithInterval(time.Hour),
				WithInitialDelay(time.Hour),
				WithPollerLogger(quiet),
			)
			done := make(chan error, 1)
			go func() { done <- p.Run(context.Background()) }()
			time.Sleep(20 * time.Millisecond)

			if err := tt.end(tr); err != nil {
				t.Fatalf("ending session: %v", err)
			}
			select {
			case err := <-done:
				if err != nil && !errors.Is(err, ErrNoSession) {
					t.Errorf("Run = %v, want nil", err)
				}
			case <-time.After(time.Second):
				t.Fatal("poller still waiting after the session ended")
			}
		})
	}
}

func TestSessionEndedChannel(t *testing.T) {
	tr, srv := newTrainer(t)
	s := startWith(t, tr, srv)

	ended := tr.sessionEnded(s.ID)
	select {
	case <-ended:
		t.Fatal("closed while session active")
	default:
	}
	select {
	case <-tr.sessionEnded("other"):
	default:
		t.Error("channel for an inactive session id is open")
	}

	tr.Reset()
	select {
	case <-ended:
	default:
		t.Error("not closed after reset")
	}
}
