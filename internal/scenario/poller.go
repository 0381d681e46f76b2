package scenario

import (
	"context"
	"errors"
	"log"
	"time"
)

const (
	DefaultSyncInterval = 3 * time.Second
	DefaultInitialDelay = 2 * time.Second
	DefaultMaxBackoff   = 30 * time.Second
)

// Poller drives Trainer.Sync on a fixed interval for one session. Whether
// to fetch is decided each time the timer fires, so a selection made
// between ticks suspends the fetch. Failed fetches double the delay up to
// the max backoff; a success restores the interval.
type Poller struct {
	trainer      *Trainer
	interval     time.Duration
	initialDelay time.Duration
	maxBackoff   time.Duration
	logger       *log.Logger

	// OnSync, if set, is called after every successful sync.
	OnSync func(SyncResult)
	// OnError, if set, is called with every SyncError.
	OnError func(error)
}

type PollerOption func(*Poller)

func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) { p.interval = d }
}

func WithInitialDelay(d time.Duration) PollerOption {
	return func(p *Poller) { p.initialDelay = d }
}

func WithMaxBackoff(d time.Duration) PollerOption {
	return func(p *Poller) { p.maxBackoff = d }
}

func WithPollerLogger(l *log.Logger) PollerOption {
	return func(p *Poller) { p.logger = l }
}

func NewPoller(t *Trainer, opts ...PollerOption) *Poller {
	p := &Poller{
		trainer:      t,
		interval:     DefaultSyncInterval,
		initialDelay: DefaultInitialDelay,
		maxBackoff:   DefaultMaxBackoff,
		logger:       log.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.maxBackoff < p.interval {
		p.maxBackoff = p.interval
	}
	return p
}

// NextBackoff doubles prev, capped at limit.
func NextBackoff(prev, limit time.Duration) time.Duration {
	return min(prev*2, limit)
}

// NextDelay returns the wait after a failed sync given the previous wait.
func (p *Poller) NextDelay(prev time.Duration) time.Duration {
	return NextBackoff(prev, p.maxBackoff)
}

// Run polls until ctx is cancelled or the session it started with is no
// longer active, returning as soon as the session is completed or reset.
// It returns ErrNoSession if no session is active at entry, ctx.Err() on
// cancellation and nil when the session ends.
func (p *Poller) Run(ctx context.Context) error {
	start := p.trainer.PollState()
	if start.Status != Active {
		return ErrNoSession
	}
	sid := start.SessionID
	ended := p.trainer.sessionEnded(sid)

	delay := p.interval
	timer := time.NewTimer(p.initialDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ended:
			p.logger.Printf("[sync] poller for %s stopping: session ended", sid)
			return nil
		case <-timer.C:
		}

		st := p.trainer.PollState()
		if st.Status != Active || st.SessionID != sid {
			p.logger.Printf("[sync] poller for %s stopping (status=%s)", sid, st.Status)
			return nil
		}

		next := p.interval
		if ShouldPoll(st.Status, st.Pending) {
			res, err := p.trainer.Sync(ctx)
			var syncErr *SyncError
			switch {
			case err == nil:
				delay = p.interval
				if p.OnSync != nil {
					p.OnSync(res)
				}
			case ctx.Err() != nil:
				return ctx.Err()
			case errors.As(err, &syncErr):
				delay = p.NextDelay(delay)
				next = delay
				p.logger.Printf("[sync] retry in %v", delay)
				if p.OnError != nil {
					p.OnError(err)
				}
			case errors.Is(err, ErrStaleResponse), errors.Is(err, ErrNoSession):
				return nil
			case errors.Is(err, ErrBusy):
				// another sync for this session is outstanding
			}
		}
		timer.Reset(next)
	}
}
