package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/RotemSwisa/incident-response-simulator/internal/scenario"
)

// runWatch starts a session, prints events as they sync until d elapses,
// ctx ends or every announced event has arrived, then completes the
// session and prints the summary.
func runWatch(ctx context.Context, tr *scenario.Trainer, opts []scenario.PollerOption, d time.Duration, w io.Writer) error {
	s, err := tr.Start(ctx)
	if err != nil {
		return err
	}
	name := s.ScenarioName
	if name == "" {
		name = s.ScenarioID
	}
	fmt.Fprintf(w, "session %s started: %s\n", s.ID, name)

	watchCtx, cancel := context.WithCancel(ctx)
	if d > 0 {
		watchCtx, cancel = context.WithTimeout(ctx, d)
	}
	defer cancel()

	p := scenario.NewPoller(tr, opts...)
	p.OnSync = func(r scenario.SyncResult) {
		for _, ev := range r.Added {
			ts := "--:--:--"
			if !ev.Timestamp.IsZero() {
				ts = ev.Timestamp.Format("15:04:05")
			}
			fmt.Fprintf(w, "%s %-8s %-14s %s\n", ts, ev.Level, ev.Source, ev.Message)
		}
		if s.TotalEvents > 0 && r.Total >= s.TotalEvents {
			cancel()
		}
	}
	p.OnError = func(err error) {
		fmt.Fprintf(w, "sync error: %v\n", err)
	}

	if err := p.Run(watchCtx); err != nil &&
		!errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	cctx, ccancel := completeContext()
	defer ccancel()
	sum, err := tr.Complete(cctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, sum.Markdown())
	return nil
}
