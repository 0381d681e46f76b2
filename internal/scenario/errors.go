package scenario

import (
	"errors"
	"fmt"
)

var (
	ErrNoSession        = errors.New("no active session")
	ErrSessionCompleted = errors.New("session already completed; reset first")
	ErrNoSelection      = errors.New("no event selected")
	ErrAlreadyResponded = errors.New("event already has a response")
	ErrSubmitInFlight   = errors.New("a submission is already in flight")
	ErrInvalidAction    = errors.New("unrecognized action")
	ErrStaleResponse    = errors.New("response belongs to a session that is no longer active")
	ErrBusy             = errors.New("operation already in progress")
)

// SessionStartError wraps a failed start request.
type SessionStartError struct {
	Scenario string
	Err      error
}

func (e *SessionStartError) Error() string {
	return fmt.Sprintf("start scenario %s: %v", e.Scenario, e.Err)
}

func (e *SessionStartError) Unwrap() error { return e.Err }

// SyncError wraps a failed event fetch. Local state is untouched.
type SyncError struct {
	SessionID string
	Err       error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync session %s: %v", e.SessionID, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// SubmitError wraps a failed submission. The selection is kept so the
// trainee can retry.
type SubmitError struct {
	EventID string
	Err     error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit response for %s: %v", e.EventID, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// SummaryFetchError wraps a failed or malformed summary fetch. The session
// stays active.
type SummaryFetchError struct {
	SessionID string
	Err       error
}

func (e *SummaryFetchError) Error() string {
	return fmt.Sprintf("fetch summary for %s: %v", e.SessionID, e.Err)
}

func (e *SummaryFetchError) Unwrap() error { return e.Err }
