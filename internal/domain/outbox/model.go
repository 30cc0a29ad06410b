package outbox

import (
	"errors"
	"time"
)

// Status constants for the entry lifecycle.
const (
	StatusPending  = "pending"
	StatusRetrying = "retrying"
	StatusDone     = "done"
	StatusFailed   = "failed"
)

// Action types: which notification the entry replays.
const (
	ActionSMS   = "sms"
	ActionEmail = "email"
)

// DefaultMaxAttempts bounds retries when an entry does not set its own.
const DefaultMaxAttempts = 5

// Domain errors.
var (
	ErrEmptyActionType   = errors.New("action type is required")
	ErrUnknownActionType = errors.New("action type must be sms or email")
	ErrEmptyPayload      = errors.New("payload is required")
	ErrEmptyCreatedAt    = errors.New("created_at must be set")
)

// Entry is a notification that failed on the request path and is waiting
// to be sent again by the background worker.
type Entry struct {
	ID              string
	ActionType      string // sms or email
	RegistrationID  string
	Payload         string // JSON request body to replay
	Status          string
	Attempts        int
	MaxAttempts     int
	LastAttemptedAt time.Time
	CreatedAt       time.Time
	ErrorMessage    string
}

// NewEntry records a failed first attempt. The attempt that just failed counts.
// POST: Status is retrying, Attempts is 1
func NewEntry(id, action, registrationID, payload string, cause error, now time.Time) Entry {
	e := Entry{
		ID:              id,
		ActionType:      action,
		RegistrationID:  registrationID,
		Payload:         payload,
		Status:          StatusRetrying,
		Attempts:        1,
		MaxAttempts:     DefaultMaxAttempts,
		LastAttemptedAt: now,
		CreatedAt:       now,
	}
	if cause != nil {
		e.ErrorMessage = cause.Error()
	}
	return e
}

// Validate checks that the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid, error otherwise; a zero MaxAttempts is defaulted
func (e *Entry) Validate() error {
	switch e.ActionType {
	case "":
		return ErrEmptyActionType
	case ActionSMS, ActionEmail:
	default:
		return ErrUnknownActionType
	}
	if e.Payload == "" {
		return ErrEmptyPayload
	}
	if e.CreatedAt.IsZero() {
		return ErrEmptyCreatedAt
	}
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = DefaultMaxAttempts
	}
	return nil
}

// CanRetry reports whether the entry is still owed another attempt.
func (e *Entry) CanRetry() bool {
	return (e.Status == StatusPending || e.Status == StatusRetrying) && e.Attempts < e.MaxAttempts
}

// Due reports whether the backoff since the last attempt has elapsed.
func (e *Entry) Due(now time.Time, baseDelay, maxDelay time.Duration) bool {
	if e.LastAttemptedAt.IsZero() {
		return true
	}
	return !now.Before(e.LastAttemptedAt.Add(e.NextRetryDelay(baseDelay, maxDelay)))
}

// MarkAttempt records the start of a retry.
// POST: Attempts incremented, LastAttemptedAt = now, Status retrying
func (e *Entry) MarkAttempt(now time.Time) {
	e.Attempts++
	e.LastAttemptedAt = now
	e.Status = StatusRetrying
}

// MarkSuccess closes the entry.
func (e *Entry) MarkSuccess() {
	e.Status = StatusDone
	e.ErrorMessage = ""
}

// MarkFailed stores the error. The entry becomes failed once attempts run out.
func (e *Entry) MarkFailed(err error) {
	e.ErrorMessage = err.Error()
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
	}
}

// NextRetryDelay is 2^attempts * baseDelay, capped at maxDelay.
func (e *Entry) NextRetryDelay(baseDelay, maxDelay time.Duration) time.Duration {
	if e.Attempts >= 30 {
		return maxDelay
	}
	delay := baseDelay * (1 << e.Attempts)
	if delay > maxDelay || delay <= 0 {
		return maxDelay
	}
	return delay
}
