package registration

import (
	"errors"
	"time"

	"ringside/internal/domain/tryout"
)

// Domain errors
var (
	ErrEmptyID        = errors.New("registration id is required")
	ErrEmptyName      = errors.New("first and last name are required")
	ErrEmptyEmail     = errors.New("email is required")
	ErrNoTryout       = errors.New("tryout type is required")
	ErrNotFound       = errors.New("registration not found")
	ErrEmptyCreatedAt = errors.New("created_at must be set")
)

// Registration is a submitted tryout request as stored by the backend.
// The tryout selection is kept flat so the row reads like the request.
type Registration struct {
	ID            string
	FirstName     string
	LastName      string
	Gender        string
	Email         string
	Phone         string
	DOB           time.Time
	AgreeToTexts  bool
	TryoutType    string
	GroupType     string
	ActivityType  string
	SessionID     string
	SelectedTrial string
	CustomDate    string
	CustomTime    string
	CreatedAt     time.Time
}

// FromAnswers flattens a completed wizard record.
// PRE: a has passed every step validator
// POST: Returned registration carries only the fields of the active tryout branch
func FromAnswers(id string, a tryout.Answers, now time.Time) Registration {
	r := Registration{
		ID:           id,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Gender:       string(a.Gender),
		Email:        a.Email,
		Phone:        a.Phone,
		DOB:          a.DOB,
		AgreeToTexts: a.AgreeToTexts,
		TryoutType:   string(a.TryoutType()),
		CreatedAt:    now,
	}
	switch s := a.Tryout.(type) {
	case tryout.Doubles:
		r.GroupType = string(s.Cohort)
		r.ActivityType = string(s.Activity)
		r.SessionID = s.SessionID
		r.SelectedTrial = s.SessionLabel
	case tryout.Individual:
		r.CustomDate = s.Date
		r.CustomTime = s.Time
	}
	return r
}

// Validate checks if the Registration has valid data.
// PRE: Registration struct is populated
// POST: Returns nil if valid, error otherwise
func (r *Registration) Validate() error {
	if r.ID == "" {
		return ErrEmptyID
	}
	if r.FirstName == "" || r.LastName == "" {
		return ErrEmptyName
	}
	if r.Email == "" {
		return ErrEmptyEmail
	}
	if r.TryoutType == "" {
		return ErrNoTryout
	}
	if r.CreatedAt.IsZero() {
		return ErrEmptyCreatedAt
	}
	return nil
}

// FullName joins first and last name.
func (r Registration) FullName() string {
	return r.FirstName + " " + r.LastName
}

// Slot is the session label or the custom date and time.
func (r Registration) Slot() string {
	if r.SelectedTrial != "" {
		return r.SelectedTrial
	}
	if r.CustomDate == "" {
		return ""
	}
	return r.CustomDate + " " + r.CustomTime
}
