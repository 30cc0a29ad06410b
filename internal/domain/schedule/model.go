package schedule

import (
	"errors"
	"fmt"
	"strings"

	"ringside/internal/domain/tryout"
)

// Day of week constants, as displayed on the tryout page.
const (
	Monday    = "Monday"
	Tuesday   = "Tuesday"
	Wednesday = "Wednesday"
	Thursday  = "Thursday"
	Friday    = "Friday"
	Saturday  = "Saturday"
	Sunday    = "Sunday"
)

// ValidDays contains all valid day values.
var ValidDays = []string{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Domain errors
var (
	ErrEmptyID        = errors.New("session ID cannot be empty")
	ErrDuplicateID    = errors.New("session ID must be unique")
	ErrInvalidDay     = errors.New("day must be a valid day of the week")
	ErrEmptyStartTime = errors.New("start time cannot be empty")
	ErrEmptyDuration  = errors.New("duration cannot be empty")
	ErrKidsKickboxing = errors.New("kickboxing is not offered for the kids group")
)

// Session is a recurring weekly tryout slot. Read-only once loaded.
type Session struct {
	ID       string          `yaml:"id"`
	Name     string          `yaml:"name"`
	Day      string          `yaml:"day"`
	Time     string          `yaml:"time"`     // e.g. "5:00 PM"
	Duration string          `yaml:"duration"` // e.g. "1 hour"
	Activity tryout.Activity `yaml:"activity"`
}

// Validate checks if the Session has valid data.
// PRE: Session struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Session) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return ErrEmptyID
	}
	if !isValidDay(s.Day) {
		return ErrInvalidDay
	}
	if strings.TrimSpace(s.Time) == "" {
		return ErrEmptyStartTime
	}
	if strings.TrimSpace(s.Duration) == "" {
		return ErrEmptyDuration
	}
	if _, err := tryout.ParseActivity(string(s.Activity)); err != nil || s.Activity == "" {
		return fmt.Errorf("session %s: %w", s.ID, tryout.ErrUnknownActivity)
	}
	return nil
}

// Group is a cohort and its sessions.
type Group struct {
	Cohort   tryout.Cohort `yaml:"cohort"`
	Sessions []Session     `yaml:"sessions"`
}

// Entry is a session flattened together with its cohort.
type Entry struct {
	Cohort tryout.Cohort
	Session
}

// Display renders the label shown on session cards and in notifications.
func (e Entry) Display() string {
	return fmt.Sprintf("%s - %s, %s (%s)", e.Cohort, e.Day, e.Time, e.Duration)
}

func isValidDay(day string) bool {
	for _, d := range ValidDays {
		if d == day {
			return true
		}
	}
	return false
}
