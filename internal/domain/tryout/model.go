package tryout

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Gender values offered on the member details step.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// ValidGenders contains all valid gender values in display order.
var ValidGenders = []Gender{GenderMale, GenderFemale, GenderOther}

// Type is the top-level tryout branch.
type Type string

const (
	TypeIndividual Type = "Individual"
	TypeDoubles    Type = "Doubles"
)

// ValidTypes contains all valid tryout types in display order.
var ValidTypes = []Type{TypeIndividual, TypeDoubles}

// Cohort is a named training group used to filter sessions.
type Cohort string

const (
	CohortKids               Cohort = "Kids Group"
	CohortAdultsBeginner     Cohort = "Adults Beginner"
	CohortAdultsProfessional Cohort = "Adults Professional"
)

// ValidCohorts contains all valid cohorts in display order.
var ValidCohorts = []Cohort{CohortKids, CohortAdultsBeginner, CohortAdultsProfessional}

// IsAdult reports whether the cohort offers a choice of activity.
func (c Cohort) IsAdult() bool {
	return c == CohortAdultsBeginner || c == CohortAdultsProfessional
}

// Activity is the discipline trained in a session.
type Activity string

const (
	ActivityBoxing     Activity = "boxing"
	ActivityKickboxing Activity = "kickboxing"
)

// ValidActivities contains all valid activities in display order.
var ValidActivities = []Activity{ActivityBoxing, ActivityKickboxing}

// AdultAge is the minimum age as a fixed millisecond offset (18 * 365 days).
// Leap days are deliberately not accounted for.
const AdultAge = 567_648_000_000 * time.Millisecond

// Date and time layouts used by the Individual branch.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// PhonePattern is the only accepted stored phone format.
var PhonePattern = regexp.MustCompile(`^\(\d{3}\) \d{3}-\d{4}$`)

// Domain errors
var (
	ErrUnknownGender   = errors.New("gender must be Male, Female or Other")
	ErrUnknownType     = errors.New("tryout type must be Individual or Doubles")
	ErrUnknownCohort   = errors.New("unknown cohort")
	ErrUnknownActivity = errors.New("activity must be boxing or kickboxing")
)

// Answers is the record accumulated across the wizard steps.
// Fields from later steps may be empty while earlier steps are in progress.
type Answers struct {
	FirstName    string
	LastName     string
	Gender       Gender
	Email        string
	Phone        string
	DOB          time.Time // zero when unset
	AgreeToTexts bool

	Tryout Selection // nil until a tryout type is picked

	HasReadWaiver bool
	SignedWaiver  string // opaque image payload
}

// Default returns the record a new wizard starts from.
func Default() Answers {
	return Answers{}
}

// TryoutType returns the selected branch or "" when none is picked.
func (a Answers) TryoutType() Type {
	if a.Tryout == nil {
		return ""
	}
	return a.Tryout.Type()
}

// Individual returns the Individual selection, if that branch is active.
func (a Answers) Individual() (Individual, bool) {
	s, ok := a.Tryout.(Individual)
	return s, ok
}

// Doubles returns the Doubles selection, if that branch is active.
func (a Answers) Doubles() (Doubles, bool) {
	s, ok := a.Tryout.(Doubles)
	return s, ok
}

// SetTryoutType switches the tryout branch.
// PRE: t is "" or one of ValidTypes
// POST: When the branch changes, every field of the previous branch is dropped;
// re-selecting the current branch keeps its sub-answers.
func (a *Answers) SetTryoutType(t Type) error {
	if t == a.TryoutType() {
		return nil
	}
	switch t {
	case "":
		a.Tryout = nil
	case TypeIndividual:
		a.Tryout = Individual{}
	case TypeDoubles:
		a.Tryout = Doubles{}
	default:
		return ErrUnknownType
	}
	return nil
}

// FullName joins first and last name.
func (a Answers) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Selection is the tagged union over tryout types.
// Only Individual and Doubles implement it.
type Selection interface {
	Type() Type
	isSelection()
}

// Individual is a freely chosen slot.
type Individual struct {
	Date string // YYYY-MM-DD
	Time string // HH:MM
}

// Type implements Selection.
func (Individual) Type() Type { return TypeIndividual }
func (Individual) isSelection() {}

// Slot renders the chosen date and time for notifications.
func (s Individual) Slot() string {
	return strings.TrimSpace(s.Date + " " + s.Time)
}

// Doubles joins a scheduled group session.
type Doubles struct {
	Cohort       Cohort
	Activity     Activity // only meaningful for adult cohorts
	SessionID    string
	SessionLabel string // display text of the session, kept for notifications
}

// Type implements Selection.
func (Doubles) Type() Type { return TypeDoubles }
func (Doubles) isSelection() {}

// WithCohort returns a copy with the cohort changed.
// POST: Activity and session are dropped when the cohort changes.
func (s Doubles) WithCohort(c Cohort) Doubles {
	if c == s.Cohort {
		return s
	}
	return Doubles{Cohort: c}
}

// WithActivity returns a copy with the activity changed.
// POST: The session is dropped when the activity changes.
func (s Doubles) WithActivity(act Activity) Doubles {
	if act == s.Activity {
		return s
	}
	return Doubles{Cohort: s.Cohort, Activity: act}
}

// WithSession returns a copy pointing at the given session.
func (s Doubles) WithSession(id, label string) Doubles {
	s.SessionID = id
	s.SessionLabel = label
	return s
}

// IsAdult reports whether dob is at least AdultAge before now.
// The boundary itself passes.
func IsAdult(dob, now time.Time) bool {
	if dob.IsZero() {
		return false
	}
	return !dob.After(now.Add(-AdultAge))
}

// FormatPhone renders the digits of raw as (XXX) XXX-XXXX.
// Short input yields a partial rendering and extra digits are dropped;
// input without digits yields "".
func FormatPhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := b.String()
	if d == "" {
		return ""
	}
	return "(" + slice(d, 0, 3) + ") " + slice(d, 3, 6) + "-" + slice(d, 6, 10)
}

// slice mirrors a lenient substring: out-of-range bounds are clamped.
func slice(s string, from, to int) string {
	if from > len(s) {
		return ""
	}
	if to > len(s) {
		to = len(s)
	}
	return s[from:to]
}

// ParseGender validates a gender value. An empty string is accepted as unset.
func ParseGender(s string) (Gender, error) {
	if s == "" {
		return "", nil
	}
	for _, g := range ValidGenders {
		if string(g) == s {
			return g, nil
		}
	}
	return "", ErrUnknownGender
}

// ParseType validates a tryout type. An empty string is accepted as unset.
func ParseType(s string) (Type, error) {
	if s == "" {
		return "", nil
	}
	for _, t := range ValidTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", ErrUnknownType
}

// ParseCohort validates a cohort. An empty string is accepted as unset.
func ParseCohort(s string) (Cohort, error) {
	if s == "" {
		return "", nil
	}
	for _, c := range ValidCohorts {
		if string(c) == s {
			return c, nil
		}
	}
	return "", ErrUnknownCohort
}

// ParseActivity validates an activity. An empty string is accepted as unset.
func ParseActivity(s string) (Activity, error) {
	if s == "" {
		return "", nil
	}
	for _, a := range ValidActivities {
		if string(a) == s {
			return a, nil
		}
	}
	return "", ErrUnknownActivity
}
