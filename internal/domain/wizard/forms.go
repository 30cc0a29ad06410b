package wizard

import (
	"time"

	"ringside/internal/domain/tryout"
)

// Form is the set of values one step submits.
// Apply merges them into a copy of the record; the original is untouched.
type Form interface {
	Step() Step
	Apply(a tryout.Answers, env Env) tryout.Answers
}

// MemberDetailsForm carries step 1 values.
type MemberDetailsForm struct {
	FirstName    string
	LastName     string
	Gender       tryout.Gender
	Email        string
	Phone        string // raw input; digits are re-masked on apply
	DOB          time.Time
	AgreeToTexts bool
}

// Step implements Form.
func (MemberDetailsForm) Step() Step { return StepMemberDetails }

// Apply implements Form.
func (f MemberDetailsForm) Apply(a tryout.Answers, _ Env) tryout.Answers {
	a.FirstName = f.FirstName
	a.LastName = f.LastName
	a.Gender = f.Gender
	a.Email = f.Email
	a.Phone = tryout.FormatPhone(f.Phone)
	a.DOB = f.DOB
	a.AgreeToTexts = f.AgreeToTexts
	return a
}

// TryoutSelectionForm carries step 2 values. Fields that do not belong to
// the chosen branch are ignored.
type TryoutSelectionForm struct {
	Type      tryout.Type
	Cohort    tryout.Cohort
	Activity  tryout.Activity
	SessionID string
	Date      string
	Time      string
}

// Step implements Form.
func (TryoutSelectionForm) Step() Step { return StepTryoutSelection }

// Apply implements Form. Switching branch, cohort or activity drops the
// answers that depended on the previous value before the new ones land.
func (f TryoutSelectionForm) Apply(a tryout.Answers, env Env) tryout.Answers {
	if err := a.SetTryoutType(f.Type); err != nil {
		a.Tryout = nil
		return a
	}
	switch s := a.Tryout.(type) {
	case tryout.Individual:
		a.Tryout = tryout.Individual{Date: f.Date, Time: f.Time}
	case tryout.Doubles:
		act := f.Activity
		if !f.Cohort.IsAdult() {
			act = ""
		}
		d := s.WithCohort(f.Cohort).WithActivity(act)
		switch {
		case f.SessionID == "":
			d = d.WithSession("", "")
		case f.SessionID != d.SessionID:
			label := ""
			if env.Catalog != nil {
				if e, ok := env.Catalog.Lookup(f.SessionID); ok {
					label = e.Display()
				}
			}
			d = d.WithSession(f.SessionID, label)
		}
		a.Tryout = d
	}
	return a
}

// WaiverForm carries step 3 values.
type WaiverForm struct {
	HasReadWaiver bool
	SignedWaiver  string
}

// Step implements Form.
func (WaiverForm) Step() Step { return StepWaiver }

// Apply implements Form.
func (f WaiverForm) Apply(a tryout.Answers, _ Env) tryout.Answers {
	a.HasReadWaiver = f.HasReadWaiver
	a.SignedWaiver = f.SignedWaiver
	return a
}

// FormFor returns the form holding the record's current values for step s,
// used to pre-fill a page.
func FormFor(s Step, a tryout.Answers) Form {
	switch s {
	case StepMemberDetails:
		return MemberDetailsForm{
			FirstName: a.FirstName, LastName: a.LastName, Gender: a.Gender,
			Email: a.Email, Phone: a.Phone, DOB: a.DOB, AgreeToTexts: a.AgreeToTexts,
		}
	case StepTryoutSelection:
		f := TryoutSelectionForm{Type: a.TryoutType()}
		switch sel := a.Tryout.(type) {
		case tryout.Individual:
			f.Date, f.Time = sel.Date, sel.Time
		case tryout.Doubles:
			f.Cohort, f.Activity, f.SessionID = sel.Cohort, sel.Activity, sel.SessionID
		}
		return f
	case StepWaiver:
		return WaiverForm{HasReadWaiver: a.HasReadWaiver, SignedWaiver: a.SignedWaiver}
	}
	return nil
}

// changed reports whether any field owned by step s differs between a and b.
func changed(s Step, a, b tryout.Answers) bool {
	switch s {
	case StepMemberDetails:
		return a.FirstName != b.FirstName || a.LastName != b.LastName || a.Gender != b.Gender ||
			a.Email != b.Email || a.Phone != b.Phone || !a.DOB.Equal(b.DOB) ||
			a.AgreeToTexts != b.AgreeToTexts
	case StepTryoutSelection:
		return a.Tryout != b.Tryout
	case StepWaiver:
		return a.HasReadWaiver != b.HasReadWaiver || a.SignedWaiver != b.SignedWaiver
	}
	return false
}
