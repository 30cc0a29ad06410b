package tryout

import (
	"encoding/json"
	"fmt"
	"time"
)

// wireAnswers is the flat JSON shape shared by the draft store and the
// /api/register, /api/sendEmail payloads.
type wireAnswers struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Gender        string `json:"gender"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	DOB           string `json:"dob"`
	AgreeToTexts  bool   `json:"agreeToTexts"`
	TryoutType    string `json:"tryoutType"`
	GroupType     string `json:"groupType"`
	ActivityType  string `json:"activityType"`
	SelectedTrial string `json:"selectedTrial"`
	SessionID     string `json:"sessionId"`
	SignedWaiver  string `json:"signedWaiver"`
	HasReadWaiver bool   `json:"hasReadWaiver"`
	CustomDate    string `json:"customDate"`
	CustomTime    string `json:"customTime"`
}

// MarshalJSON flattens the tryout selection into the wire fields.
func (a Answers) MarshalJSON() ([]byte, error) {
	w := wireAnswers{
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		Gender:        string(a.Gender),
		Phone:         a.Phone,
		Email:         a.Email,
		AgreeToTexts:  a.AgreeToTexts,
		TryoutType:    string(a.TryoutType()),
		SignedWaiver:  a.SignedWaiver,
		HasReadWaiver: a.HasReadWaiver,
	}
	if !a.DOB.IsZero() {
		w.DOB = a.DOB.Format(time.RFC3339Nano)
	}
	switch s := a.Tryout.(type) {
	case Individual:
		w.CustomDate = s.Date
		w.CustomTime = s.Time
	case Doubles:
		w.GroupType = string(s.Cohort)
		w.ActivityType = string(s.Activity)
		w.SessionID = s.SessionID
		w.SelectedTrial = s.SessionLabel
	}
	return json.Marshal(w)
}

// UnmarshalJSON rebuilds the tagged union from the flat wire fields.
// Fields that do not belong to the selected branch are ignored.
func (a *Answers) UnmarshalJSON(data []byte) error {
	var w wireAnswers
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	gender, err := ParseGender(w.Gender)
	if err != nil {
		return err
	}
	t, err := ParseType(w.TryoutType)
	if err != nil {
		return err
	}
	dob, err := parseDOB(w.DOB)
	if err != nil {
		return err
	}

	out := Answers{
		FirstName:     w.FirstName,
		LastName:      w.LastName,
		Gender:        gender,
		Email:         w.Email,
		Phone:         w.Phone,
		DOB:           dob,
		AgreeToTexts:  w.AgreeToTexts,
		HasReadWaiver: w.HasReadWaiver,
		SignedWaiver:  w.SignedWaiver,
	}

	switch t {
	case TypeIndividual:
		out.Tryout = Individual{Date: w.CustomDate, Time: w.CustomTime}
	case TypeDoubles:
		cohort, err := ParseCohort(w.GroupType)
		if err != nil {
			return err
		}
		act, err := ParseActivity(w.ActivityType)
		if err != nil {
			return err
		}
		out.Tryout = Doubles{
			Cohort:       cohort,
			Activity:     act,
			SessionID:    w.SessionID,
			SessionLabel: w.SelectedTrial,
		}
	}

	*a = out
	return nil
}

// parseDOB accepts RFC 3339 timestamps and bare YYYY-MM-DD dates.
func parseDOB(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid dob %q: %w", s, err)
	}
	return t, nil
}
