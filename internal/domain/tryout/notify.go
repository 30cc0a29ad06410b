package tryout

import (
	"fmt"
	"strings"
)

// SMSRequest is the body of POST /api/sendSms.
type SMSRequest struct {
	Phone         string `json:"phone"`
	AgreeToTexts  bool   `json:"agreeToTexts"`
	TryoutType    string `json:"tryoutType"`
	SelectedTrial string `json:"selectedTrial"`
	ActivityType  string `json:"activityType,omitempty"`
	CustomDate    string `json:"customDate,omitempty"`
	CustomTime    string `json:"customTime,omitempty"`
}

// Slot is the human-readable time of the tryout: the session label for
// Doubles, "date time" for Individual.
func (a Answers) Slot() string {
	switch s := a.Tryout.(type) {
	case Doubles:
		return s.SessionLabel
	case Individual:
		return s.Slot()
	}
	return ""
}

// SMSRequest builds the reminder payload. ok is false when the member did
// not opt in, has no phone, or has no tryout slot to be reminded of.
func (a Answers) SMSRequest() (req SMSRequest, ok bool) {
	if !a.AgreeToTexts || a.Phone == "" || a.Tryout == nil {
		return SMSRequest{}, false
	}
	req = SMSRequest{
		Phone:        a.Phone,
		AgreeToTexts: true,
		TryoutType:   string(a.TryoutType()),
	}
	switch s := a.Tryout.(type) {
	case Doubles:
		if s.SessionLabel == "" {
			return SMSRequest{}, false
		}
		req.SelectedTrial = s.SessionLabel
		req.ActivityType = string(s.Activity)
	case Individual:
		if s.Date == "" || s.Time == "" {
			return SMSRequest{}, false
		}
		req.CustomDate = s.Date
		req.CustomTime = s.Time
	}
	return req, true
}

// Slot mirrors Answers.Slot for a received payload.
func (r SMSRequest) Slot() string {
	if r.SelectedTrial != "" {
		return r.SelectedTrial
	}
	return strings.TrimSpace(r.CustomDate + " " + r.CustomTime)
}

// Reminder is the text message body.
func (r SMSRequest) Reminder() string {
	return fmt.Sprintf("Reminder: Your %s tryout is at %s. Good luck!", r.TryoutType, r.Slot())
}
