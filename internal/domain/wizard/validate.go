package wizard

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"ringside/internal/domain/schedule"
	"ringside/internal/domain/tryout"
)

// Field names used as FieldErrors keys; they match the wire field names.
const (
	FieldFirstName     = "firstName"
	FieldLastName      = "lastName"
	FieldGender        = "gender"
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldDOB           = "dob"
	FieldTryoutType    = "tryoutType"
	FieldGroupType     = "groupType"
	FieldActivityType  = "activityType"
	FieldSelectedTrial = "selectedTrial"
	FieldCustomDate    = "customDate"
	FieldCustomTime    = "customTime"
	FieldHasReadWaiver = "hasReadWaiver"
	FieldSignedWaiver  = "signedWaiver"
)

// User-facing validation messages.
const (
	MsgFirstNameRequired = "First Name is required."
	MsgLastNameRequired  = "Last Name is required."
	MsgGenderRequired    = "Gender is required."
	MsgEmailRequired     = "Email is required."
	MsgEmailInvalid      = "Invalid email address."
	MsgPhoneRequired     = "Phone number is required."
	MsgPhoneFormat       = "Phone number must be in the format (555) 555-5555."
	MsgDOBRequired       = "Date of Birth is required."
	MsgUnderage          = "You must be at least 18 years old."
	MsgTryoutType        = "Please select a tryout type."
	MsgGroup             = "Please select a group."
	MsgActivity          = "Please select an activity type."
	MsgSession           = "Please select a training session."
	MsgDate              = "Please select a date."
	MsgDateInPast        = "Date cannot be in the past."
	MsgTime              = "Please select a time."
	MsgWaiverRead        = "You must confirm that you have read the waiver."
	MsgWaiverSigned      = "You must sign the waiver."
)

// FieldErrors maps a field name to the message shown beside it.
// An empty map means the step is valid.
type FieldErrors map[string]string

// Valid reports whether no field failed.
func (fe FieldErrors) Valid() bool {
	return len(fe) == 0
}

// First returns the message of the first failing field in display order.
func (fe FieldErrors) First() string {
	for _, f := range fieldOrder {
		if msg, ok := fe[f]; ok {
			return msg
		}
	}
	return ""
}

var fieldOrder = []string{
	FieldFirstName, FieldLastName, FieldGender, FieldEmail, FieldPhone, FieldDOB,
	FieldTryoutType, FieldGroupType, FieldActivityType, FieldSelectedTrial, FieldCustomDate, FieldCustomTime,
	FieldHasReadWaiver, FieldSignedWaiver,
}

// Env is what validators need besides the record itself.
type Env struct {
	Now      time.Time
	Location *time.Location
	Catalog  *schedule.Catalog
}

// Validator checks the fields one step owns against the whole record.
type Validator func(a tryout.Answers, env Env) FieldErrors

var fieldValidate = validator.New()

// ValidateMemberDetails checks step 1.
func ValidateMemberDetails(a tryout.Answers, env Env) FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(a.FirstName) == "" {
		errs[FieldFirstName] = MsgFirstNameRequired
	}
	if strings.TrimSpace(a.LastName) == "" {
		errs[FieldLastName] = MsgLastNameRequired
	}
	if a.Gender == "" {
		errs[FieldGender] = MsgGenderRequired
	}
	switch {
	case strings.TrimSpace(a.Email) == "":
		errs[FieldEmail] = MsgEmailRequired
	case fieldValidate.Var(a.Email, "email") != nil:
		errs[FieldEmail] = MsgEmailInvalid
	}
	switch {
	case a.Phone == "":
		errs[FieldPhone] = MsgPhoneRequired
	case !tryout.PhonePattern.MatchString(a.Phone):
		errs[FieldPhone] = MsgPhoneFormat
	}
	switch {
	case a.DOB.IsZero():
		errs[FieldDOB] = MsgDOBRequired
	case !tryout.IsAdult(a.DOB, env.Now):
		errs[FieldDOB] = MsgUnderage
	}
	return errs
}

// ValidateTryoutSelection checks step 2. Which fields are required depends
// on the tryout branch and, within Doubles, on the cohort.
func ValidateTryoutSelection(a tryout.Answers, env Env) FieldErrors {
	errs := FieldErrors{}
	switch s := a.Tryout.(type) {
	case nil:
		errs[FieldTryoutType] = MsgTryoutType
	case tryout.Doubles:
		if s.Cohort == "" {
			errs[FieldGroupType] = MsgGroup
		}
		if s.Cohort.IsAdult() && s.Activity == "" {
			errs[FieldActivityType] = MsgActivity
		}
		if s.SessionID == "" || env.Catalog == nil ||
			!env.Catalog.Offers(tryout.TypeDoubles, s.Cohort, s.Activity, s.SessionID) {
			errs[FieldSelectedTrial] = MsgSession
		}
	case tryout.Individual:
		if msg := checkDate(s.Date, env); msg != "" {
			errs[FieldCustomDate] = msg
		}
		if _, err := time.Parse(tryout.TimeLayout, s.Time); err != nil {
			errs[FieldCustomTime] = MsgTime
		}
	}
	return errs
}

// checkDate accepts today or any later calendar day in env.Location.
func checkDate(value string, env Env) string {
	if value == "" {
		return MsgDate
	}
	loc := env.Location
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation(tryout.DateLayout, value, loc)
	if err != nil {
		return MsgDate
	}
	now := env.Now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if day.Before(today) {
		return MsgDateInPast
	}
	return ""
}

// ValidateWaiver checks step 3.
func ValidateWaiver(a tryout.Answers, _ Env) FieldErrors {
	errs := FieldErrors{}
	if !a.HasReadWaiver {
		errs[FieldHasReadWaiver] = MsgWaiverRead
	}
	if strings.TrimSpace(a.SignedWaiver) == "" {
		errs[FieldSignedWaiver] = MsgWaiverSigned
	}
	return errs
}

// ValidateAll runs every step validator and merges the results.
func ValidateAll(a tryout.Answers, env Env) FieldErrors {
	errs := FieldErrors{}
	for _, s := range formSteps {
		for k, v := range s.Validator()(a, env) {
			errs[k] = v
		}
	}
	return errs
}
