package wizard

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ringside/internal/domain/schedule"
	"ringside/internal/domain/tryout"
)

func testEnv() Env {
	return Env{Now: testNow, Location: time.UTC, Catalog: schedule.Default()}
}

func validAnswers() tryout.Answers {
	return tryout.Answers{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Gender:    tryout.GenderFemale,
		Email:     "ada@example.com",
		Phone:     "(555) 555-5555",
		DOB:       time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC),
		Tryout: tryout.Doubles{
			Cohort:    tryout.CohortKids,
			SessionID: "kids-fri-1700",
		},
		HasReadWaiver: true,
		SignedWaiver:  "data:image/png;base64,AAAA",
	}
}

func TestValidateMemberDetails(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*tryout.Answers)
		want   FieldErrors
	}{
		{"valid", func(*tryout.Answers) {}, FieldErrors{}},
		{"blank names", func(a *tryout.Answers) { a.FirstName = "  "; a.LastName = "" },
			FieldErrors{FieldFirstName: MsgFirstNameRequired, FieldLastName: MsgLastNameRequired}},
		{"no gender", func(a *tryout.Answers) { a.Gender = "" }, FieldErrors{FieldGender: MsgGenderRequired}},
		{"no email", func(a *tryout.Answers) { a.Email = "" }, FieldErrors{FieldEmail: MsgEmailRequired}},
		{"bad email", func(a *tryout.Answers) { a.Email = "ada@" }, FieldErrors{FieldEmail: MsgEmailInvalid}},
		{"no phone", func(a *tryout.Answers) { a.Phone = "" }, FieldErrors{FieldPhone: MsgPhoneRequired}},
		{"partial phone", func(a *tryout.Answers) { a.Phone = "(555) 555" }, FieldErrors{FieldPhone: MsgPhoneFormat}},
		{"raw digits", func(a *tryout.Answers) { a.Phone = "5555555555" }, FieldErrors{FieldPhone: MsgPhoneFormat}},
		{"no dob", func(a *tryout.Answers) { a.DOB = time.Time{} }, FieldErrors{FieldDOB: MsgDOBRequired}},
		{"underage", func(a *tryout.Answers) { a.DOB = testNow.AddDate(-17, 0, 0) }, FieldErrors{FieldDOB: MsgUnderage}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAnswers()
			tt.modify(&a)
			assert.Equal(t, tt.want, ValidateMemberDetails(a, testEnv()))
		})
	}
}

func TestValidateMemberDetails_ExactlyEighteenToday(t *testing.T) {
	a := validAnswers()
	a.DOB = testNow.Add(-tryout.AdultAge)
	assert.True(t, ValidateMemberDetails(a, testEnv()).Valid())
}

func TestValidateTryoutSelection(t *testing.T) {
	tests := []struct {
		name      string
		selection tryout.Selection
		want      FieldErrors
	}{
		{"unset", nil, FieldErrors{FieldTryoutType: MsgTryoutType}},
		{"kids session", tryout.Doubles{Cohort: tryout.CohortKids, SessionID: "kids-sat-1430"}, FieldErrors{}},
		{"no cohort", tryout.Doubles{},
			FieldErrors{FieldGroupType: MsgGroup, FieldSelectedTrial: MsgSession}},
		{"adult without activity", tryout.Doubles{Cohort: tryout.CohortAdultsBeginner},
			FieldErrors{FieldActivityType: MsgActivity, FieldSelectedTrial: MsgSession}},
		{"adult kickboxing session", tryout.Doubles{
			Cohort: tryout.CohortAdultsBeginner, Activity: tryout.ActivityKickboxing, SessionID: "adults-beginner-wed-1900",
		}, FieldErrors{}},
		{"session from the other activity", tryout.Doubles{
			Cohort: tryout.CohortAdultsBeginner, Activity: tryout.ActivityBoxing, SessionID: "adults-beginner-wed-1900",
		}, FieldErrors{FieldSelectedTrial: MsgSession}},
		{"session from another cohort", tryout.Doubles{
			Cohort: tryout.CohortKids, SessionID: "adults-pro-mon-1930",
		}, FieldErrors{FieldSelectedTrial: MsgSession}},
		{"individual today", tryout.Individual{Date: "2026-03-10", Time: "09:30"}, FieldErrors{}},
		{"individual later", tryout.Individual{Date: "2026-04-01", Time: "18:00"}, FieldErrors{}},
		{"individual yesterday", tryout.Individual{Date: "2026-03-09", Time: "09:30"},
			FieldErrors{FieldCustomDate: MsgDateInPast}},
		{"individual blank", tryout.Individual{},
			FieldErrors{FieldCustomDate: MsgDate, FieldCustomTime: MsgTime}},
		{"individual garbage", tryout.Individual{Date: "next week", Time: "soon"},
			FieldErrors{FieldCustomDate: MsgDate, FieldCustomTime: MsgTime}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAnswers()
			a.Tryout = tt.selection
			assert.Equal(t, tt.want, ValidateTryoutSelection(a, testEnv()))
		})
	}
}

func TestValidateTryoutSelection_TodayFollowsLocation(t *testing.T) {
	// 12:00 UTC on the 10th is already the 11th in Auckland.
	auckland, err := time.LoadLocation("Pacific/Auckland")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	env := testEnv()
	env.Location = auckland
	a := validAnswers()
	a.Tryout = tryout.Individual{Date: "2026-03-10", Time: "09:30"}

	assert.Equal(t, FieldErrors{FieldCustomDate: MsgDateInPast}, ValidateTryoutSelection(a, env))
}

func TestValidateWaiver(t *testing.T) {
	a := validAnswers()
	assert.True(t, ValidateWaiver(a, testEnv()).Valid())

	a.HasReadWaiver = false
	a.SignedWaiver = " "
	assert.Equal(t, FieldErrors{
		FieldHasReadWaiver: MsgWaiverRead,
		FieldSignedWaiver:  MsgWaiverSigned,
	}, ValidateWaiver(a, testEnv()))
}

func TestValidateAll_FirstInDisplayOrder(t *testing.T) {
	a := validAnswers()
	a.SignedWaiver = ""
	a.Email = "nope"
	a.Tryout = nil

	errs := ValidateAll(a, testEnv())

	assert.Len(t, errs, 3)
	assert.Equal(t, MsgEmailInvalid, errs.First())
	assert.Equal(t, "", FieldErrors{}.First())
}

func TestGuard(t *testing.T) {
	g := NewGuard()
	assert.True(t, g.TryAcquire("a"))
	assert.False(t, g.TryAcquire("a"))
	assert.True(t, g.TryAcquire("b"), "keys are independent")
	assert.True(t, g.InFlight("a"))

	g.Release("a")
	assert.False(t, g.InFlight("a"))
	assert.True(t, g.TryAcquire("a"))
}

func TestGuard_OneWinnerUnderContention(t *testing.T) {
	g := NewGuard()
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryAcquire("k") {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
