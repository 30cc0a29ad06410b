package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ringside/internal/domain/tryout"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

type memStore struct {
	mu      sync.Mutex
	answers tryout.Answers
	saves   int
	cleared bool
	saveErr error
}

func (m *memStore) Load(context.Context) tryout.Answers {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.answers
}

func (m *memStore) Save(_ context.Context, a tryout.Answers) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.answers = a
	m.saves++
	return nil
}

func (m *memStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = tryout.Default()
	m.cleared = true
	return nil
}

type stubSubmitter struct {
	outcome Outcome
	calls   int
	got     tryout.Answers
}

func (s *stubSubmitter) SubmitTryout(_ context.Context, a tryout.Answers) Outcome {
	s.calls++
	s.got = a
	return s.outcome
}

func newController(t *testing.T, store *memStore) *Controller {
	t.Helper()
	return New(context.Background(), store, WithClock(func() time.Time { return testNow }), WithLocation(time.UTC))
}

func validDetails() MemberDetailsForm {
	return MemberDetailsForm{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Gender:    tryout.GenderFemale,
		Email:     "ada@example.com",
		Phone:     "5555555555",
		DOB:       time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

func kickboxingSelection() TryoutSelectionForm {
	return TryoutSelectionForm{
		Type:      tryout.TypeDoubles,
		Cohort:    tryout.CohortAdultsBeginner,
		Activity:  tryout.ActivityKickboxing,
		SessionID: "adults-beginner-wed-1900",
	}
}

func TestController_NewStartsAtFirstStepWithDefaults(t *testing.T) {
	c := newController(t, &memStore{})

	require.Equal(t, StepMemberDetails, c.Step())
	require.Equal(t, tryout.Default(), c.Answers())
}

func TestController_AdvanceRejectsInvalidStep(t *testing.T) {
	c := newController(t, &memStore{})

	err := c.Advance()

	require.ErrorIs(t, err, ErrStepInvalid)
	require.Equal(t, StepMemberDetails, c.Step())
}

func TestController_StatusRequiresChangeOnStepOne(t *testing.T) {
	store := &memStore{}
	c := newController(t, store)

	st := c.Status(MemberDetailsForm{})
	require.False(t, st.Valid)
	require.False(t, st.CanSubmit)

	st = c.Status(validDetails())
	require.True(t, st.Valid)
	require.True(t, st.Dirty)
	require.True(t, st.CanSubmit)
}

func TestController_SubmitStepSavesAndAdvances(t *testing.T) {
	store := &memStore{}
	c := newController(t, store)

	_, err := c.SubmitStep(context.Background(), validDetails())

	require.NoError(t, err)
	require.Equal(t, StepTryoutSelection, c.Step())
	require.Equal(t, "(555) 555-5555", store.answers.Phone)
	require.Equal(t, 1, store.saves)
}

func TestController_SubmitStepInvalidLeavesRecord(t *testing.T) {
	store := &memStore{}
	c := newController(t, store)
	form := validDetails()
	form.Email = "not-an-email"

	st, err := c.SubmitStep(context.Background(), form)

	require.ErrorIs(t, err, ErrStepInvalid)
	require.Equal(t, MsgEmailInvalid, st.Errors[FieldEmail])
	require.Equal(t, StepMemberDetails, c.Step())
	require.Zero(t, store.saves)
}

func TestController_SubmitStepWrongStep(t *testing.T) {
	c := newController(t, &memStore{})

	_, err := c.SubmitStep(context.Background(), WaiverForm{HasReadWaiver: true, SignedWaiver: "sig"})

	require.ErrorIs(t, err, ErrWrongStep)
}

func TestController_UnchangedStepOneAllowedOnceCompleted(t *testing.T) {
	c := newController(t, &memStore{})

	st := c.Status(FormFor(StepMemberDetails, c.Answers()))
	require.False(t, st.Dirty)
	require.False(t, st.CanSubmit)

	_, err := c.SubmitStep(context.Background(), validDetails())
	require.NoError(t, err)
	require.NoError(t, c.Retreat())

	st = c.Status(FormFor(StepMemberDetails, c.Answers()))
	require.False(t, st.Dirty)
	require.True(t, st.CanSubmit)
}

func TestController_TryoutSelectionNeedsNoChange(t *testing.T) {
	store := &memStore{}
	c := newController(t, store)
	_, err := c.SubmitStep(context.Background(), validDetails())
	require.NoError(t, err)

	_, err = c.SubmitStep(context.Background(), kickboxingSelection())
	require.NoError(t, err)
	require.NoError(t, c.Retreat())

	st := c.Status(FormFor(StepTryoutSelection, c.Answers()))
	require.False(t, st.Dirty)
	require.True(t, st.CanSubmit)
}

func TestController_SwitchingToIndividualClearsDoubles(t *testing.T) {
	c := newController(t, &memStore{})
	_, err := c.SubmitStep(context.Background(), validDetails())
	require.NoError(t, err)
	require.NoError(t, c.Update(context.Background(), kickboxingSelection()))

	d, ok := c.Answers().Doubles()
	require.True(t, ok)
	require.Equal(t, "Adults Beginner - Wednesday, 7:00 PM (1 hour)", d.SessionLabel)

	require.NoError(t, c.Update(context.Background(), TryoutSelectionForm{
		Type:      tryout.TypeIndividual,
		Cohort:    tryout.CohortAdultsBeginner,
		SessionID: "adults-beginner-wed-1900",
	}))

	ind, ok := c.Answers().Individual()
	require.True(t, ok)
	require.Equal(t, tryout.Individual{}, ind)

	errs := c.Errors()
	require.Equal(t, MsgDate, errs[FieldCustomDate])
	require.Equal(t, MsgTime, errs[FieldCustomTime])
	require.NotContains(t, errs, FieldSelectedTrial)
}

func TestController_SessionMustBelongToCohort(t *testing.T) {
	c := newController(t, &memStore{})
	_, err := c.SubmitStep(context.Background(), validDetails())
	require.NoError(t, err)
	require.NoError(t, c.Update(context.Background(), kickboxingSelection()))

	form := kickboxingSelection()
	form.Cohort = tryout.CohortAdultsProfessional
	require.NoError(t, c.Update(context.Background(), form))

	d, _ := c.Answers().Doubles()
	require.Equal(t, tryout.CohortAdultsProfessional, d.Cohort)
	require.Equal(t, tryout.ActivityKickboxing, d.Activity)
	require.Equal(t, "adults-beginner-wed-1900", d.SessionID)
	require.Equal(t, MsgSession, c.Errors()[FieldSelectedTrial])

	require.NoError(t, c.Update(context.Background(), TryoutSelectionForm{
		Type:   tryout.TypeDoubles,
		Cohort: tryout.CohortKids,
	}))
	d, _ = c.Answers().Doubles()
	require.Equal(t, tryout.Doubles{Cohort: tryout.CohortKids}, d)
}

func TestController_RetreatNeverValidates(t *testing.T) {
	c := newController(t, &memStore{})
	_, err := c.SubmitStep(context.Background(), validDetails())
	require.NoError(t, err)

	require.NoError(t, c.Retreat())
	require.Equal(t, StepMemberDetails, c.Step())
	require.ErrorIs(t, c.Retreat(), ErrFirstStep)
}

func TestController_ResumeClampsToFirstInvalidStep(t *testing.T) {
	store := &memStore{answers: validDetails().Apply(tryout.Default(), Env{})}
	c := newController(t, store)

	require.Equal(t, StepTryoutSelection, c.Resume(StepWaiver))
	require.Equal(t, StepMemberDetails, c.Resume(StepMemberDetails))
	require.Equal(t, StepTryoutSelection, c.Resume(Step(99)))
}

func completeWizard(t *testing.T, c *Controller) {
	t.Helper()
	ctx := context.Background()
	_, err := c.SubmitStep(ctx, validDetails())
	require.NoError(t, err)
	_, err = c.SubmitStep(ctx, kickboxingSelection())
	require.NoError(t, err)
	_, err = c.SubmitStep(ctx, WaiverForm{HasReadWaiver: true, SignedWaiver: "data:image/png;base64,AAAA"})
	require.NoError(t, err)
	require.Equal(t, StepWaiver, c.Step())
}

func TestController_SubmitSuccessClearsDraft(t *testing.T) {
	store := &memStore{}
	c := newController(t, store)
	completeWizard(t, c)
	sub := &stubSubmitter{outcome: Outcome{Accepted: true, Message: "Registration successful!", Reference: "reg-1"}}

	out, err := c.Submit(context.Background(), sub)

	require.NoError(t, err)
	require.True(t, out.Accepted)
	require.Equal(t, StepSubmitted, c.Step())
	require.Equal(t, "reg-1", c.Reference())
	require.True(t, store.cleared)
	require.Equal(t, "Adults Beginner - Wednesday, 7:00 PM (1 hour)", sub.got.Tryout.(tryout.Doubles).SessionLabel)

	_, err = c.Submit(context.Background(), sub)
	require.ErrorIs(t, err, ErrSubmitted)
	require.Equal(t, 1, sub.calls)
}

func TestController_SubmitFailureKeepsState(t *testing.T) {
	store := &memStore{}
	c := newController(t, store)
	completeWizard(t, c)
	before := c.Answers()
	sub := &stubSubmitter{outcome: Outcome{Message: "Server Error. Please try again."}}

	out, err := c.Submit(context.Background(), sub)

	require.NoError(t, err)
	require.False(t, out.Accepted)
	require.Equal(t, StepWaiver, c.Step())
	require.Equal(t, before, c.Answers())
	require.False(t, store.cleared)
}

func TestController_SubmitRequiresLastStep(t *testing.T) {
	c := newController(t, &memStore{})
	sub := &stubSubmitter{}

	_, err := c.Submit(context.Background(), sub)

	require.ErrorIs(t, err, ErrWrongStep)
	require.Zero(t, sub.calls)
}

func TestController_SubmitRejectsWhileInFlight(t *testing.T) {
	guard := NewGuard()
	store := &memStore{}
	c := New(context.Background(), store,
		WithClock(func() time.Time { return testNow }),
		WithLocation(time.UTC),
		WithGuard(guard, "draft-1"))
	completeWizard(t, c)
	require.True(t, guard.TryAcquire("draft-1"))

	_, err := c.Submit(context.Background(), &stubSubmitter{outcome: Outcome{Accepted: true}})
	require.ErrorIs(t, err, ErrSubmitInFlight)

	guard.Release("draft-1")
	out, err := c.Submit(context.Background(), &stubSubmitter{outcome: Outcome{Accepted: true}})
	require.NoError(t, err)
	require.True(t, out.Accepted)
	require.False(t, guard.InFlight("draft-1"))
}

func TestController_ClearSignature(t *testing.T) {
	store := &memStore{}
	c := newController(t, store)
	completeWizard(t, c)

	require.NoError(t, c.ClearSignature(context.Background()))

	require.Empty(t, c.Answers().SignedWaiver)
	require.Equal(t, MsgWaiverSigned, c.Errors()[FieldSignedWaiver])
}

func TestController_SaveFailureIsReported(t *testing.T) {
	store := &memStore{saveErr: errors.New("disk full")}
	c := newController(t, store)

	_, err := c.SubmitStep(context.Background(), validDetails())

	require.Error(t, err)
	require.Equal(t, StepMemberDetails, c.Step())
}

func TestProgress(t *testing.T) {
	items := Progress(StepTryoutSelection)

	require.Len(t, items, 3)
	require.Equal(t, ProgressComplete, items[0].State)
	require.Equal(t, ProgressCurrent, items[1].State)
	require.Equal(t, ProgressUpcoming, items[2].State)
	require.Equal(t, "Waiver Agreement", items[2].Name)
}
