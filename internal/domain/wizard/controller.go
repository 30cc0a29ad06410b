package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ringside/internal/domain/schedule"
	"ringside/internal/domain/tryout"
)

// Domain errors
var (
	ErrStepInvalid    = errors.New("current step has invalid fields")
	ErrUnchanged      = errors.New("no field changed since the last save")
	ErrLastStep       = errors.New("already at the last step")
	ErrFirstStep      = errors.New("already at the first step")
	ErrWrongStep      = errors.New("form does not belong to the current step")
	ErrSubmitted      = errors.New("wizard already submitted")
	ErrSubmitInFlight = errors.New("a submission is already in flight")
)

// Persistence keeps the in-progress record between page loads.
// Load never fails: missing or unreadable data yields tryout.Default().
type Persistence interface {
	Load(ctx context.Context) tryout.Answers
	Save(ctx context.Context, a tryout.Answers) error
	Clear(ctx context.Context) error
}

// Outcome is what a Submitter reports back. It is a value, not an error:
// a rejected submission is an expected result.
type Outcome struct {
	Accepted  bool
	Message   string   // user-visible success or failure text
	Reference string   // registration ID on success
	Warnings  []string // non-fatal problems after a successful registration
}

// Submitter delivers the completed record to the backend.
type Submitter interface {
	SubmitTryout(ctx context.Context, a tryout.Answers) Outcome
}

// Status is the evaluation of a step form against the record.
type Status struct {
	Errors    FieldErrors
	Valid     bool
	Dirty     bool
	CanSubmit bool
}

// Controller is the wizard state machine. It owns the record; every
// mutation goes through a step-local submit and is saved immediately.
// A Controller is not safe for concurrent use; the Guard serialises
// submissions across controllers sharing a draft key.
type Controller struct {
	store   Persistence
	catalog *schedule.Catalog
	now     func() time.Time
	loc     *time.Location
	guard   *Guard
	key     string

	step      Step
	reached   Step
	answers   tryout.Answers
	reference string
}

// Option configures a Controller.
type Option func(*Controller)

// WithCatalog sets the session catalog used by step 2.
func WithCatalog(c *schedule.Catalog) Option {
	return func(ctl *Controller) { ctl.catalog = c }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(ctl *Controller) { ctl.now = now }
}

// WithLocation sets the zone that defines "today" for Individual dates.
func WithLocation(loc *time.Location) Option {
	return func(ctl *Controller) { ctl.loc = loc }
}

// WithGuard shares an in-flight guard; key identifies the draft.
func WithGuard(g *Guard, key string) Option {
	return func(ctl *Controller) {
		ctl.guard = g
		ctl.key = key
	}
}

// New restores the record from store and starts at step 1.
// PRE: store is non-nil
// POST: Controller is at StepMemberDetails with the loaded answers
func New(ctx context.Context, store Persistence, opts ...Option) *Controller {
	c := &Controller{
		store:   store,
		catalog: schedule.Default(),
		now:     time.Now,
		loc:     time.Local,
		step:    FirstStep,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.guard == nil {
		c.guard = NewGuard()
	}
	c.answers = store.Load(ctx)
	c.reached = c.furthestValid()
	return c
}

// Step returns the current state.
func (c *Controller) Step() Step { return c.step }

// Answers returns a copy of the record.
func (c *Controller) Answers() tryout.Answers { return c.answers }

// Reference returns the registration ID once submitted.
func (c *Controller) Reference() string { return c.reference }

// Env returns the validation environment evaluated now.
func (c *Controller) Env() Env {
	return Env{Now: c.now(), Location: c.loc, Catalog: c.catalog}
}

// Errors validates the record against the current step.
func (c *Controller) Errors() FieldErrors {
	if !c.step.IsForm() {
		return FieldErrors{}
	}
	return c.step.Validator()(c.answers, c.Env())
}

// Resume moves to target if every earlier step is valid, otherwise to the
// first step that is not. Pages address steps by URL, so this is how a
// reload lands back on the right step.
// POST: Returns the step actually reached
func (c *Controller) Resume(target Step) Step {
	if c.step == StepSubmitted {
		return c.step
	}
	if target < FirstStep {
		target = FirstStep
	}
	if target > LastStep {
		target = LastStep
	}
	c.reached = c.furthestValid()
	c.step = min(target, c.reached)
	return c.step
}

// furthestValid is the first form step whose fields do not validate,
// or the last step when all earlier ones do.
func (c *Controller) furthestValid() Step {
	env := c.Env()
	for _, s := range formSteps[:len(formSteps)-1] {
		if !s.Validator()(c.answers, env).Valid() {
			return s
		}
	}
	return LastStep
}

// Status evaluates form without changing anything.
func (c *Controller) Status(form Form) Status {
	env := c.Env()
	candidate := form.Apply(c.answers, env)
	errs := form.Step().Validator()(candidate, env)
	st := Status{
		Errors: errs,
		Valid:  errs.Valid(),
		Dirty:  changed(form.Step(), c.answers, candidate),
	}
	completed := form.Step() < c.reached
	st.CanSubmit = st.Valid && (st.Dirty || completed || !form.Step().RequiresChange())
	return st
}

// SubmitStep is the step-local submit handler: it merges form into the
// record, saves, and advances. Invalid or unchanged forms leave everything
// as it was. On the last step the record is merged but not advanced; use
// Submit to finish.
func (c *Controller) SubmitStep(ctx context.Context, form Form) (Status, error) {
	if c.step == StepSubmitted {
		return Status{}, ErrSubmitted
	}
	if form.Step() != c.step {
		return Status{}, ErrWrongStep
	}
	st := c.Status(form)
	if !st.Valid {
		return st, ErrStepInvalid
	}
	if !st.CanSubmit {
		return st, ErrUnchanged
	}

	c.answers = form.Apply(c.answers, c.Env())
	if err := c.store.Save(ctx, c.answers); err != nil {
		return st, fmt.Errorf("save answers: %w", err)
	}
	if c.step == LastStep {
		return st, nil
	}
	return st, c.Advance()
}

// Update merges form into the record and saves it without validating or
// moving. Step 2 uses it to re-render after a branch change.
func (c *Controller) Update(ctx context.Context, form Form) error {
	if c.step == StepSubmitted {
		return ErrSubmitted
	}
	if form.Step() != c.step {
		return ErrWrongStep
	}
	c.answers = form.Apply(c.answers, c.Env())
	c.reached = min(c.reached, c.furthestValid())
	if err := c.store.Save(ctx, c.answers); err != nil {
		return fmt.Errorf("save answers: %w", err)
	}
	return nil
}

// Advance moves forward one step when the current step is valid.
func (c *Controller) Advance() error {
	switch {
	case c.step == StepSubmitted:
		return ErrSubmitted
	case c.step >= LastStep:
		return ErrLastStep
	}
	if !c.Errors().Valid() {
		return ErrStepInvalid
	}
	c.step++
	if c.step > c.reached {
		c.reached = c.step
	}
	return nil
}

// Retreat moves back one step. It never requires validity.
func (c *Controller) Retreat() error {
	switch {
	case c.step == StepSubmitted:
		return ErrSubmitted
	case c.step <= FirstStep:
		return ErrFirstStep
	}
	c.step--
	return nil
}

// ClearSignature empties the signature until it is drawn again.
func (c *Controller) ClearSignature(ctx context.Context) error {
	if c.step == StepSubmitted {
		return ErrSubmitted
	}
	c.answers.SignedWaiver = ""
	if err := c.store.Save(ctx, c.answers); err != nil {
		return fmt.Errorf("save answers: %w", err)
	}
	return nil
}

// Submit hands the completed record to sub. It is only allowed on the last
// step with every step valid, and only once at a time per draft key.
// POST: Accepted -> StepSubmitted and the draft is cleared;
// rejected -> still on the last step with the record untouched
func (c *Controller) Submit(ctx context.Context, sub Submitter) (Outcome, error) {
	switch {
	case c.step == StepSubmitted:
		return Outcome{}, ErrSubmitted
	case c.step != LastStep:
		return Outcome{}, ErrWrongStep
	}
	if !ValidateAll(c.answers, c.Env()).Valid() {
		return Outcome{}, ErrStepInvalid
	}
	if !c.guard.TryAcquire(c.key) {
		return Outcome{}, ErrSubmitInFlight
	}
	defer c.guard.Release(c.key)

	out := sub.SubmitTryout(ctx, c.answers)
	if !out.Accepted {
		return out, nil
	}

	c.step = StepSubmitted
	c.reference = out.Reference
	if err := c.store.Clear(ctx); err != nil {
		return out, fmt.Errorf("clear draft: %w", err)
	}
	return out, nil
}
