package wizard

import "ringside/internal/domain/tryout"

// Step is a wizard state. The form steps are 1-based; Submitted follows the last one.
type Step int

const (
	StepMemberDetails   Step = 1
	StepTryoutSelection Step = 2
	StepWaiver          Step = 3
	StepSubmitted       Step = 4
)

// FirstStep and LastStep bound the form steps.
const (
	FirstStep = StepMemberDetails
	LastStep  = StepWaiver
)

var formSteps = []Step{StepMemberDetails, StepTryoutSelection, StepWaiver}

// IsForm reports whether s is one of the form steps.
func (s Step) IsForm() bool {
	return s >= FirstStep && s <= LastStep
}

// Name is the title shown in the progress indicator.
func (s Step) Name() string {
	switch s {
	case StepMemberDetails:
		return "Member Details"
	case StepTryoutSelection:
		return "Tryout Selection"
	case StepWaiver:
		return "Waiver Agreement"
	case StepSubmitted:
		return "Submitted"
	}
	return ""
}

// Validator returns the rule set owned by the step.
func (s Step) Validator() Validator {
	switch s {
	case StepMemberDetails:
		return ValidateMemberDetails
	case StepTryoutSelection:
		return ValidateTryoutSelection
	case StepWaiver:
		return ValidateWaiver
	}
	return func(_ tryout.Answers, _ Env) FieldErrors { return FieldErrors{} }
}

// RequiresChange reports whether the step's submit stays disabled until a
// field differs from the saved value. Tryout selection is exempt.
func (s Step) RequiresChange() bool {
	return s == StepMemberDetails || s == StepWaiver
}

// ProgressState is how a step is drawn in the progress indicator.
type ProgressState string

const (
	ProgressComplete ProgressState = "complete"
	ProgressCurrent  ProgressState = "current"
	ProgressUpcoming ProgressState = "upcoming"
)

// ProgressItem is one bubble of the progress indicator.
type ProgressItem struct {
	Step  Step
	Name  string
	State ProgressState
}

// Progress lists the form steps relative to current.
func Progress(current Step) []ProgressItem {
	items := make([]ProgressItem, 0, len(formSteps))
	for _, s := range formSteps {
		state := ProgressUpcoming
		switch {
		case s < current:
			state = ProgressComplete
		case s == current:
			state = ProgressCurrent
		}
		items = append(items, ProgressItem{Step: s, Name: s.Name(), State: state})
	}
	return items
}
