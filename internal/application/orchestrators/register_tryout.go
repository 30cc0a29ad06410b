package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ringside/internal/domain/registration"
	"ringside/internal/domain/schedule"
	"ringside/internal/domain/tryout"
	"ringside/internal/domain/waiver"
	"ringside/internal/domain/wizard"
)

// RegistrationStore is the subset of the registration store the register flow needs.
type RegistrationStore interface {
	Save(ctx context.Context, r registration.Registration) error
	Delete(ctx context.Context, id string) error
}

// WaiverStore persists signed waivers.
type WaiverStore interface {
	Save(ctx context.Context, w waiver.Waiver) error
}

// ValidationError reports a record that fails the step validators on the server.
type ValidationError struct {
	Fields wizard.FieldErrors
}

// Error returns the first failing field's message.
func (e *ValidationError) Error() string {
	return e.Fields.First()
}

// RegisterTryoutInput carries the submitted record.
type RegisterTryoutInput struct {
	Answers   tryout.Answers
	IPAddress string
}

// RegisterTryoutDeps holds dependencies for RegisterTryout.
type RegisterTryoutDeps struct {
	Registrations RegistrationStore
	Waivers       WaiverStore
	Catalog       *schedule.Catalog
	Location      *time.Location
	Now           func() time.Time
	GenerateID    func() string
}

// ExecuteRegisterTryout validates a completed record and stores it with its signed waiver.
// PRE: deps are non-nil
// POST: On success a registration and a waiver exist for the returned ID;
// on any failure neither is left behind
func ExecuteRegisterTryout(ctx context.Context, input RegisterTryoutInput, deps RegisterTryoutDeps) (registration.Registration, error) {
	now := deps.Now()
	env := wizard.Env{Now: now, Location: deps.Location, Catalog: deps.Catalog}
	if errs := wizard.ValidateAll(input.Answers, env); !errs.Valid() {
		return registration.Registration{}, &ValidationError{Fields: errs}
	}

	a := input.Answers
	// The catalog owns the display label; the client copy is not trusted.
	if d, ok := a.Doubles(); ok {
		if e, found := deps.Catalog.Lookup(d.SessionID); found {
			d.SessionLabel = e.Display()
			a.Tryout = d
		}
	}

	reg := registration.FromAnswers(deps.GenerateID(), a, now)
	if err := reg.Validate(); err != nil {
		return registration.Registration{}, err
	}
	w := waiver.New(deps.GenerateID(), reg.ID, a.HasReadWaiver, a.SignedWaiver, input.IPAddress, now)
	if err := w.Validate(); err != nil {
		return registration.Registration{}, err
	}

	if err := deps.Registrations.Save(ctx, reg); err != nil {
		return registration.Registration{}, fmt.Errorf("save registration: %w", err)
	}
	if err := deps.Waivers.Save(ctx, w); err != nil {
		if delErr := deps.Registrations.Delete(ctx, reg.ID); delErr != nil {
			slog.Error("registration_rollback_failed", "registration_id", reg.ID, "error", delErr)
		}
		return registration.Registration{}, fmt.Errorf("save waiver: %w", err)
	}

	slog.Info("tryout_registered", "registration_id", reg.ID, "tryout_type", reg.TryoutType, "session_id", reg.SessionID)
	return reg, nil
}
