package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"ringside/internal/adapters/apiclient"
	"ringside/internal/domain/tryout"
	"ringside/internal/domain/wizard"
)

// User-facing submission messages.
const (
	MsgRegistered  = "Registration successful!"
	MsgServerError = "Server Error. Please try again."
	MsgNetwork     = "Network Error. Please check your connection."
)

// DefaultSubmitTimeout bounds the registration call, and separately the
// notification calls that follow it.
const DefaultSubmitTimeout = 10 * time.Second

// SubmitOutcome classifies the primary registration call.
type SubmitOutcome string

const (
	OutcomeAccepted    SubmitOutcome = "accepted"
	OutcomeRejected    SubmitOutcome = "rejected"
	OutcomeUnreachable SubmitOutcome = "unreachable"
)

// SMSOutcome classifies the reminder text call.
type SMSOutcome string

const (
	SMSSent    SMSOutcome = "sent"
	SMSSkipped SMSOutcome = "skipped"
	SMSFailed  SMSOutcome = "failed"
)

// TryoutBackend is the registration backend as seen by the submitting wizard.
type TryoutBackend interface {
	Register(ctx context.Context, a tryout.Answers) (string, error)
	SendSMS(ctx context.Context, req tryout.SMSRequest) error
	SendEmail(ctx context.Context, a tryout.Answers) error
}

var _ TryoutBackend = (*apiclient.Client)(nil)

// SubmitTryoutDeps holds dependencies for SubmitTryout.
type SubmitTryoutDeps struct {
	Backend TryoutBackend
	Timeout time.Duration // DefaultSubmitTimeout when zero
}

// SubmitTryoutResult is what the wizard shows after a submission.
type SubmitTryoutResult struct {
	Outcome        SubmitOutcome
	Message        string
	RegistrationID string
	SMS            SMSOutcome
	SMSErr         error
	EmailErr       error
}

// Accepted reports whether the registration was stored.
func (r SubmitTryoutResult) Accepted() bool {
	return r.Outcome == OutcomeAccepted
}

var tracer = otel.Tracer("ringside/orchestrators")

// ExecuteSubmitTryout registers the record and then sends the notifications.
// Only the registration call decides the outcome; notification failures are
// reported in the result but never turn a success into a failure.
// PRE: a has passed every step validator
// POST: Notifications are attempted only after an accepted registration, carry
// its ID in the context and have both finished before this returns
func ExecuteSubmitTryout(ctx context.Context, a tryout.Answers, deps SubmitTryoutDeps) SubmitTryoutResult {
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = DefaultSubmitTimeout
	}
	ctx, span := tracer.Start(ctx, "submit_tryout")
	defer span.End()
	span.SetAttributes(attribute.String("tryout.type", string(a.TryoutType())))

	regCtx, cancelReg := context.WithTimeout(ctx, timeout)
	id, err := deps.Backend.Register(regCtx, a)
	cancelReg()
	if err != nil {
		res := rejection(err)
		span.SetStatus(codes.Error, string(res.Outcome))
		slog.Warn("tryout_submit_failed", "outcome", res.Outcome, "error", err)
		return res
	}
	span.SetAttributes(attribute.String("registration.id", id))

	// Notifications get a fresh budget so a slow registration cannot starve them.
	ctx, cancel := context.WithTimeout(WithRegistrationID(ctx, id), timeout)
	defer cancel()

	var (
		smsOutcome = SMSSkipped
		smsErr     error
		emailErr   error
		g          errgroup.Group
	)
	if req, ok := a.SMSRequest(); ok {
		g.Go(func() error {
			if smsErr = deps.Backend.SendSMS(ctx, req); smsErr != nil {
				smsOutcome = SMSFailed
				slog.Warn("tryout_sms_failed", "registration_id", id, "error", smsErr)
				return nil
			}
			smsOutcome = SMSSent
			return nil
		})
	}
	g.Go(func() error {
		if emailErr = deps.Backend.SendEmail(ctx, a); emailErr != nil {
			slog.Warn("tryout_email_failed", "registration_id", id, "error", emailErr)
		}
		return nil
	})
	_ = g.Wait()

	res := SubmitTryoutResult{
		Outcome:        OutcomeAccepted,
		Message:        MsgRegistered,
		RegistrationID: id,
		SMS:            smsOutcome,
		SMSErr:         smsErr,
		EmailErr:       emailErr,
	}
	slog.Info("tryout_submitted", "registration_id", id, "sms", res.SMS, "email_ok", res.EmailErr == nil)
	return res
}

func rejection(err error) SubmitTryoutResult {
	var rej *apiclient.RejectedError
	if errors.As(err, &rej) {
		msg := rej.Message
		if msg == "" {
			msg = MsgServerError
		}
		return SubmitTryoutResult{Outcome: OutcomeRejected, Message: msg}
	}
	return SubmitTryoutResult{Outcome: OutcomeUnreachable, Message: MsgNetwork}
}

// TryoutSubmitter adapts ExecuteSubmitTryout to wizard.Submitter.
type TryoutSubmitter struct {
	Deps SubmitTryoutDeps
}

var _ wizard.Submitter = TryoutSubmitter{}

// SubmitTryout implements wizard.Submitter.
func (s TryoutSubmitter) SubmitTryout(ctx context.Context, a tryout.Answers) wizard.Outcome {
	res := ExecuteSubmitTryout(ctx, a, s.Deps)
	out := wizard.Outcome{
		Accepted:  res.Accepted(),
		Message:   res.Message,
		Reference: res.RegistrationID,
	}
	if res.SMS == SMSFailed {
		out.Warnings = append(out.Warnings, "We could not send your reminder text.")
	}
	return out
}
