package orchestrators

import (
	"context"
	"errors"
	"net/http"

	"ringside/internal/adapters/apiclient"
	"ringside/internal/domain/tryout"
)

type clientIPKey struct{}

// WithClientIP returns a context carrying the caller's IP address.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the address stored by WithClientIP, or "".
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

type registrationIDKey struct{}

// WithRegistrationID returns a context carrying the ID of the registration
// the notification calls belong to.
func WithRegistrationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, registrationIDKey{}, id)
}

// RegistrationID returns the ID stored by WithRegistrationID, or "".
func RegistrationID(ctx context.Context) string {
	id, _ := ctx.Value(registrationIDKey{}).(string)
	return id
}

// LocalBackend runs the backend use cases in process. It is used when the
// site serves its own API. Failures are reported with the same errors the
// HTTP client would return, so the submission flow cannot tell them apart.
type LocalBackend struct {
	RegisterDeps RegisterTryoutDeps
	SMSDeps      SendTryoutSMSDeps
	EmailDeps    SendTryoutEmailDeps
}

var _ TryoutBackend = (*LocalBackend)(nil)

// Register implements TryoutBackend.
func (b *LocalBackend) Register(ctx context.Context, a tryout.Answers) (string, error) {
	reg, err := ExecuteRegisterTryout(ctx, RegisterTryoutInput{Answers: a, IPAddress: ClientIP(ctx)}, b.RegisterDeps)
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return "", &apiclient.RejectedError{Status: http.StatusUnprocessableEntity, Message: verr.Error()}
	case err != nil:
		return "", &apiclient.RejectedError{Status: http.StatusInternalServerError}
	}
	return reg.ID, nil
}

// SendSMS implements TryoutBackend.
func (b *LocalBackend) SendSMS(ctx context.Context, req tryout.SMSRequest) error {
	if _, err := ExecuteSendTryoutSMS(ctx, SendTryoutSMSInput{Request: req, RegistrationID: RegistrationID(ctx)}, b.SMSDeps); err != nil {
		return &apiclient.RejectedError{Status: http.StatusInternalServerError, Message: MsgSMSFailed}
	}
	return nil
}

// SendEmail implements TryoutBackend.
func (b *LocalBackend) SendEmail(ctx context.Context, a tryout.Answers) error {
	if err := ExecuteSendTryoutEmail(ctx, SendTryoutEmailInput{Answers: a, RegistrationID: RegistrationID(ctx)}, b.EmailDeps); err != nil {
		return &apiclient.RejectedError{Status: http.StatusInternalServerError, Message: MsgEmailFailed}
	}
	return nil
}

// Notification endpoint messages.
const (
	MsgSMSSent     = "Text sent."
	MsgSMSFailed   = "Failed to send SMS."
	MsgNoSMS       = "No SMS sent."
	MsgEmailSent   = "Email sent."
	MsgEmailFailed = "Failed to send email."
)
