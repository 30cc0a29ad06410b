package orchestrators

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"ringside/internal/adapters/sms"
	domainOutbox "ringside/internal/domain/outbox"
	"ringside/internal/domain/tryout"
)

// OutboxWriter records notifications for the retry worker.
type OutboxWriter interface {
	Save(ctx context.Context, e domainOutbox.Entry) error
}

// SendTryoutSMSInput carries the reminder payload.
type SendTryoutSMSInput struct {
	Request        tryout.SMSRequest
	RegistrationID string // optional, links an outbox entry back to its registration
}

// SendTryoutSMSDeps holds dependencies for SendTryoutSMS.
type SendTryoutSMSDeps struct {
	Sender     sms.Sender
	Outbox     OutboxWriter
	Now        func() time.Time
	GenerateID func() string
}

// ExecuteSendTryoutSMS texts the tryout reminder when the member opted in.
// sent is false with a nil error when there was nothing to send.
// PRE: deps are non-nil
// POST: On provider failure an outbox entry holds the request for retry
func ExecuteSendTryoutSMS(ctx context.Context, input SendTryoutSMSInput, deps SendTryoutSMSDeps) (sent bool, err error) {
	req := input.Request
	if !req.AgreeToTexts || req.Phone == "" {
		return false, nil
	}

	sid, err := deps.Sender.Send(ctx, req.Phone, req.Reminder())
	if err != nil {
		slog.Error("sms_send_failed", "registration_id", input.RegistrationID, "error", err)
		if payload, mErr := json.Marshal(req); mErr == nil {
			queue(ctx, deps.Outbox, domainOutbox.NewEntry(deps.GenerateID(), domainOutbox.ActionSMS, input.RegistrationID, string(payload), err, deps.Now()))
		}
		return false, err
	}

	slog.Info("sms_sent", "registration_id", input.RegistrationID, "message_sid", sid)
	return true, nil
}

// queue saves an outbox entry. A nil writer disables retries.
func queue(ctx context.Context, w OutboxWriter, e domainOutbox.Entry) {
	if w == nil {
		return
	}
	if err := w.Save(ctx, e); err != nil {
		slog.Error("outbox_save_failed", "action", e.ActionType, "registration_id", e.RegistrationID, "error", err)
		return
	}
	slog.Info("outbox_queued", "entry_id", e.ID, "action", e.ActionType)
}
