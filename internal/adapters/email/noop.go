package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// NoopSender logs sends but does not deliver them. Used when no Resend key is set.
type NoopSender struct{}

var _ Sender = (*NoopSender)(nil)

// NewNoopSender creates a new NoopSender.
func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

// Send logs the email but does not deliver it.
func (s *NoopSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	slog.InfoContext(ctx, "noop_email_send", "to", req.To, "subject", req.Subject)
	return SendResult{
		MessageID: fmt.Sprintf("noop-%d", time.Now().UnixNano()),
		SentAt:    time.Now(),
	}, nil
}
