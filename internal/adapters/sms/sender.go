package sms

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNoRecipient is returned when a message has no destination number.
var ErrNoRecipient = errors.New("sms recipient is required")

// Sender delivers a text message and returns the provider's message ID.
type Sender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// NoopSender logs messages but does not deliver them. Used when Twilio is not configured.
type NoopSender struct{}

var _ Sender = NoopSender{}

// Send logs the message.
func (NoopSender) Send(ctx context.Context, to, body string) (string, error) {
	if to == "" {
		return "", ErrNoRecipient
	}
	slog.InfoContext(ctx, "noop_sms_send", "to", to, "chars", len(body))
	return "noop", nil
}
