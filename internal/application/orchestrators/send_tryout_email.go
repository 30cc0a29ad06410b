package orchestrators

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"ringside/internal/adapters/email"
	domainOutbox "ringside/internal/domain/outbox"
	"ringside/internal/domain/tryout"
)

// StaffEmailSubject is the subject of the new registration email.
const StaffEmailSubject = "New Registration Details"

var emailMarkdown = goldmark.New(goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()))

// SendTryoutEmailInput carries the registered record.
type SendTryoutEmailInput struct {
	Answers        tryout.Answers
	RegistrationID string
}

// SendTryoutEmailDeps holds dependencies for SendTryoutEmail.
type SendTryoutEmailDeps struct {
	Sender     email.Sender
	Outbox     OutboxWriter
	To         []string // staff inbox
	Now        func() time.Time
	GenerateID func() string
}

// ExecuteSendTryoutEmail notifies staff of a new registration.
// PRE: deps.To is non-empty
// POST: On provider failure an outbox entry holds the rendered message for retry
func ExecuteSendTryoutEmail(ctx context.Context, input SendTryoutEmailInput, deps SendTryoutEmailDeps) error {
	req, err := StaffEmail(input.Answers, deps.To)
	if err != nil {
		return err
	}

	res, err := deps.Sender.Send(ctx, req)
	if err != nil {
		slog.Error("email_send_failed", "registration_id", input.RegistrationID, "error", err)
		if payload, mErr := json.Marshal(emailPayload{To: req.To, Subject: req.Subject, HTML: req.HTML, Text: req.Text}); mErr == nil {
			queue(ctx, deps.Outbox, domainOutbox.NewEntry(deps.GenerateID(), domainOutbox.ActionEmail, input.RegistrationID, string(payload), err, deps.Now()))
		}
		return err
	}

	slog.Info("email_sent", "registration_id", input.RegistrationID, "message_id", res.MessageID)
	return nil
}

// emailPayload is the outbox form of a staff email.
type emailPayload struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

// StaffEmail renders the notification for a registered record.
func StaffEmail(a tryout.Answers, to []string) (email.SendRequest, error) {
	text := staffEmailText(a)
	var html bytes.Buffer
	if err := emailMarkdown.Convert([]byte(text), &html); err != nil {
		return email.SendRequest{}, fmt.Errorf("render staff email: %w", err)
	}
	return email.SendRequest{
		To:      to,
		Subject: StaffEmailSubject,
		HTML:    html.String(),
		Text:    text,
	}, nil
}

func staffEmailText(a tryout.Answers) string {
	dob := ""
	if !a.DOB.IsZero() {
		dob = a.DOB.Format(tryout.DateLayout)
	}
	texts := "No"
	if a.AgreeToTexts {
		texts = "Yes"
	}

	var b strings.Builder
	b.WriteString("A new user has registered:\n\n")
	fmt.Fprintf(&b, "First Name: %s\n", a.FirstName)
	fmt.Fprintf(&b, "Last Name: %s\n", a.LastName)
	fmt.Fprintf(&b, "Gender: %s\n", a.Gender)
	fmt.Fprintf(&b, "Email: %s\n", a.Email)
	fmt.Fprintf(&b, "Phone: %s\n", a.Phone)
	fmt.Fprintf(&b, "DOB: %s\n", dob)
	fmt.Fprintf(&b, "Subscribed to texts: %s\n", texts)
	fmt.Fprintf(&b, "Chosen Tryout Type: %s\n", a.TryoutType())
	fmt.Fprintf(&b, "Selected Trial: %s\n", a.Slot())
	return b.String()
}
