package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTwilioBaseURL is the Twilio REST API root.
const DefaultTwilioBaseURL = "https://api.twilio.com"

// TwilioSender sends messages through the Twilio Messages API.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	client     *http.Client
}

var _ Sender = (*TwilioSender)(nil)

// TwilioOption configures a TwilioSender.
type TwilioOption func(*TwilioSender)

// WithBaseURL points the sender at another API root.
func WithBaseURL(u string) TwilioOption {
	return func(s *TwilioSender) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) TwilioOption {
	return func(s *TwilioSender) { s.client = c }
}

// NewTwilioSender creates a sender for the given account.
// PRE: accountSID, authToken and from are non-empty
func NewTwilioSender(accountSID, authToken, from string, opts ...TwilioOption) *TwilioSender {
	s := &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    DefaultTwilioBaseURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type twilioMessage struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"` // set on error responses
	Code    int    `json:"code"`
}

// Send posts one message.
// POST: Returns the Twilio message SID on a 2xx response
func (s *TwilioSender) Send(ctx context.Context, to, body string) (string, error) {
	if to == "" {
		return "", ErrNoRecipient
	}
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, url.PathEscape(s.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build twilio request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("twilio request: %w", err)
	}
	defer resp.Body.Close()

	var msg twilioMessage
	decodeErr := json.NewDecoder(resp.Body).Decode(&msg)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.ErrorContext(ctx, "twilio_send_failed", "status", resp.StatusCode, "code", msg.Code)
		return "", fmt.Errorf("twilio: status %d: %s", resp.StatusCode, msg.Message)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode twilio response: %w", decodeErr)
	}
	slog.InfoContext(ctx, "twilio_sent", "sid", msg.SID, "status", msg.Status)
	return msg.SID, nil
}
