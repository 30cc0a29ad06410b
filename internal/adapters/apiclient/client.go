package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"ringside/internal/domain/tryout"
)

// DefaultTimeout bounds each backend request.
const DefaultTimeout = 10 * time.Second

// Endpoint paths of the registration backend.
const (
	PathRegister  = "/api/register"
	PathSendSMS   = "/api/sendSms"
	PathSendEmail = "/api/sendEmail"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// RejectedError is a non-2xx answer from the backend. Message is the
// server's "message" field and may be empty.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend rejected request: status %d", e.Status)
	}
	return fmt.Sprintf("backend rejected request: status %d: %s", e.Status, e.Message)
}

// MessageResponse is the JSON body every endpoint answers with.
type MessageResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// Client calls the registration backend over HTTP. It never retries;
// a failed call is retried by the member submitting again.
type Client struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its timeout is kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for baseURL. A non-positive timeout uses DefaultTimeout.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tracer:  otel.Tracer("ringside/apiclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register posts the full record and returns the registration ID.
func (c *Client) Register(ctx context.Context, a tryout.Answers) (string, error) {
	resp, err := c.post(ctx, PathRegister, a)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// SendSMS posts the reminder payload.
func (c *Client) SendSMS(ctx context.Context, req tryout.SMSRequest) error {
	_, err := c.post(ctx, PathSendSMS, req)
	return err
}

// SendEmail posts the full record for the staff notification.
func (c *Client) SendEmail(ctx context.Context, a tryout.Answers) error {
	_, err := c.post(ctx, PathSendEmail, a)
	return err
}

func (c *Client) post(ctx context.Context, path string, body any) (MessageResponse, error) {
	ctx, span := c.tracer.Start(ctx, "POST "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	payload, err := json.Marshal(body)
	if err != nil {
		return MessageResponse{}, fmt.Errorf("encode %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return MessageResponse{}, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return MessageResponse{}, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	var out MessageResponse
	data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if readErr == nil && len(data) > 0 {
		// A body that is not JSON leaves Message empty; callers fall back to a generic text.
		_ = json.Unmarshal(data, &out)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rej := &RejectedError{Status: resp.StatusCode, Message: out.Message}
		span.SetStatus(codes.Error, rej.Error())
		return out, rej
	}
	if readErr != nil {
		return out, fmt.Errorf("read %s response: %w", path, readErr)
	}
	return out, nil
}
