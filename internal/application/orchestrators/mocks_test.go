package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ringside/internal/adapters/email"
	"ringside/internal/domain/outbox"
	"ringside/internal/domain/registration"
	"ringside/internal/domain/tryout"
	"ringside/internal/domain/waiver"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func completeAnswers() tryout.Answers {
	return tryout.Answers{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Gender:       tryout.GenderFemale,
		Email:        "ada@example.com",
		Phone:        "(555) 555-1234",
		DOB:          time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		AgreeToTexts: true,
		Tryout: tryout.Doubles{
			Cohort:       tryout.CohortKids,
			SessionID:    "kids-fri-1700",
			SessionLabel: "Kids Group - Friday, 5:00 PM (1 hour)",
		},
		HasReadWaiver: true,
		SignedWaiver:  "data:image/png;base64,AAAA",
	}
}

// --- Mock registration store ---

type mockRegistrationStore struct {
	mu      sync.Mutex
	saved   map[string]registration.Registration
	saveErr error
}

func newMockRegistrationStore() *mockRegistrationStore {
	return &mockRegistrationStore{saved: make(map[string]registration.Registration)}
}

// Save persists a mock registration.
func (m *mockRegistrationStore) Save(_ context.Context, r registration.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved[r.ID] = r
	return nil
}

// Delete removes a mock registration.
func (m *mockRegistrationStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, id)
	return nil
}

// --- Mock waiver store ---

type mockWaiverStore struct {
	mu      sync.Mutex
	saved   []waiver.Waiver
	saveErr error
}

// Save persists a mock waiver.
func (m *mockWaiverStore) Save(_ context.Context, w waiver.Waiver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, w)
	return nil
}

// --- Mock outbox store ---

type mockOutboxStore struct {
	mu      sync.Mutex
	entries map[string]outbox.Entry
}

func newMockOutboxStore() *mockOutboxStore {
	return &mockOutboxStore{entries: make(map[string]outbox.Entry)}
}

func (m *mockOutboxStore) GetByID(_ context.Context, id string) (outbox.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return outbox.Entry{}, errors.New("not found")
	}
	return e, nil
}

func (m *mockOutboxStore) Save(_ context.Context, e outbox.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = e
	return nil
}

func (m *mockOutboxStore) ListPending(_ context.Context, limit int) ([]outbox.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []outbox.Entry
	for _, e := range m.entries {
		if e.CanRetry() && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockOutboxStore) ListFailed(_ context.Context, _ int) ([]outbox.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []outbox.Entry
	for _, e := range m.entries {
		if e.Status == outbox.StatusFailed {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockOutboxStore) all() []outbox.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]outbox.Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out
}

// --- Mock senders ---

type mockSMSSender struct {
	mu   sync.Mutex
	sent []string // "to|body"
	err  error
}

func (m *mockSMSSender) Send(_ context.Context, to, body string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, to+"|"+body)
	return "SM1", nil
}

type mockEmailSender struct {
	mu   sync.Mutex
	sent []email.SendRequest
	err  error
}

func (m *mockEmailSender) Send(_ context.Context, req email.SendRequest) (email.SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return email.SendResult{}, m.err
	}
	m.sent = append(m.sent, req)
	return email.SendResult{MessageID: "em-1", SentAt: testNow}, nil
}

// --- Mock backend ---

type mockBackend struct {
	mu          sync.Mutex
	registered  []tryout.Answers
	smsRequests []tryout.SMSRequest
	emails      []tryout.Answers

	registerErr error
	smsErr      error
	emailErr    error
}

func (m *mockBackend) Register(_ context.Context, a tryout.Answers) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered = append(m.registered, a)
	if m.registerErr != nil {
		return "", m.registerErr
	}
	return "reg-1", nil
}

func (m *mockBackend) SendSMS(_ context.Context, req tryout.SMSRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.smsRequests = append(m.smsRequests, req)
	return m.smsErr
}

func (m *mockBackend) SendEmail(_ context.Context, a tryout.Answers) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails = append(m.emails, a)
	return m.emailErr
}
