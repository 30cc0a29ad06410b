package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	domainOutbox "ringside/internal/domain/outbox"
	"ringside/internal/domain/tryout"
)

func smsEntry(t *testing.T, id string, lastAttempt time.Time) domainOutbox.Entry {
	t.Helper()
	payload, err := json.Marshal(tryout.SMSRequest{Phone: "(555) 555-1234", AgreeToTexts: true, TryoutType: "Doubles", SelectedTrial: "Kids Group - Friday, 5:00 PM (1 hour)"})
	if err != nil {
		t.Fatal(err)
	}
	return domainOutbox.NewEntry(id, domainOutbox.ActionSMS, "reg-1", string(payload), errors.New("first failure"), lastAttempt)
}

func TestOutboxRetry_ReplaysDueEntries(t *testing.T) {
	store := newMockOutboxStore()
	due := smsEntry(t, "due", testNow.Add(-3*time.Minute))
	notYet := smsEntry(t, "not-yet", testNow.Add(-30*time.Second))
	emailPayload, _ := json.Marshal(emailPayload{To: []string{"coach@example.com"}, Subject: StaffEmailSubject, Text: "hi"})
	mail := domainOutbox.NewEntry("mail", domainOutbox.ActionEmail, "reg-1", string(emailPayload), errors.New("x"), testNow.Add(-time.Hour))
	for _, e := range []domainOutbox.Entry{due, notYet, mail} {
		store.Save(context.Background(), e)
	}
	smsSender := &mockSMSSender{}
	emailSender := &mockEmailSender{}

	stats, err := ExecuteOutboxRetry(context.Background(), OutboxRetryDeps{OutboxStore: store, SMS: smsSender, Email: emailSender, Now: fixedNow})
	if err != nil {
		t.Fatalf("ExecuteOutboxRetry: %v", err)
	}

	if stats.Processed != 2 || stats.Succeeded != 2 || stats.Skipped != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if len(smsSender.sent) != 1 || len(emailSender.sent) != 1 {
		t.Errorf("sms=%d email=%d", len(smsSender.sent), len(emailSender.sent))
	}
	got, _ := store.GetByID(context.Background(), "due")
	if got.Status != domainOutbox.StatusDone || got.Attempts != 2 {
		t.Errorf("due entry = %+v", got)
	}
	got, _ = store.GetByID(context.Background(), "not-yet")
	if got.Status != domainOutbox.StatusRetrying || got.Attempts != 1 {
		t.Errorf("skipped entry changed: %+v", got)
	}
}

func TestOutboxRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	store := newMockOutboxStore()
	e := smsEntry(t, "e", testNow.Add(-2*time.Hour))
	e.Attempts = e.MaxAttempts - 1
	store.Save(context.Background(), e)

	_, err := ExecuteOutboxRetry(context.Background(), OutboxRetryDeps{
		OutboxStore: store, SMS: &mockSMSSender{err: errors.New("still down")}, Now: fixedNow,
	})
	if err != nil {
		t.Fatal(err)
	}

	got, _ := store.GetByID(context.Background(), "e")
	if got.Status != domainOutbox.StatusFailed || got.ErrorMessage != "still down" {
		t.Errorf("entry = %+v, want failed", got)
	}
	pending, _ := store.ListPending(context.Background(), 10)
	if len(pending) != 0 {
		t.Errorf("failed entry still pending: %+v", pending)
	}
}

type mockPurger struct {
	cutoff time.Time
	calls  int
}

func (m *mockPurger) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.calls++
	m.cutoff = cutoff
	return 2, nil
}

func TestRunBackgroundPass_PurgesStaleDrafts(t *testing.T) {
	purger := &mockPurger{}
	deps := BackgroundDeps{Retry: OutboxRetryDeps{OutboxStore: newMockOutboxStore(), Now: fixedNow}, Drafts: purger}

	RunBackgroundPass(context.Background(), deps, BackgroundConfig{DraftTTL: 24 * time.Hour})

	if purger.calls != 1 || !purger.cutoff.Equal(testNow.Add(-24*time.Hour)) {
		t.Errorf("purge calls=%d cutoff=%v", purger.calls, purger.cutoff)
	}
}

func TestStartBackgroundWorker_StopsCleanly(t *testing.T) {
	deps := BackgroundDeps{Retry: OutboxRetryDeps{OutboxStore: newMockOutboxStore(), Now: fixedNow}}

	stop := StartBackgroundWorker(context.Background(), deps, BackgroundConfig{Interval: time.Millisecond, Enabled: true})
	time.Sleep(5 * time.Millisecond)
	stop()

	disabled := StartBackgroundWorker(context.Background(), deps, BackgroundConfig{})
	disabled()
}
