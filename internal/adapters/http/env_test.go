package web

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"ringside/internal/adapters/email"
	"ringside/internal/adapters/http/middleware"
	"ringside/internal/adapters/http/perf"
	"ringside/internal/adapters/storage"
	"ringside/internal/adapters/storage/draft"
	outboxStore "ringside/internal/adapters/storage/outbox"
	registrationStore "ringside/internal/adapters/storage/registration"
	waiverStore "ringside/internal/adapters/storage/waiver"
	"ringside/internal/application/orchestrators"
	"ringside/internal/domain/schedule"
	"ringside/internal/domain/tryout"
	"ringside/internal/domain/wizard"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

const testWaiver = "# Waiver\n\nI train at my own risk."

// --- Fake senders ---

type fakeSMS struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeSMS) Send(_ context.Context, to, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, to+": "+body)
	return "SM" + to, nil
}

func (f *fakeSMS) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []email.SendRequest
	err  error
}

func (f *fakeEmail) Send(_ context.Context, req email.SendRequest) (email.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return email.SendResult{}, f.err
	}
	f.sent = append(f.sent, req)
	return email.SendResult{MessageID: "msg-1", SentAt: testNow}, nil
}

func (f *fakeEmail) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// stubSubmitter returns a fixed outcome.
type stubSubmitter struct {
	out wizard.Outcome
}

func (s stubSubmitter) SubmitTryout(context.Context, tryout.Answers) wizard.Outcome { return s.out }

// --- Test environment ---

type testEnv struct {
	t       *testing.T
	db      *sql.DB
	server  *Server
	drafts  *draft.SQLiteStore
	regs    *registrationStore.SQLiteStore
	waivers *waiverStore.SQLiteStore
	outbox  *outboxStore.SQLiteStore
	sms     *fakeSMS
	email   *fakeEmail
	visitor string
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// newTestEnv wires a Server over an in-memory database with the in-process
// backend, so a wizard submission lands in the same stores the API writes.
func newTestEnv(t *testing.T, opts ...func(*Deps)) *testEnv {
	t.Helper()
	db := openDB(t)
	e := &testEnv{
		t:       t,
		db:      db,
		drafts:  draft.NewSQLiteStore(db),
		regs:    registrationStore.NewSQLiteStore(db),
		waivers: waiverStore.NewSQLiteStore(db),
		outbox:  outboxStore.NewSQLiteStore(db),
		sms:     &fakeSMS{},
		email:   &fakeEmail{},
		visitor: uuid.NewString(),
	}
	catalog := schedule.Default()
	deps := Deps{
		Drafts:        e.drafts,
		Registrations: e.regs,
		Catalog:       catalog,
		Location:      time.UTC,
		Register: orchestrators.RegisterTryoutDeps{
			Registrations: e.regs, Waivers: e.waivers, Catalog: catalog,
			Location: time.UTC, Now: fixedNow, GenerateID: uuid.NewString,
		},
		SMS:        orchestrators.SendTryoutSMSDeps{Sender: e.sms, Outbox: e.outbox, Now: fixedNow, GenerateID: uuid.NewString},
		Email:      orchestrators.SendTryoutEmailDeps{Sender: e.email, Outbox: e.outbox, To: []string{"coach@example.com"}, Now: fixedNow, GenerateID: uuid.NewString},
		WaiverText: testWaiver,
		Collector:  perf.NewCollector(100),
		Health:     db.PingContext,
		Now:        fixedNow,
	}
	deps.Submitter = orchestrators.TryoutSubmitter{Deps: orchestrators.SubmitTryoutDeps{
		Backend: &orchestrators.LocalBackend{RegisterDeps: deps.Register, SMSDeps: deps.SMS, EmailDeps: deps.Email},
	}}
	for _, opt := range opts {
		opt(&deps)
	}
	srv, err := NewServer(deps)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	e.server = srv
	return e
}

// handler routes pages and the API without CSRF, as the same visitor.
func (e *testEnv) handler() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.ContextWithVisitor(r.Context(), e.visitor)))
		})
	})
	r.Get("/healthz", e.server.handleHealth)
	r.Route("/api", e.server.mountAPI)
	e.server.mountPages(r)
	return r
}

func (e *testEnv) get(target string) *httptest.ResponseRecorder {
	e.t.Helper()
	rec := httptest.NewRecorder()
	e.handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func (e *testEnv) postForm(target string, form url.Values) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) postJSON(target, body string) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler().ServeHTTP(rec, req)
	return rec
}

// savedDraft reads the visitor's draft straight from the store.
func (e *testEnv) savedDraft() tryout.Answers {
	return draft.For(e.drafts, e.visitor).Load(context.Background())
}

func (e *testEnv) seedDraft(a tryout.Answers) {
	e.t.Helper()
	if err := draft.For(e.drafts, e.visitor).Save(context.Background(), a); err != nil {
		e.t.Fatalf("seed draft: %v", err)
	}
}

func memberDetailsForm() url.Values {
	return url.Values{
		"firstName":    {"Ada"},
		"lastName":     {"Lovelace"},
		"gender":       {"Female"},
		"email":        {"ada@example.com"},
		"phone":        {"5555551234"},
		"dob":          {"1990-01-01"},
		"agreeToTexts": {"on"},
	}
}

func kidsSelectionForm() url.Values {
	return url.Values{
		"tryoutType": {"Doubles"},
		"groupType":  {"Kids Group"},
		"sessionId":  {"kids-fri-1700"},
	}
}

func waiverForm() url.Values {
	return url.Values{
		"hasReadWaiver": {"on"},
		"signedWaiver":  {"data:image/png;base64,iVBORw0KGgo="},
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
		SignedWaiver:  "data:image/png;base64,iVBORw0KGgo=",
	}
}

var errProvider = errors.New("provider down")

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("got status %d, want %d. Body: %s", rec.Code, want, rec.Body.String())
	}
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	assertStatus(t, rec, http.StatusSeeOther)
	if got := rec.Header().Get("Location"); got != want {
		t.Errorf("got redirect %q, want %q", got, want)
	}
}
