package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTwilioSender_Send(t *testing.T) {
	var gotPath, gotBody, gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, _, _ = r.BasicAuth()
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		gotBody = r.PostForm.Get("Body")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM123","status":"queued"}`))
	}))
	defer srv.Close()

	s := NewTwilioSender("AC1", "secret", "+15550000000", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	sid, err := s.Send(context.Background(), "(555) 555-1234", "Reminder")

	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sid != "SM123" {
		t.Errorf("sid = %q, want SM123", sid)
	}
	if gotPath != "/2010-04-01/Accounts/AC1/Messages.json" {
		t.Errorf("path = %q", gotPath)
	}
	if gotUser != "AC1" || gotBody != "Reminder" {
		t.Errorf("user = %q, body = %q", gotUser, gotBody)
	}
}

func TestTwilioSender_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number"}`))
	}))
	defer srv.Close()

	s := NewTwilioSender("AC1", "secret", "+15550000000", WithBaseURL(srv.URL))
	_, err := s.Send(context.Background(), "bad", "x")

	if err == nil || !strings.Contains(err.Error(), "Invalid 'To' Phone Number") {
		t.Errorf("Send error = %v", err)
	}
}

func TestSenders_RequireRecipient(t *testing.T) {
	if _, err := (NoopSender{}).Send(context.Background(), "", "x"); err != ErrNoRecipient {
		t.Errorf("noop: %v", err)
	}
	if _, err := NewTwilioSender("a", "b", "c").Send(context.Background(), "", "x"); err != ErrNoRecipient {
		t.Errorf("twilio: %v", err)
	}
}
