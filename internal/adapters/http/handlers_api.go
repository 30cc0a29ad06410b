package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"ringside/internal/adapters/http/middleware"
	"ringside/internal/application/orchestrators"
	"ringside/internal/domain/tryout"
)

const (
	msgMethodNotAllowed = "Method not allowed."
	msgInvalidBody      = "Invalid request body."
	msgInvalidFilter    = "Unknown tryoutType, groupType or activityType."
)

// sessionJSON is one selectable session.
type sessionJSON struct {
	ID       string `json:"id"`
	Cohort   string `json:"cohort"`
	Name     string `json:"name"`
	Day      string `json:"day"`
	Time     string `json:"time"`
	Duration string `json:"duration"`
	Activity string `json:"activity"`
	Label    string `json:"label"`
}

// handleAPISessions lists the sessions selectable for a branch, cohort and activity.
func (s *Server) handleAPISessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t, errT := tryout.ParseType(q.Get("tryoutType"))
	cohort, errC := tryout.ParseCohort(q.Get("groupType"))
	activity, errA := tryout.ParseActivity(q.Get("activityType"))
	if err := errors.Join(errT, errC, errA); err != nil {
		writeJSON(w, http.StatusBadRequest, messageBody{Message: msgInvalidFilter})
		return
	}

	out := []sessionJSON{}
	for _, e := range s.deps.Catalog.Filter(t, cohort, activity) {
		out = append(out, sessionJSON{
			ID:       e.ID,
			Cohort:   string(e.Cohort),
			Name:     e.Name,
			Day:      e.Day,
			Time:     e.Time,
			Duration: e.Duration,
			Activity: string(e.Activity),
			Label:    e.Display(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodPost {
		return true
	}
	w.Header().Set("Allow", http.MethodPost)
	writeJSON(w, http.StatusMethodNotAllowed, messageBody{Message: msgMethodNotAllowed})
	return false
}

// handleAPIRegister stores a registration and its waiver.
// PRE: Body is the full record as JSON
// POST: 200 with the new ID; 422 with the first field message when invalid
func (s *Server) handleAPIRegister(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var a tryout.Answers
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&a); err != nil {
		writeJSON(w, http.StatusBadRequest, messageBody{Message: msgInvalidBody})
		return
	}

	reg, err := orchestrators.ExecuteRegisterTryout(r.Context(), orchestrators.RegisterTryoutInput{
		Answers:   a,
		IPAddress: middleware.ClientIP(r),
	}, s.deps.Register)
	var verr *orchestrators.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, messageBody{Message: verr.Error()})
		return
	case err != nil:
		slog.Error("register_failed", "error", err, "request_id", requestID(r))
		writeJSON(w, http.StatusInternalServerError, messageBody{Message: orchestrators.MsgServerError})
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: orchestrators.MsgRegistered, ID: reg.ID})
}

// handleAPISendSMS texts the tryout reminder when the member opted in.
func (s *Server) handleAPISendSMS(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req tryout.SMSRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageBody{Message: msgInvalidBody})
		return
	}
	sent, err := orchestrators.ExecuteSendTryoutSMS(r.Context(), orchestrators.SendTryoutSMSInput{Request: req}, s.deps.SMS)
	switch {
	case err != nil:
		slog.Error("sms_endpoint_failed", "error", err, "request_id", requestID(r))
		writeJSON(w, http.StatusInternalServerError, messageBody{Message: orchestrators.MsgSMSFailed})
	case sent:
		writeJSON(w, http.StatusOK, messageBody{Message: orchestrators.MsgSMSSent})
	default:
		writeJSON(w, http.StatusOK, messageBody{Message: orchestrators.MsgNoSMS})
	}
}

// handleAPISendEmail notifies staff of a new registration.
func (s *Server) handleAPISendEmail(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var a tryout.Answers
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&a); err != nil {
		writeJSON(w, http.StatusBadRequest, messageBody{Message: msgInvalidBody})
		return
	}
	if err := orchestrators.ExecuteSendTryoutEmail(r.Context(), orchestrators.SendTryoutEmailInput{Answers: a}, s.deps.Email); err != nil {
		slog.Error("email_endpoint_failed", "error", err, "request_id", requestID(r))
		writeJSON(w, http.StatusInternalServerError, messageBody{Message: orchestrators.MsgEmailFailed})
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: orchestrators.MsgEmailSent})
}
