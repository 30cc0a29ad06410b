package web

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"ringside/internal/adapters/http/middleware"
	"ringside/internal/adapters/storage/draft"
	"ringside/internal/application/orchestrators"
	"ringside/internal/domain/registration"
	"ringside/internal/domain/tryout"
	"ringside/internal/domain/wizard"
)

// Notices shown above a re-rendered step.
const (
	noticeUnchanged        = "Change a field before continuing."
	noticeSignatureCleared = "Signature cleared."
	alertInFlight          = "Your registration is already being submitted."
)

// referencePattern bounds what a confirmation URL may carry.
var referencePattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

// formValues are the raw strings a step page pre-fills.
type formValues struct {
	FirstName     string
	LastName      string
	Gender        string
	Email         string
	Phone         string
	DOB           string
	AgreeToTexts  bool
	TryoutType    string
	GroupType     string
	ActivityType  string
	SessionID     string
	CustomDate    string
	CustomTime    string
	HasReadWaiver bool
	SignedWaiver  string
}

type sessionCard struct {
	ID       string
	Label    string
	Name     string
	Selected bool
}

type stepPage struct {
	Step           wizard.Step
	Title          string
	Progress       []wizard.ProgressItem
	Form           formValues
	Errors         wizard.FieldErrors
	Notice         string
	Alert          string
	RequiresChange bool

	Genders    []tryout.Gender
	Types      []tryout.Type
	Cohorts    []tryout.Cohort
	Activities []tryout.Activity
	Sessions   []sessionCard
	MinDate    string

	ShowGroups     bool
	ShowActivities bool
	ShowSessions   bool
	ShowCustom     bool

	WaiverHTML template.HTML
}

func stepURL(s wizard.Step) string {
	return fmt.Sprintf("/tryout/step/%d", s)
}

func (s *Server) controller(r *http.Request) *wizard.Controller {
	p := draft.For(s.deps.Drafts, middleware.VisitorID(r.Context()))
	return wizard.New(r.Context(), p,
		wizard.WithCatalog(s.deps.Catalog),
		wizard.WithClock(s.deps.Now),
		wizard.WithLocation(s.deps.Location),
		wizard.WithGuard(s.deps.Guard, p.Key()),
	)
}

func stepParam(r *http.Request) (wizard.Step, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	step := wizard.Step(n)
	return step, err == nil && step.IsForm()
}

func redirectStep(w http.ResponseWriter, r *http.Request, step wizard.Step) {
	http.Redirect(w, r, stepURL(step), http.StatusSeeOther)
}

// handleTryout sends the visitor to the furthest step they may be on.
func (s *Server) handleTryout(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controller(r)
	redirectStep(w, r, ctrl.Resume(wizard.LastStep))
}

// handleStepPage renders a step pre-filled from the saved draft.
func (s *Server) handleStepPage(w http.ResponseWriter, r *http.Request) {
	step, ok := stepParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	ctrl := s.controller(r)
	if got := ctrl.Resume(step); got != step {
		redirectStep(w, r, got)
		return
	}
	form := wizard.FormFor(step, ctrl.Answers())
	s.renderStep(w, r, http.StatusOK, ctrl, valuesOf(form, s.deps.Location), nil, "", "")
}

// handleStepSubmit saves a step and moves forward, or back with action=back.
// PRE: Step form posted with a valid CSRF token
// POST: 303 to the next step on success; 422 with field errors otherwise
func (s *Server) handleStepSubmit(w http.ResponseWriter, r *http.Request) {
	step, ok := stepParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	ctrl := s.controller(r)
	if got := ctrl.Resume(step); got != step {
		redirectStep(w, r, got)
		return
	}

	if r.PostFormValue("action") == "back" {
		if err := ctrl.Retreat(); err != nil && !errors.Is(err, wizard.ErrFirstStep) {
			internalError(w, err)
			return
		}
		redirectStep(w, r, ctrl.Step())
		return
	}

	form, values, parseErrs := parseStepForm(step, r, s.deps.Location)
	if !parseErrs.Valid() {
		s.renderStep(w, r, http.StatusUnprocessableEntity, ctrl, values, parseErrs, "", "")
		return
	}

	st, err := ctrl.SubmitStep(r.Context(), form)
	switch {
	case errors.Is(err, wizard.ErrStepInvalid):
		s.renderStep(w, r, http.StatusUnprocessableEntity, ctrl, values, st.Errors, "", "")
		return
	case errors.Is(err, wizard.ErrUnchanged):
		s.renderStep(w, r, http.StatusOK, ctrl, values, nil, noticeUnchanged, "")
		return
	case err != nil:
		internalError(w, err)
		return
	}

	slog.Info("wizard_step_saved", "step", int(step), "request_id", requestID(r))
	redirectStep(w, r, ctrl.Step())
}

// handleSelectionRefresh saves step 2 without validating so that the page
// can show the fields of the newly chosen branch.
func (s *Server) handleSelectionRefresh(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	ctrl := s.controller(r)
	if got := ctrl.Resume(wizard.StepTryoutSelection); got != wizard.StepTryoutSelection {
		redirectStep(w, r, got)
		return
	}
	form, _, _ := parseStepForm(wizard.StepTryoutSelection, r, s.deps.Location)
	if err := ctrl.Update(r.Context(), form); err != nil {
		internalError(w, err)
		return
	}
	saved := wizard.FormFor(wizard.StepTryoutSelection, ctrl.Answers())
	s.renderStep(w, r, http.StatusOK, ctrl, valuesOf(saved, s.deps.Location), nil, "", "")
}

// handleSubmit saves the waiver step and submits the whole record.
// POST: 303 to the confirmation page on success; the waiver step with an
// alert on rejection, the draft left intact for a retry
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	ctrl := s.controller(r)
	if got := ctrl.Resume(wizard.LastStep); got != wizard.LastStep {
		redirectStep(w, r, got)
		return
	}

	form, values, _ := parseStepForm(wizard.StepWaiver, r, s.deps.Location)
	st, err := ctrl.SubmitStep(r.Context(), form)
	switch {
	case errors.Is(err, wizard.ErrStepInvalid):
		s.renderStep(w, r, http.StatusUnprocessableEntity, ctrl, values, st.Errors, "", "")
		return
	case errors.Is(err, wizard.ErrUnchanged):
		// a resubmit after a rejection carries the saved values unchanged
	case err != nil:
		internalError(w, err)
		return
	}

	ctx := orchestrators.WithClientIP(r.Context(), middleware.ClientIP(r))
	out, err := ctrl.Submit(ctx, s.deps.Submitter)
	switch {
	case errors.Is(err, wizard.ErrSubmitInFlight):
		s.renderStep(w, r, http.StatusConflict, ctrl, values, nil, "", alertInFlight)
		return
	case errors.Is(err, wizard.ErrStepInvalid):
		http.Redirect(w, r, "/tryout", http.StatusSeeOther)
		return
	case err != nil && !out.Accepted:
		internalError(w, err)
		return
	case err != nil:
		slog.Warn("draft_clear_failed", "error", err, "registration_id", out.Reference)
	}

	if !out.Accepted {
		s.renderStep(w, r, http.StatusOK, ctrl, values, nil, "", out.Message)
		return
	}

	// A backend may accept without returning an ID; the done page then has no reference.
	target := "/tryout/done"
	if out.Reference != "" {
		target += "/" + url.PathEscape(out.Reference)
	}
	if len(out.Warnings) > 0 {
		target += "?" + url.Values{"warning": out.Warnings}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// handleSignatureClear empties the saved signature.
func (s *Server) handleSignatureClear(w http.ResponseWriter, r *http.Request) {
	ctrl := s.controller(r)
	if got := ctrl.Resume(wizard.StepWaiver); got != wizard.StepWaiver {
		redirectStep(w, r, got)
		return
	}
	if err := ctrl.ClearSignature(r.Context()); err != nil {
		internalError(w, err)
		return
	}
	form := wizard.FormFor(wizard.StepWaiver, ctrl.Answers())
	s.renderStep(w, r, http.StatusOK, ctrl, valuesOf(form, s.deps.Location), nil, noticeSignatureCleared, "")
}

type donePage struct {
	Reference string
	Name      string
	Slot      string
	Message   string
	Warnings  []string
}

// handleDone renders the confirmation with the registration reference.
func (s *Server) handleDone(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "id")
	if ref != "" && !referencePattern.MatchString(ref) {
		http.NotFound(w, r)
		return
	}
	data := donePage{
		Reference: ref,
		Message:   orchestrators.MsgRegistered,
		Warnings:  r.URL.Query()["warning"],
	}
	if ref != "" && s.deps.Registrations != nil {
		reg, err := s.deps.Registrations.GetByID(r.Context(), ref)
		switch {
		case err == nil:
			data.Name = reg.FirstName
			data.Slot = reg.Slot()
		case !errors.Is(err, registration.ErrNotFound):
			slog.Warn("registration_lookup_failed", "registration_id", ref, "error", err)
		}
	}
	s.renderTemplate(w, r, "done.html", data)
}

// handleDoneQR renders the reference as a QR code for check-in at the gym.
func (s *Server) handleDoneQR(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "id")
	if !referencePattern.MatchString(ref) {
		http.NotFound(w, r)
		return
	}
	png, err := qrcode.Encode(ref, qrcode.Medium, 256)
	if err != nil {
		internalError(w, fmt.Errorf("encode qr: %w", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=86400")
	http.ServeContent(w, r, "reference.png", time.Time{}, bytes.NewReader(png))
}

func (s *Server) renderStep(w http.ResponseWriter, r *http.Request, status int, ctrl *wizard.Controller, values formValues, errs wizard.FieldErrors, notice, alert string) {
	step := ctrl.Step()
	data := stepPage{
		Step:           step,
		Title:          step.Name(),
		Progress:       wizard.Progress(step),
		Form:           values,
		Errors:         errs,
		Notice:         notice,
		Alert:          alert,
	}
	if step.RequiresChange() {
		// a valid saved waiver may be resubmitted as is after a rejection
		st := ctrl.Status(wizard.FormFor(step, ctrl.Answers()))
		data.RequiresChange = !st.CanSubmit && !(step == wizard.LastStep && st.Valid)
	}
	if data.Errors == nil {
		data.Errors = wizard.FieldErrors{}
	}

	switch step {
	case wizard.StepMemberDetails:
		data.Genders = tryout.ValidGenders
	case wizard.StepTryoutSelection:
		s.fillSelection(&data)
	case wizard.StepWaiver:
		data.WaiverHTML = renderMarkdown(s.deps.WaiverText)
	}
	s.renderStatus(w, r, status, fmt.Sprintf("step%d.html", step), data)
}

// fillSelection decides which step 2 fields are visible for the values shown.
func (s *Server) fillSelection(data *stepPage) {
	v := data.Form
	data.Types = tryout.ValidTypes
	data.MinDate = s.deps.Now().In(s.deps.Location).Format(tryout.DateLayout)

	switch tryout.Type(v.TryoutType) {
	case tryout.TypeIndividual:
		data.ShowCustom = true
	case tryout.TypeDoubles:
		data.ShowGroups = true
		data.Cohorts = s.deps.Catalog.Cohorts()
		cohort := tryout.Cohort(v.GroupType)
		if cohort.IsAdult() {
			data.ShowActivities = true
			data.Activities = tryout.ValidActivities
		}
		entries := s.deps.Catalog.Filter(tryout.TypeDoubles, cohort, tryout.Activity(v.ActivityType))
		data.ShowSessions = cohort != ""
		for _, e := range entries {
			data.Sessions = append(data.Sessions, sessionCard{
				ID:       e.ID,
				Label:    e.Display(),
				Name:     e.Name,
				Selected: e.ID == v.SessionID,
			})
		}
	}
}

// valuesOf renders a step form as the strings its page pre-fills.
func valuesOf(form wizard.Form, loc *time.Location) formValues {
	var v formValues
	switch f := form.(type) {
	case wizard.MemberDetailsForm:
		v.FirstName, v.LastName, v.Gender = f.FirstName, f.LastName, string(f.Gender)
		v.Email, v.Phone, v.AgreeToTexts = f.Email, f.Phone, f.AgreeToTexts
		if !f.DOB.IsZero() {
			v.DOB = f.DOB.In(loc).Format(tryout.DateLayout)
		}
	case wizard.TryoutSelectionForm:
		v.TryoutType, v.GroupType, v.ActivityType = string(f.Type), string(f.Cohort), string(f.Activity)
		v.SessionID, v.CustomDate, v.CustomTime = f.SessionID, f.Date, f.Time
	case wizard.WaiverForm:
		v.HasReadWaiver, v.SignedWaiver = f.HasReadWaiver, f.SignedWaiver
	}
	return v
}

// parseStepForm reads the posted fields of step. Values that cannot be
// parsed at all are reported as field errors; the raw values are returned
// for re-rendering either way.
func parseStepForm(step wizard.Step, r *http.Request, loc *time.Location) (wizard.Form, formValues, wizard.FieldErrors) {
	errs := wizard.FieldErrors{}
	v := formValues{
		FirstName:     r.PostFormValue("firstName"),
		LastName:      r.PostFormValue("lastName"),
		Gender:        r.PostFormValue("gender"),
		Email:         r.PostFormValue("email"),
		Phone:         tryout.FormatPhone(r.PostFormValue("phone")),
		DOB:           r.PostFormValue("dob"),
		AgreeToTexts:  r.PostFormValue("agreeToTexts") != "",
		TryoutType:    r.PostFormValue("tryoutType"),
		GroupType:     r.PostFormValue("groupType"),
		ActivityType:  r.PostFormValue("activityType"),
		SessionID:     r.PostFormValue("sessionId"),
		CustomDate:    r.PostFormValue("customDate"),
		CustomTime:    r.PostFormValue("customTime"),
		HasReadWaiver: r.PostFormValue("hasReadWaiver") != "",
		SignedWaiver:  r.PostFormValue("signedWaiver"),
	}

	switch step {
	case wizard.StepMemberDetails:
		f := wizard.MemberDetailsForm{
			FirstName:    v.FirstName,
			LastName:     v.LastName,
			Email:        v.Email,
			Phone:        v.Phone,
			AgreeToTexts: v.AgreeToTexts,
		}
		g, err := tryout.ParseGender(v.Gender)
		if err != nil {
			errs[wizard.FieldGender] = wizard.MsgGenderRequired
		}
		f.Gender = g
		if v.DOB != "" {
			dob, err := time.ParseInLocation(tryout.DateLayout, v.DOB, loc)
			if err != nil {
				errs[wizard.FieldDOB] = wizard.MsgDOBRequired
			}
			f.DOB = dob
		}
		return f, v, errs

	case wizard.StepTryoutSelection:
		f := wizard.TryoutSelectionForm{SessionID: v.SessionID, Date: v.CustomDate, Time: v.CustomTime}
		var err error
		if f.Type, err = tryout.ParseType(v.TryoutType); err != nil {
			errs[wizard.FieldTryoutType] = wizard.MsgTryoutType
		}
		if f.Cohort, err = tryout.ParseCohort(v.GroupType); err != nil {
			errs[wizard.FieldGroupType] = wizard.MsgGroup
		}
		if f.Activity, err = tryout.ParseActivity(v.ActivityType); err != nil {
			errs[wizard.FieldActivityType] = wizard.MsgActivity
		}
		return f, v, errs

	default:
		return wizard.WaiverForm{HasReadWaiver: v.HasReadWaiver, SignedWaiver: v.SignedWaiver}, v, errs
	}
}
