package web

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ringside/internal/adapters/http/perf"
	"ringside/internal/domain/program"
	"ringside/internal/domain/schedule"
)

type landingPage struct {
	Programs   []program.Program
	Categories []string
	Active     string
	Alert      string
	Groups     []schedule.Group
}

// handleLanding renders the programs grid and the weekly schedule.
func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		category = program.CategoryAll
	}
	data := landingPage{
		Categories: program.Categories,
		Active:     category,
		Groups:     s.deps.Catalog.Groups(),
	}
	programs, err := program.Filter(category)
	if errors.Is(err, program.ErrUnknownCategory) {
		data.Active = program.CategoryAll
		data.Alert = "Unknown category; showing all programs."
		programs = program.All()
	}
	data.Programs = programs
	s.renderTemplate(w, r, "landing.html", data)
}

// handleProgram renders one program's detail.
func (s *Server) handleProgram(w http.ResponseWriter, r *http.Request) {
	p, err := program.Get(chi.URLParam(r, "id"))
	if errors.Is(err, program.ErrProgramNotFound) {
		s.renderStatus(w, r, http.StatusNotFound, "error.html", errorPage{Title: "Program not found", Message: "We do not offer that program."})
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	s.renderTemplate(w, r, "program.html", p)
}

type waiverPage struct {
	Body template.HTML
}

// handleWaiver renders the waiver document on its own page.
func (s *Server) handleWaiver(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, r, "waiver.html", waiverPage{Body: renderMarkdown(s.deps.WaiverText)})
}

type healthBody struct {
	Status        string          `json:"status"`
	Error         string          `json:"error,omitempty"`
	TotalRequests int             `json:"total_requests"`
	TotalQueries  int             `json:"total_queries"`
	RequestP95Ms  float64         `json:"request_p95_ms"`
	SlowestPaths  []perf.PathStat `json:"slowest_paths,omitempty"`
}

// handleHealth reports readiness plus a timing summary of the last five minutes.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := healthBody{Status: "ok"}
	status := http.StatusOK
	if s.deps.Health != nil {
		if err := s.deps.Health(r.Context()); err != nil {
			slog.Warn("health_check_failed", "error", err)
			body.Status = "unavailable"
			body.Error = "database unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	if s.deps.Collector != nil {
		snap := s.deps.Collector.Snapshot(s.deps.Now().Add(-5*time.Minute), 5)
		body.TotalRequests = snap.TotalRequests
		body.TotalQueries = snap.TotalQueries
		body.RequestP95Ms = snap.RequestP95Ms
		body.SlowestPaths = snap.SlowestPaths
	}
	writeJSON(w, status, body)
}
