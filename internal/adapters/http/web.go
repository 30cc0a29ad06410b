package web

import (
	"context"
	"crypto/rand"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"ringside/internal/adapters/http/middleware"
	"ringside/internal/adapters/http/perf"
	"ringside/internal/adapters/storage/draft"
	registrationStore "ringside/internal/adapters/storage/registration"
	"ringside/internal/application/orchestrators"
	"ringside/internal/domain/schedule"
	"ringside/internal/domain/wizard"
	otelplatform "ringside/internal/platform/otel"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Deps holds everything the handlers touch.
type Deps struct {
	Drafts        draft.Store
	Registrations registrationStore.Store // optional; enriches the confirmation page
	Catalog       *schedule.Catalog
	Location      *time.Location
	Guard         *wizard.Guard
	Submitter     wizard.Submitter

	Register orchestrators.RegisterTryoutDeps
	SMS      orchestrators.SendTryoutSMSDeps
	Email    orchestrators.SendTryoutEmailDeps

	WaiverText string // Markdown
	Collector  *perf.Collector
	Health     func(ctx context.Context) error // optional readiness probe
	Now        func() time.Time
}

// Options configures the middleware stack.
type Options struct {
	CSRFKey        []byte // 32 bytes; random per process when empty
	Secure         bool   // HTTPS only cookies
	TrustedOrigins []string
	RateLimit      int // form posts per minute per client
	SlowRequest    time.Duration
}

// Server renders the site and serves the API.
type Server struct {
	deps  Deps
	pages map[string]*template.Template
}

// NewServer parses the templates and fills in defaults.
func NewServer(deps Deps) (*Server, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Catalog == nil {
		deps.Catalog = schedule.Default()
	}
	if deps.Guard == nil {
		deps.Guard = wizard.NewGuard()
	}
	pages, err := parsePages(templateFS)
	if err != nil {
		return nil, err
	}
	return &Server{deps: deps, pages: pages}, nil
}

// NewMux wires HTTP handlers and middleware for the site.
func NewMux(deps Deps, opts Options) (http.Handler, error) {
	s, err := NewServer(deps)
	if err != nil {
		return nil, err
	}
	return s.Routes(opts)
}

// Routes builds the router.
func (s *Server) Routes(opts Options) (http.Handler, error) {
	key := opts.CSRFKey
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate csrf key: %w", err)
		}
		slog.Warn("csrf_key_random", "hint", "set RINGSIDE_CSRF_KEY so forms survive restarts")
	}
	rate := opts.RateLimit
	if rate <= 0 {
		rate = 30
	}
	limiter := middleware.NewRateLimiter(rate, time.Minute)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		otelplatform.Middleware("ringside/http"),
		middleware.Timing(s.deps.Collector, opts.SlowRequest),
		middleware.SecurityHeaders,
		middleware.RateLimit(limiter),
	)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(static)))
	r.Get("/healthz", s.handleHealth)

	r.Route("/api", s.mountAPI)
	r.Group(func(r chi.Router) {
		r.Use(
			middleware.Visitor(opts.Secure),
			middleware.CSRF(middleware.CSRFOptions{Key: key, Secure: opts.Secure, TrustedOrigins: opts.TrustedOrigins}),
		)
		s.mountPages(r)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderStatus(w, r, http.StatusNotFound, "error.html", errorPage{Title: "Page not found", Message: "That page does not exist."})
	})

	return r, nil
}

func (s *Server) mountAPI(r chi.Router) {
	r.Get("/sessions", s.handleAPISessions)
	r.HandleFunc("/register", s.handleAPIRegister)
	r.HandleFunc("/sendSms", s.handleAPISendSMS)
	r.HandleFunc("/sendEmail", s.handleAPISendEmail)
}

// mountPages registers the server-rendered pages. They expect a visitor ID
// and CSRF protection from the enclosing group.
func (s *Server) mountPages(r chi.Router) {
	r.Get("/", s.handleLanding)
	r.Get("/programs/{id}", s.handleProgram)
	r.Get("/waiver", s.handleWaiver)

	r.Route("/tryout", func(r chi.Router) {
		r.Get("/", s.handleTryout)
		r.Get("/step/{n}", s.handleStepPage)
		r.Post("/step/{n}", s.handleStepSubmit)
		r.Post("/step/2/refresh", s.handleSelectionRefresh)
		r.Post("/submit", s.handleSubmit)
		r.Post("/signature/clear", s.handleSignatureClear)
		r.Get("/done", s.handleDone)
		r.Get("/done/{id}", s.handleDone)
		r.Get("/done/{id}/qr.png", s.handleDoneQR)
	})
}
