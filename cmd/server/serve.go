package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"ringside/internal/adapters/apiclient"
	"ringside/internal/adapters/email"
	web "ringside/internal/adapters/http"
	"ringside/internal/adapters/http/perf"
	"ringside/internal/adapters/sms"
	"ringside/internal/adapters/storage"
	"ringside/internal/adapters/storage/draft"
	outboxStore "ringside/internal/adapters/storage/outbox"
	registrationStore "ringside/internal/adapters/storage/registration"
	waiverStore "ringside/internal/adapters/storage/waiver"
	"ringside/internal/application/orchestrators"
	"ringside/internal/config"
	"ringside/internal/domain/schedule"
	"ringside/internal/domain/waiver"
	otelplatform "ringside/internal/platform/otel"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(cfg *config.Config) *cobra.Command {
	var addr, dbPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				cfg.Addr = addr
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, *cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides RINGSIDE_ADDR)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides RINGSIDE_DB_PATH)")
	return cmd
}

// openDB opens the database with WAL mode, foreign keys and a busy timeout,
// then brings the schema up to date.
func openDB(path string) (*sql.DB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	if err := storage.MigrateDB(db, path); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func loadCatalog(path string) (*schedule.Catalog, error) {
	if path == "" {
		return schedule.Default(), nil
	}
	return schedule.LoadFile(path)
}

func serve(ctx context.Context, cfg config.Config) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	csrfKey, err := cfg.CSRFKeyBytes()
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(cfg.ScheduleFile)
	if err != nil {
		return err
	}
	waiverText, err := waiver.Document(cfg.WaiverFile)
	if err != nil {
		return err
	}

	shutdownTracing, err := otelplatform.Setup(ctx, otelplatform.Options{
		ServiceName: "ringside",
		Endpoint:    cfg.OTelEndpoint,
		Enabled:     cfg.OTelEnabled,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("tracing_shutdown_failed", "error", err)
		}
	}()

	db, err := openDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database_ready", "path", cfg.DBPath, "schema", storage.LatestSchemaVersion())

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQuery())

	drafts := draft.NewSQLiteStore(timedDB)
	regs := registrationStore.NewSQLiteStore(timedDB)
	outbox := outboxStore.NewSQLiteStore(timedDB)

	var emailSender email.Sender = email.NewNoopSender()
	if cfg.ResendKey != "" {
		emailSender = email.NewResendSender(cfg.ResendKey, cfg.EmailFrom)
		slog.Info("email_sender_configured", "provider", "resend")
	} else if cfg.IsProduction() {
		slog.Warn("email_delivery_disabled", "hint", "set RINGSIDE_RESEND_KEY")
	}
	var smsSender sms.Sender = sms.NoopSender{}
	if cfg.SMSEnabled() {
		smsSender = sms.NewTwilioSender(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom)
		slog.Info("sms_sender_configured", "provider", "twilio")
	}

	now := time.Now
	registerDeps := orchestrators.RegisterTryoutDeps{
		Registrations: regs,
		Waivers:       waiverStore.NewSQLiteStore(timedDB),
		Catalog:       catalog,
		Location:      loc,
		Now:           now,
		GenerateID:    uuid.NewString,
	}
	smsDeps := orchestrators.SendTryoutSMSDeps{Sender: smsSender, Outbox: outbox, Now: now, GenerateID: uuid.NewString}
	emailDeps := orchestrators.SendTryoutEmailDeps{Sender: emailSender, Outbox: outbox, To: cfg.NotifyEmail, Now: now, GenerateID: uuid.NewString}

	var backend orchestrators.TryoutBackend = &orchestrators.LocalBackend{
		RegisterDeps: registerDeps,
		SMSDeps:      smsDeps,
		EmailDeps:    emailDeps,
	}
	if cfg.APIBaseURL != "" {
		backend = apiclient.New(cfg.APIBaseURL, cfg.SubmitTimeout)
		slog.Info("remote_backend_configured", "base_url", cfg.APIBaseURL)
	}

	stopWorker := orchestrators.StartBackgroundWorker(ctx, orchestrators.BackgroundDeps{
		Retry:  orchestrators.OutboxRetryDeps{OutboxStore: outbox, SMS: smsSender, Email: emailSender, Now: now},
		Drafts: drafts,
	}, orchestrators.BackgroundConfig{Interval: cfg.WorkerInterval, DraftTTL: cfg.DraftTTL, Enabled: true})
	defer stopWorker()

	handler, err := web.NewMux(web.Deps{
		Drafts:        drafts,
		Registrations: regs,
		Catalog:       catalog,
		Location:      loc,
		Submitter: orchestrators.TryoutSubmitter{Deps: orchestrators.SubmitTryoutDeps{
			Backend: backend,
			Timeout: cfg.SubmitTimeout,
		}},
		Register:   registerDeps,
		SMS:        smsDeps,
		Email:      emailDeps,
		WaiverText: waiverText,
		Collector:  collector,
		Health:     db.PingContext,
		Now:        now,
	}, web.Options{
		CSRFKey:     csrfKey,
		Secure:      cfg.IsProduction(),
		RateLimit:   cfg.RateLimit,
		SlowRequest: cfg.SlowRequest(),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
