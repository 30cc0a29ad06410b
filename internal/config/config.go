package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every environment variable name.
const Prefix = "RINGSIDE_"

// EnvProduction is the ENV value that turns on production checks.
const EnvProduction = "production"

// Configuration errors.
var (
	ErrCSRFKeyRequired = errors.New("RINGSIDE_CSRF_KEY is required in production")
	ErrCSRFKeyInvalid  = errors.New("RINGSIDE_CSRF_KEY must be 64 hex characters")
	ErrNotifyEmail     = errors.New("RINGSIDE_NOTIFY_EMAIL is required when RINGSIDE_RESEND_KEY is set")
	ErrTwilioPartial   = errors.New("RINGSIDE_TWILIO_SID, RINGSIDE_TWILIO_TOKEN and RINGSIDE_TWILIO_FROM must be set together")
)

// Config is the process configuration, read once at startup.
type Config struct {
	Env    string `env:"ENV" envDefault:"development"`
	Addr   string `env:"ADDR" envDefault:":8080"`
	DBPath string `env:"DB_PATH" envDefault:"ringside.db"`

	CSRFKey string `env:"CSRF_KEY"` // 32 bytes, hex encoded

	ResendKey   string   `env:"RESEND_KEY"`
	EmailFrom   string   `env:"EMAIL_FROM" envDefault:"Ringside Boxing <noreply@ringside.example>"`
	NotifyEmail []string `env:"NOTIFY_EMAIL" envSeparator:","`

	TwilioSID   string `env:"TWILIO_SID"`
	TwilioToken string `env:"TWILIO_TOKEN"`
	TwilioFrom  string `env:"TWILIO_FROM"`

	// APIBaseURL points the wizard at a remote registration backend.
	// Empty means this process serves and calls its own API in-process.
	APIBaseURL    string        `env:"API_BASE_URL"`
	SubmitTimeout time.Duration `env:"SUBMIT_TIMEOUT" envDefault:"10s"`

	ScheduleFile string `env:"SCHEDULE_FILE"`
	WaiverFile   string `env:"WAIVER_FILE"`
	Timezone     string `env:"TIMEZONE" envDefault:"Local"`

	RateLimit      int           `env:"RATE_LIMIT" envDefault:"30"` // form posts per minute per client
	SlowRequestMS  int           `env:"SLOW_REQUEST_MS" envDefault:"200"`
	SlowQueryMS    int           `env:"SLOW_QUERY_MS" envDefault:"50"`
	WorkerInterval time.Duration `env:"WORKER_INTERVAL" envDefault:"1m"`
	DraftTTL       time.Duration `env:"DRAFT_TTL" envDefault:"720h"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"false"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that parse but cannot work together.
func (c Config) Validate() error {
	if c.CSRFKey == "" && c.IsProduction() {
		return ErrCSRFKeyRequired
	}
	if c.CSRFKey != "" {
		if _, err := c.CSRFKeyBytes(); err != nil {
			return err
		}
	}
	if c.ResendKey != "" && len(c.NotifyEmail) == 0 {
		return ErrNotifyEmail
	}
	set := 0
	for _, v := range []string{c.TwilioSID, c.TwilioToken, c.TwilioFrom} {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		return ErrTwilioPartial
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// IsProduction reports whether ENV is production.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// CSRFKeyBytes decodes the CSRF key. An empty key yields nil.
func (c Config) CSRFKeyBytes() ([]byte, error) {
	if c.CSRFKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.CSRFKey)
	if err != nil || len(key) != 32 {
		return nil, ErrCSRFKeyInvalid
	}
	return key, nil
}

// Location resolves TIMEZONE, the zone in which "today" is decided.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// SMSEnabled reports whether Twilio credentials are configured.
func (c Config) SMSEnabled() bool {
	return c.TwilioSID != ""
}

// SlowRequest is SLOW_REQUEST_MS as a duration.
func (c Config) SlowRequest() time.Duration {
	return time.Duration(c.SlowRequestMS) * time.Millisecond
}

// SlowQuery is SLOW_QUERY_MS as a duration.
func (c Config) SlowQuery() time.Duration {
	return time.Duration(c.SlowQueryMS) * time.Millisecond
}
