package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// TimeLayout is the text format of every timestamp column.
const TimeLayout = "2006-01-02T15:04:05.999999999Z07:00"

// migration is one forward-only schema step.
type migration struct {
	version int
	name    string
	stmt    string
}

var migrations = []migration{
	{
		version: 1,
		name:    "baseline",
		stmt: `
	CREATE TABLE IF NOT EXISTS form_draft (
		key TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS registration (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		gender TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL,
		dob TEXT,
		agree_to_texts INTEGER NOT NULL DEFAULT 0,
		tryout_type TEXT NOT NULL,
		group_type TEXT NOT NULL DEFAULT '',
		activity_type TEXT NOT NULL DEFAULT '',
		session_id TEXT NOT NULL DEFAULT '',
		selected_trial TEXT NOT NULL DEFAULT '',
		custom_date TEXT NOT NULL DEFAULT '',
		custom_time TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS waiver (
		id TEXT PRIMARY KEY,
		registration_id TEXT NOT NULL,
		has_read INTEGER NOT NULL,
		signature TEXT NOT NULL,
		signature_digest TEXT NOT NULL,
		ip_address TEXT,
		signed_at TEXT NOT NULL,
		FOREIGN KEY (registration_id) REFERENCES registration(id)
	);

	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		action_type TEXT NOT NULL,
		registration_id TEXT NOT NULL DEFAULT '',
		payload TEXT NOT NULL,
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		last_attempted_at TEXT,
		created_at TEXT NOT NULL,
		error_message TEXT NOT NULL DEFAULT ''
	);
	`,
	},
	{
		version: 2,
		name:    "lookup indexes",
		stmt: `
	CREATE INDEX IF NOT EXISTS idx_waiver_registration ON waiver(registration_id);
	CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status, created_at);
	CREATE INDEX IF NOT EXISTS idx_registration_session ON registration(session_id);
	`,
	},
}

// LatestSchemaVersion is the version MigrateDB brings a database to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion reads the applied version; 0 means nothing was applied.
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check schema_version table: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(v.Int64), nil
}

// InitDB sets connection pragmas.
// PRE: db is a valid database connection
// POST: WAL mode and foreign keys enabled
func InitDB(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return nil
}

// MigrateDB applies every migration newer than the stored version, each in
// its own transaction.
// PRE: db is a valid database connection; path is only used for logging
// POST: SchemaVersion(db) == LatestSchemaVersion()
func MigrateDB(db *sql.DB, path string) error {
	if err := InitDB(db); err != nil {
		return err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}
	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := apply(db, m); err != nil {
			return err
		}
		slog.Info("migration_applied", "db", path, "version", m.version, "name", m.name)
	}
	return nil
}

func apply(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migration %d: begin: %w", m.version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.stmt); err != nil {
		return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version, name, applied_at) VALUES (?, ?, ?)`,
		m.version, m.name, time.Now().UTC().Format(TimeLayout)); err != nil {
		return fmt.Errorf("migration %d: record version: %w", m.version, err)
	}
	return tx.Commit()
}

// ParseTime reads a timestamp column. Empty text yields the zero time.
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

// FormatTime writes a timestamp column. The zero time is stored as "".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}
