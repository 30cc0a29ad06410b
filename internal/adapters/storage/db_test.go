package storage

import (
	"database/sql"
	"sort"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// openTestDB creates an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// getTableNames returns sorted table names from sqlite_master, excluding internal tables.
func getTableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan table name: %v", err)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var expectedTables = []string{
	"form_draft",
	"outbox",
	"registration",
	"schema_version",
	"waiver",
}

// TestMigrateDB_Fresh verifies all migrations apply cleanly to an empty database.
func TestMigrateDB_Fresh(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("MigrateDB failed on fresh db: %v", err)
	}

	version, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != LatestSchemaVersion() {
		t.Errorf("version = %d, want %d", version, LatestSchemaVersion())
	}

	tables := getTableNames(t, db)
	if len(tables) != len(expectedTables) {
		t.Fatalf("got tables %v, want %v", tables, expectedTables)
	}
	for i, want := range expectedTables {
		if tables[i] != want {
			t.Errorf("table[%d] = %q, want %q", i, tables[i], want)
		}
	}
}

// TestMigrateDB_Idempotent verifies a second run is a no-op.
func TestMigrateDB_Idempotent(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("first MigrateDB failed: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO form_draft (key, data, updated_at) VALUES ('k', '{}', '2026-01-01T00:00:00Z')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("second MigrateDB failed: %v", err)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != len(migrations) {
		t.Errorf("schema_version rows = %d, want %d", n, len(migrations))
	}
	var data string
	if err := db.QueryRow(`SELECT data FROM form_draft WHERE key = 'k'`).Scan(&data); err != nil {
		t.Fatalf("draft lost after second migration: %v", err)
	}
}

// TestMigrateDB_VersionProgression verifies SchemaVersion before and after.
func TestMigrateDB_VersionProgression(t *testing.T) {
	db := openTestDB(t)

	v, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if v != 0 {
		t.Errorf("initial version = %d, want 0", v)
	}

	if err := MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("MigrateDB failed: %v", err)
	}
	v, _ = SchemaVersion(db)
	if v != LatestSchemaVersion() {
		t.Errorf("post-migration version = %d, want %d", v, LatestSchemaVersion())
	}
}

func TestTimeRoundTrip(t *testing.T) {
	want := time.Date(2026, 3, 10, 18, 30, 0, 123, time.UTC)
	got, err := ParseTime(FormatTime(want))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(want) {
		t.Errorf("round trip = %v, want %v", got, want)
	}
	if FormatTime(time.Time{}) != "" {
		t.Error("zero time should format as empty")
	}
	if z, err := ParseTime(""); err != nil || !z.IsZero() {
		t.Errorf("ParseTime(\"\") = %v, %v", z, err)
	}
	if _, err := ParseTime("yesterday"); err == nil {
		t.Error("ParseTime(garbage) returned no error")
	}
}
