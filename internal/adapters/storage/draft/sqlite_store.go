package draft

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ringside/internal/adapters/storage"
)

// SQLiteStore implements Store using the form_draft table.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a new draft store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM form_draft WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return []byte(data), nil
}

// Put implements Store.
// POST: Exactly one row exists for key
func (s *SQLiteStore) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO form_draft (key, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data=excluded.data, updated_at=excluded.updated_at`,
		key, string(data), storage.FormatTime(s.now()))
	if err != nil {
		return fmt.Errorf("put draft: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM form_draft WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

// PurgeBefore deletes drafts not touched since cutoff and returns how many went.
func (s *SQLiteStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM form_draft WHERE updated_at < ?`, storage.FormatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("purge drafts: %w", err)
	}
	return res.RowsAffected()
}
