package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ringside/internal/adapters/storage"
	domain "ringside/internal/domain/outbox"
)

const columns = `id, action_type, registration_id, payload, status, attempts, max_attempts,
	last_attempted_at, created_at, error_message`

// SQLiteStore implements the outbox Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new outbox store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID implements Store.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM outbox WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, ErrNotFound
	}
	return e, err
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, e domain.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outbox (`+columns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status=excluded.status, attempts=excluded.attempts, max_attempts=excluded.max_attempts,
		   last_attempted_at=excluded.last_attempted_at, error_message=excluded.error_message`,
		e.ID, e.ActionType, e.RegistrationID, e.Payload, e.Status, e.Attempts, e.MaxAttempts,
		storage.FormatTime(e.LastAttemptedAt), storage.FormatTime(e.CreatedAt), e.ErrorMessage)
	if err != nil {
		return fmt.Errorf("save outbox entry: %w", err)
	}
	return nil
}

// ListPending implements Store.
func (s *SQLiteStore) ListPending(ctx context.Context, limit int) ([]domain.Entry, error) {
	return s.list(ctx,
		`SELECT `+columns+` FROM outbox WHERE status IN (?, ?) AND attempts < max_attempts
		 ORDER BY created_at ASC LIMIT ?`,
		domain.StatusPending, domain.StatusRetrying, limit)
}

// ListFailed implements Store.
func (s *SQLiteStore) ListFailed(ctx context.Context, limit int) ([]domain.Entry, error) {
	return s.list(ctx,
		`SELECT `+columns+` FROM outbox WHERE status = ? ORDER BY last_attempted_at DESC LIMIT ?`,
		domain.StatusFailed, limit)
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list outbox: %w", err)
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (domain.Entry, error) {
	var e domain.Entry
	var lastAttemptedAt sql.NullString
	var createdAt string
	err := row.Scan(&e.ID, &e.ActionType, &e.RegistrationID, &e.Payload, &e.Status, &e.Attempts,
		&e.MaxAttempts, &lastAttemptedAt, &createdAt, &e.ErrorMessage)
	if err != nil {
		return domain.Entry{}, err
	}
	if e.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Entry{}, err
	}
	if e.LastAttemptedAt, err = storage.ParseTime(lastAttemptedAt.String); err != nil {
		return domain.Entry{}, err
	}
	return e, nil
}
