package registration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ringside/internal/adapters/storage"
	domain "ringside/internal/domain/registration"
)

const columns = `id, first_name, last_name, gender, email, phone, dob, agree_to_texts, tryout_type,
	group_type, activity_type, session_id, selected_trial, custom_date, custom_time, created_at`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new registration store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, r domain.Registration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO registration (`+columns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   first_name=excluded.first_name, last_name=excluded.last_name, gender=excluded.gender,
		   email=excluded.email, phone=excluded.phone, dob=excluded.dob,
		   agree_to_texts=excluded.agree_to_texts, tryout_type=excluded.tryout_type,
		   group_type=excluded.group_type, activity_type=excluded.activity_type,
		   session_id=excluded.session_id, selected_trial=excluded.selected_trial,
		   custom_date=excluded.custom_date, custom_time=excluded.custom_time`,
		r.ID, r.FirstName, r.LastName, r.Gender, r.Email, r.Phone, storage.FormatTime(r.DOB),
		r.AgreeToTexts, r.TryoutType, r.GroupType, r.ActivityType, r.SessionID, r.SelectedTrial,
		r.CustomDate, r.CustomTime, storage.FormatTime(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("save registration: %w", err)
	}
	return nil
}

// GetByID implements Store.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Registration, error) {
	var r domain.Registration
	var dob, createdAt string
	err := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM registration WHERE id = ?`, id).Scan(
		&r.ID, &r.FirstName, &r.LastName, &r.Gender, &r.Email, &r.Phone, &dob, &r.AgreeToTexts,
		&r.TryoutType, &r.GroupType, &r.ActivityType, &r.SessionID, &r.SelectedTrial,
		&r.CustomDate, &r.CustomTime, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Registration{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Registration{}, fmt.Errorf("get registration: %w", err)
	}
	if r.DOB, err = storage.ParseTime(dob); err != nil {
		return domain.Registration{}, err
	}
	if r.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Registration{}, err
	}
	return r, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM registration WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	return nil
}
