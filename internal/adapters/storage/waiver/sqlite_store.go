package waiver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ringside/internal/adapters/storage"
	domain "ringside/internal/domain/waiver"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new waiver store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, w domain.Waiver) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO waiver (id, registration_id, has_read, signature, signature_digest, ip_address, signed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   registration_id=excluded.registration_id, has_read=excluded.has_read,
		   signature=excluded.signature, signature_digest=excluded.signature_digest,
		   ip_address=excluded.ip_address, signed_at=excluded.signed_at`,
		w.ID, w.RegistrationID, w.HasRead, w.Signature, w.SignatureDigest, w.IPAddress,
		storage.FormatTime(w.SignedAt))
	if err != nil {
		return fmt.Errorf("save waiver: %w", err)
	}
	return nil
}

// GetByRegistrationID implements Store.
func (s *SQLiteStore) GetByRegistrationID(ctx context.Context, registrationID string) (domain.Waiver, error) {
	var w domain.Waiver
	var ip sql.NullString
	var signedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, registration_id, has_read, signature, signature_digest, ip_address, signed_at
		 FROM waiver WHERE registration_id = ? ORDER BY signed_at DESC LIMIT 1`, registrationID).Scan(
		&w.ID, &w.RegistrationID, &w.HasRead, &w.Signature, &w.SignatureDigest, &ip, &signedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Waiver{}, ErrNotFound
	}
	if err != nil {
		return domain.Waiver{}, fmt.Errorf("get waiver: %w", err)
	}
	w.IPAddress = ip.String
	if w.SignedAt, err = storage.ParseTime(signedAt); err != nil {
		return domain.Waiver{}, err
	}
	return w, nil
}
