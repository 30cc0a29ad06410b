package waiver

import (
	"context"
	"errors"

	domain "ringside/internal/domain/waiver"
)

// ErrNotFound is returned when no waiver matches.
var ErrNotFound = errors.New("waiver not found")

// Store defines the interface for waiver persistence.
type Store interface {
	// Save persists a signed waiver.
	// PRE: entity has been validated
	// POST: Entity is persisted (insert or update)
	Save(ctx context.Context, w domain.Waiver) error

	// GetByRegistrationID returns the waiver signed with a registration.
	GetByRegistrationID(ctx context.Context, registrationID string) (domain.Waiver, error)
}
