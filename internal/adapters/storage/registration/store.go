package registration

import (
	"context"

	domain "ringside/internal/domain/registration"
)

// Store defines the interface for registration persistence.
type Store interface {
	// Save persists a registration.
	// PRE: entity has been validated
	// POST: Entity is persisted (insert or update)
	Save(ctx context.Context, r domain.Registration) error

	// GetByID retrieves a registration.
	// POST: Returns domain.ErrNotFound when absent
	GetByID(ctx context.Context, id string) (domain.Registration, error)

	// Delete removes a registration.
	Delete(ctx context.Context, id string) error
}
