package outbox

import (
	"context"
	"errors"

	domain "ringside/internal/domain/outbox"
)

// ErrNotFound is returned when no entry matches.
var ErrNotFound = errors.New("outbox entry not found")

// Store defines the interface for outbox entry persistence.
type Store interface {
	// GetByID retrieves an outbox entry by its ID.
	// POST: Returns ErrNotFound when absent
	GetByID(ctx context.Context, id string) (domain.Entry, error)

	// Save persists an outbox entry.
	// PRE: entity has been validated
	// POST: Entity is persisted (insert or update)
	Save(ctx context.Context, e domain.Entry) error

	// ListPending returns entries still owed a retry, oldest first.
	// PRE: limit > 0
	ListPending(ctx context.Context, limit int) ([]domain.Entry, error)

	// ListFailed returns entries that ran out of attempts, most recent first.
	// PRE: limit > 0
	ListFailed(ctx context.Context, limit int) ([]domain.Entry, error)
}
