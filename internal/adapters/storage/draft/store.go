package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"ringside/internal/domain/tryout"
	"ringside/internal/domain/wizard"
)

// KeyPrefix is the fixed storage name of the in-progress record.
const KeyPrefix = "membershipFormData"

// ErrNotFound is returned by Store.Get when no blob exists for the key.
var ErrNotFound = errors.New("draft not found")

// Store holds one JSON blob per key.
type Store interface {
	// Get returns the blob for key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the blob for key.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes the blob for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Key is the storage key of a visitor's draft.
func Key(visitorID string) string {
	return KeyPrefix + ":" + visitorID
}

// Persistence adapts a Store to wizard.Persistence for one key.
type Persistence struct {
	store Store
	key   string
}

var _ wizard.Persistence = (*Persistence)(nil)

// For binds store to the draft of visitorID.
func For(store Store, visitorID string) *Persistence {
	return &Persistence{store: store, key: Key(visitorID)}
}

// Key returns the bound storage key.
func (p *Persistence) Key() string { return p.key }

// Load returns the saved record. Missing, unreadable or corrupt data all
// yield the default record.
func (p *Persistence) Load(ctx context.Context) tryout.Answers {
	data, err := p.store.Get(ctx, p.key)
	if errors.Is(err, ErrNotFound) {
		return tryout.Default()
	}
	if err != nil {
		slog.WarnContext(ctx, "draft_load_failed", "key", p.key, "error", err)
		return tryout.Default()
	}
	var a tryout.Answers
	if err := json.Unmarshal(data, &a); err != nil {
		slog.WarnContext(ctx, "draft_corrupt", "key", p.key, "error", err)
		return tryout.Default()
	}
	return a
}

// Save writes the whole record under the key.
func (p *Persistence) Save(ctx context.Context, a tryout.Answers) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	return p.store.Put(ctx, p.key, data)
}

// Clear removes the record.
func (p *Persistence) Clear(ctx context.Context) error {
	return p.store.Delete(ctx, p.key)
}
