// Package cartsnapshot persists serialized cart snapshots in a key-value
// slot, one slot per owner. The slot is the only durable cart state; events
// are never persisted. Concurrent writers are not coordinated: last writer
// wins, acceptable for a single-user convenience store.
package cartsnapshot

import (
	"context"

	"vereau-cart/internal/domain"
)

// Repository is the persistent key-value slot for cart snapshots.
// Get returns domain.ErrNotFound when no snapshot exists for the owner.
type Repository interface {
	Get(ctx context.Context, ownerID string) (*domain.Cart, error)
	Set(ctx context.Context, ownerID string, cart *domain.Cart) error
	Delete(ctx context.Context, ownerID string) error
}
