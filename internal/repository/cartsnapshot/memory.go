package cartsnapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"vereau-cart/internal/domain"
)

type memoryRepo struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemory returns an in-memory Repository for tests and local development.
// Snapshots are stored serialized so the round trip matches the Redis slot.
func NewMemory() Repository {
	return &memoryRepo{slots: make(map[string][]byte)}
}

func (m *memoryRepo) Get(_ context.Context, ownerID string) (*domain.Cart, error) {
	m.mu.RLock()
	data, ok := m.slots[ownerID]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}
	return &cart, nil
}

func (m *memoryRepo) Set(_ context.Context, ownerID string, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}
	m.mu.Lock()
	m.slots[ownerID] = data
	m.mu.Unlock()
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, ownerID string) error {
	m.mu.Lock()
	delete(m.slots, ownerID)
	m.mu.Unlock()
	return nil
}
