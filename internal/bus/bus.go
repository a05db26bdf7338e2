// Package bus is the in-process notification bridge between the cart/checkout
// core and any interested surfaces. Events carry typed payloads; there are no
// stringly-typed event names to subscribe to. Delivery is synchronous, in
// subscription order, within the publishing call. Events are not persisted.
package bus

import (
	"sync"

	"vereau-cart/internal/domain"
)

// Event is implemented by every payload published on the bus. Kind is a stable
// tag for logging and external forwarding, not a subscription key.
type Event interface {
	Kind() string
}

// CartChanged fans out after any persisted cart mutation. It carries the full
// updated cart so subscribers never read the persistence slot themselves.
type CartChanged struct {
	OwnerID          string      `json:"ownerId"`
	Cart             domain.Cart `json:"cart"`
	Message          string      `json:"message"`
	SuppressAutoOpen bool        `json:"suppressAutoOpen"`
}

func (CartChanged) Kind() string { return "cart-changed" }

// StockLimitReached signals that a requested quantity increase was blocked by
// the stock ceiling. A boundary condition, not an error.
type StockLimitReached struct {
	OwnerID     string `json:"ownerId"`
	ProductName string `json:"productName"`
	SizeLabel   string `json:"sizeLabel"`
}

func (StockLimitReached) Kind() string { return "stock-limit-reached" }

// CheckoutSucceeded fires exactly once per committed checkout, with a snapshot
// of the cart as it was before being cleared.
type CheckoutSucceeded struct {
	OwnerID string            `json:"ownerId"`
	OrderID string            `json:"orderId"`
	Lines   []domain.LineItem `json:"lines"`
}

func (CheckoutSucceeded) Kind() string { return "checkout-succeeded" }

// Handler receives every published event; handlers filter by type assertion.
type Handler func(Event)

// Bus is a process-wide publish/subscribe channel. Its lifetime is the
// application runtime; construct one at the root and inject it.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs []subscription
}

type subscription struct {
	id      int
	handler Handler
}

func New() *Bus {
	return &Bus{}
}

// Subscribe registers h and returns a function that removes it again.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	id := b.next
	b.subs = append(b.subs, subscription{id: id, handler: h})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers e to every subscriber before returning. Fire-and-forget:
// there is no error path back to the publisher.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(e)
	}
}
