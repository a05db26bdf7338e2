// Package checkout sequences the commit of a paid cart against the order
// storage: order record, order-lines, per-line stock decrements. It runs off
// a snapshot taken at submit time; cart edits made while a submission is in
// flight do not reach the order.
package checkout

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"vereau-cart/internal/bus"
	"vereau-cart/internal/domain"
)

type orderRepo interface {
	CreateOrder(ctx context.Context, userID, transactionID string) (*domain.Order, error)
	InsertLines(ctx context.Context, orderID string, lines []domain.OrderLine) error
}

type stockRepo interface {
	DecrementStock(ctx context.Context, productID, sizeID string, quantity int) error
}

type cartStore interface {
	Get(ctx context.Context, ownerID string) (*domain.Cart, error)
	Clear(ctx context.Context, ownerID string) error
}

type publisher interface {
	Publish(e bus.Event)
}

// Orchestrator drives one checkout attempt per user at a time. Once a
// submission starts there is no cancellation: the sequence runs to Committed
// or Failed. Remote steps get a bounded wait; a timeout fails the attempt the
// same way a rejected call does.
type Orchestrator struct {
	orders      orderRepo
	stock       stockRepo
	cart        cartStore
	bus         publisher
	logger      *log.Logger
	stepTimeout time.Duration

	mu       sync.Mutex
	inflight map[string]bool
}

func New(orders orderRepo, stock stockRepo, cart cartStore, b publisher, logger *log.Logger, stepTimeout time.Duration) *Orchestrator {
	if stepTimeout <= 0 {
		stepTimeout = 10 * time.Second
	}
	return &Orchestrator{
		orders:      orders,
		stock:       stock,
		cart:        cart,
		bus:         b,
		logger:      logger,
		stepTimeout: stepTimeout,
		inflight:    make(map[string]bool),
	}
}

// Result reports the terminal state of one submission. Snapshot is the cart
// as it was before the clear, kept for the confirmation view.
type Result struct {
	State    domain.CheckoutState
	Order    *domain.Order
	Snapshot []domain.LineItem
}

// Submit commits the user's cart after the payment provider approved the
// transaction. transactionID is the provider's opaque capture handle; the
// provider's cancel/error callbacks never reach this method.
//
// Failure at any remote step halts the sequence and leaves already-created
// records in place: an order without lines or stock decrements is possible
// and is reported, not compensated.
func (o *Orchestrator) Submit(ctx context.Context, userID, transactionID string) (*Result, error) {
	o.mu.Lock()
	if o.inflight[userID] {
		o.mu.Unlock()
		return nil, domain.ErrCheckoutInFlight
	}
	o.inflight[userID] = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		delete(o.inflight, userID)
		o.mu.Unlock()
	}()

	cart, err := o.cart.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(cart.Lines) == 0 {
		return nil, domain.ErrEmptyCart
	}
	snapshot := cart.Clone()

	result := &Result{State: domain.CheckoutSubmitting, Snapshot: snapshot.Lines}

	order, err := o.createOrder(ctx, userID, transactionID)
	if err != nil {
		result.State = domain.CheckoutFailed
		return result, fmt.Errorf("create order: %w", err)
	}
	result.Order = order

	lines := buildOrderLines(order.ID, snapshot.Lines)
	if len(lines) == 0 {
		// The order record already exists at this point and is not rolled
		// back; the storage offers no cross-table transaction to this client.
		o.logger.Printf("checkout %s: order %s has no valid line items, aborting before line insert", userID, order.ID)
		result.State = domain.CheckoutFailed
		return result, domain.ErrNoValidLines
	}

	if err := o.insertLines(ctx, order.ID, lines); err != nil {
		result.State = domain.CheckoutFailed
		o.logger.Printf("checkout %s: order %s created but line insert failed: %v", userID, order.ID, err)
		return result, fmt.Errorf("insert order lines: %w", err)
	}
	order.Lines = lines

	// Decrements follow the original cart lines, not just the valid ones;
	// the storage-side guard absorbs decrements no stock row can satisfy.
	for _, line := range snapshot.Lines {
		if err := o.decrementStock(ctx, line); err != nil {
			result.State = domain.CheckoutFailed
			o.logger.Printf("checkout %s: order %s committed lines but stock decrement failed for %s/%s: %v",
				userID, order.ID, line.ProductID, line.Size.ID, err)
			return result, fmt.Errorf("decrement stock: %w", err)
		}
	}

	if err := o.cart.Clear(ctx, userID); err != nil {
		result.State = domain.CheckoutFailed
		return result, fmt.Errorf("clear cart: %w", err)
	}

	result.State = domain.CheckoutCommitted
	o.bus.Publish(bus.CartChanged{
		OwnerID:          userID,
		Cart:             domain.Cart{OwnerID: userID},
		Message:          "Purchase complete. Cart emptied.",
		SuppressAutoOpen: true,
	})
	o.bus.Publish(bus.CheckoutSucceeded{
		OwnerID: userID,
		OrderID: order.ID,
		Lines:   snapshot.Lines,
	})
	return result, nil
}

func (o *Orchestrator) createOrder(ctx context.Context, userID, transactionID string) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, o.stepTimeout)
	defer cancel()
	return o.orders.CreateOrder(ctx, userID, transactionID)
}

func (o *Orchestrator) insertLines(ctx context.Context, orderID string, lines []domain.OrderLine) error {
	ctx, cancel := context.WithTimeout(ctx, o.stepTimeout)
	defer cancel()
	return o.orders.InsertLines(ctx, orderID, lines)
}

func (o *Orchestrator) decrementStock(ctx context.Context, line domain.LineItem) error {
	ctx, cancel := context.WithTimeout(ctx, o.stepTimeout)
	defer cancel()
	return o.stock.DecrementStock(ctx, line.ProductID, line.Size.ID, line.Quantity)
}

// buildOrderLines filters out lines that cannot become order-lines (missing
// product, size, non-positive quantity or price) and assigns line ids.
func buildOrderLines(orderID string, lines []domain.LineItem) []domain.OrderLine {
	out := make([]domain.OrderLine, 0, len(lines))
	for _, l := range lines {
		if !l.Valid() {
			continue
		}
		out = append(out, domain.OrderLine{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			ProductID: l.ProductID,
			SizeID:    l.Size.ID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return out
}
