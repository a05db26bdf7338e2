// Package cart implements the per-user shopping cart: line items keyed by
// (product, size), the quantity-vs-stock invariant, synchronous persistence
// to the snapshot slot, and change notifications over the bus.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"vereau-cart/internal/bus"
	"vereau-cart/internal/domain"
)

type snapshotRepo interface {
	Get(ctx context.Context, ownerID string) (*domain.Cart, error)
	Set(ctx context.Context, ownerID string, cart *domain.Cart) error
	Delete(ctx context.Context, ownerID string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type publisher interface {
	Publish(e bus.Event)
}

// Store owns every cart mutation. Each mutation persists the snapshot before
// any event fires, so subscribers always observe durable state. The invariant
// 1 <= quantity <= availableStock holds for every line after every operation.
type Store struct {
	mu        sync.Mutex
	snapshots snapshotRepo
	products  productRepo
	bus       publisher
}

func NewStore(snapshots snapshotRepo, products productRepo, b publisher) *Store {
	return &Store{snapshots: snapshots, products: products, bus: b}
}

// AddInput carries everything a new line needs. UnitPrice and AvailableStock
// are add-time snapshots supplied by the caller.
type AddInput struct {
	ProductID      string
	Name           string
	ImageRef       string
	Size           domain.Size
	Quantity       int
	UnitPrice      decimal.Decimal
	AvailableStock int
}

// Add inserts a line or, when a line with the same (productId, size) exists,
// increases its quantity. The quantity is capped at the line's stock ceiling;
// the capped excess is signaled with a StockLimitReached event instead of
// failing the whole call. Persists synchronously, then emits CartChanged.
func (s *Store) Add(ctx context.Context, ownerID string, in AddInput) (*domain.Cart, error) {
	if in.ProductID == "" {
		return nil, errors.New("productId required")
	}
	if in.Size.ID == "" {
		return nil, errors.New("size required")
	}
	if in.Quantity < 1 {
		return nil, domain.ErrQuantityOutOfRange
	}
	if in.UnitPrice.IsNegative() {
		return nil, errors.New("unitPrice must not be negative")
	}
	if in.AvailableStock < 0 {
		return nil, errors.New("availableStock must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	capped := false
	if idx := cart.FindLine(in.ProductID, in.Size.ID); idx >= 0 {
		line := &cart.Lines[idx]
		want := line.Quantity + in.Quantity
		if want > line.AvailableStock {
			want = line.AvailableStock
			capped = true
		}
		if want == line.Quantity {
			// Nothing added; the ceiling still gets signaled below.
			s.publishStockLimit(ownerID, line.Name, line.Size.Label)
			return cart, nil
		}
		line.Quantity = want
	} else {
		qty := in.Quantity
		if qty > in.AvailableStock {
			qty = in.AvailableStock
			capped = true
		}
		if qty == 0 {
			s.publishStockLimit(ownerID, in.Name, in.Size.Label)
			return cart, nil
		}
		cart.Lines = append(cart.Lines, domain.LineItem{
			ProductID:      in.ProductID,
			Name:           in.Name,
			ImageRef:       in.ImageRef,
			Size:           in.Size,
			Quantity:       qty,
			UnitPrice:      in.UnitPrice,
			AvailableStock: in.AvailableStock,
		})
	}

	if err := s.snapshots.Set(ctx, ownerID, cart); err != nil {
		return nil, fmt.Errorf("persist cart: %w", err)
	}

	if capped {
		s.publishStockLimit(ownerID, in.Name, in.Size.Label)
	}
	s.bus.Publish(bus.CartChanged{
		OwnerID: ownerID,
		Cart:    cart.Clone(),
		Message: fmt.Sprintf("%q added to cart", in.Name),
	})
	return cart, nil
}

// AddProduct resolves the catalog entry for (productID, sizeID) and adds it,
// snapshotting the effective price and the size's remaining stock.
func (s *Store) AddProduct(ctx context.Context, ownerID, productID, sizeID string, quantity int) (*domain.Cart, error) {
	if s.products == nil {
		return nil, errors.New("product repository unavailable")
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	size := product.SizeByID(sizeID)
	if size == nil {
		return nil, domain.ErrNotFound
	}
	return s.Add(ctx, ownerID, AddInput{
		ProductID:      product.ID,
		Name:           product.Name,
		ImageRef:       product.ImageRef,
		Size:           domain.Size{ID: size.SizeID, Label: size.Label},
		Quantity:       quantity,
		UnitPrice:      product.EffectivePrice(),
		AvailableStock: size.Stock,
	})
}

// UpdateQuantity sets the quantity of the line at index. Out-of-range values
// leave the cart untouched and return ErrQuantityOutOfRange; no event fires
// on rejection and none on success either, matching the quantity stepper's
// quiet in-place edits.
func (s *Store) UpdateQuantity(ctx context.Context, ownerID string, index, quantity int) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(cart.Lines) {
		return nil, domain.ErrNotFound
	}
	line := &cart.Lines[index]
	if quantity < 1 || quantity > line.AvailableStock {
		return nil, domain.ErrQuantityOutOfRange
	}

	line.Quantity = quantity
	if err := s.snapshots.Set(ctx, ownerID, cart); err != nil {
		return nil, fmt.Errorf("persist cart: %w", err)
	}
	return cart, nil
}

// Remove deletes the line at index, keeping the relative order of the rest.
// Confirmation flows live in the UI; calling Remove is final.
func (s *Store) Remove(ctx context.Context, ownerID string, index int) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(cart.Lines) {
		return nil, domain.ErrNotFound
	}
	removed := cart.Lines[index]
	cart.Lines = append(cart.Lines[:index], cart.Lines[index+1:]...)

	if err := s.snapshots.Set(ctx, ownerID, cart); err != nil {
		return nil, fmt.Errorf("persist cart: %w", err)
	}

	s.bus.Publish(bus.CartChanged{
		OwnerID: ownerID,
		Cart:    cart.Clone(),
		Message: fmt.Sprintf("%q removed from cart", removed.Name),
	})
	return cart, nil
}

// Clear empties the owner's slot. Only the checkout orchestrator calls this,
// after a successful commit; it announces the change itself.
func (s *Store) Clear(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots.Delete(ctx, ownerID)
}

// Get returns the owner's cart; an owner with no snapshot has an empty cart.
func (s *Store) Get(ctx context.Context, ownerID string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, ownerID)
}

// Count is the total quantity across the owner's lines.
func (s *Store) Count(ctx context.Context, ownerID string) (int, error) {
	cart, err := s.Get(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	return cart.Count(), nil
}

// Subtotal is the raw sum of unitPrice*quantity, before normalization.
// Normalization is applied once, at display time, on the aggregate.
func (s *Store) Subtotal(ctx context.Context, ownerID string) (decimal.Decimal, error) {
	cart, err := s.Get(ctx, ownerID)
	if err != nil {
		return decimal.Zero, err
	}
	return cart.Subtotal(), nil
}

func (s *Store) load(ctx context.Context, ownerID string) (*domain.Cart, error) {
	cart, err := s.snapshots.Get(ctx, ownerID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.Cart{OwnerID: ownerID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	cart.OwnerID = ownerID
	return cart, nil
}

func (s *Store) publishStockLimit(ownerID, productName, sizeLabel string) {
	s.bus.Publish(bus.StockLimitReached{
		OwnerID:     ownerID,
		ProductName: productName,
		SizeLabel:   sizeLabel,
	})
}
