package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"vereau-cart/internal/bus"
	"vereau-cart/internal/domain"
	"vereau-cart/internal/repository/cartsnapshot"
)

type recordingBus struct {
	events []bus.Event
}

func (r *recordingBus) Publish(e bus.Event) {
	r.events = append(r.events, e)
}

func (r *recordingBus) cartChanged() []bus.CartChanged {
	var out []bus.CartChanged
	for _, e := range r.events {
		if ev, ok := e.(bus.CartChanged); ok {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recordingBus) stockLimits() []bus.StockLimitReached {
	var out []bus.StockLimitReached
	for _, e := range r.events {
		if ev, ok := e.(bus.StockLimitReached); ok {
			out = append(out, ev)
		}
	}
	return out
}

type stubProductRepo struct {
	product *domain.Product
	err     error
	lastID  string
}

func (s *stubProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	s.lastID = id
	return s.product, s.err
}

func price(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newTestStore() (*Store, *recordingBus) {
	b := &recordingBus{}
	return NewStore(cartsnapshot.NewMemory(), nil, b), b
}

func addInput(qty, stock int) AddInput {
	return AddInput{
		ProductID:      "p1",
		Name:           "Oxford Shirt",
		Size:           domain.Size{ID: "s-m", Label: "M"},
		Quantity:       qty,
		UnitPrice:      price("89.90"),
		AvailableStock: stock,
	}
}

func TestAddInsertsLine(t *testing.T) {
	store, b := newTestStore()
	ctx := context.Background()

	cart, err := store.Add(ctx, "u1", addInput(2, 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].Quantity != 2 {
		t.Fatalf("unexpected cart lines: %+v", cart.Lines)
	}
	changed := b.cartChanged()
	if len(changed) != 1 {
		t.Fatalf("expected one CartChanged, got %d", len(changed))
	}
	if changed[0].Message != `"Oxford Shirt" added to cart` {
		t.Fatalf("unexpected message: %q", changed[0].Message)
	}
}

func TestAddMergesDuplicatePair(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	if _, err := store.Add(ctx, "u1", addInput(2, 9)); err != nil {
		t.Fatalf("first add: %v", err)
	}
	cart, err := store.Add(ctx, "u1", addInput(3, 9))
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("expected merged line, got %d lines", len(cart.Lines))
	}
	if cart.Lines[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", cart.Lines[0].Quantity)
	}
}

func TestAddDistinctSizeAppends(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	if _, err := store.Add(ctx, "u1", addInput(1, 5)); err != nil {
		t.Fatalf("first add: %v", err)
	}
	other := addInput(1, 5)
	other.Size = domain.Size{ID: "s-l", Label: "L"}
	cart, err := store.Add(ctx, "u1", other)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(cart.Lines) != 2 {
		t.Fatalf("expected two lines, got %d", len(cart.Lines))
	}
}

func TestAddCapsAtStockAndSignals(t *testing.T) {
	store, b := newTestStore()
	ctx := context.Background()

	if _, err := store.Add(ctx, "u1", addInput(2, 3)); err != nil {
		t.Fatalf("first add: %v", err)
	}
	cart, err := store.Add(ctx, "u1", addInput(5, 3))
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if cart.Lines[0].Quantity != 3 {
		t.Fatalf("expected quantity capped at 3, got %d", cart.Lines[0].Quantity)
	}
	limits := b.stockLimits()
	if len(limits) != 1 {
		t.Fatalf("expected one StockLimitReached, got %d", len(limits))
	}
	if limits[0].ProductName != "Oxford Shirt" || limits[0].SizeLabel != "M" {
		t.Fatalf("unexpected stock limit event: %+v", limits[0])
	}
}

func TestAddAtCeilingIsNoOpWithSignal(t *testing.T) {
	store, b := newTestStore()
	ctx := context.Background()

	if _, err := store.Add(ctx, "u1", addInput(3, 3)); err != nil {
		t.Fatalf("first add: %v", err)
	}
	before := len(b.cartChanged())
	cart, err := store.Add(ctx, "u1", addInput(1, 3))
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if cart.Lines[0].Quantity != 3 {
		t.Fatalf("quantity changed past ceiling: %d", cart.Lines[0].Quantity)
	}
	if len(b.cartChanged()) != before {
		t.Fatalf("no CartChanged expected when nothing was added")
	}
	if len(b.stockLimits()) != 1 {
		t.Fatalf("expected stock limit signal")
	}
}

func TestQuantityInvariantHolds(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	if _, err := store.Add(ctx, "u1", addInput(2, 4)); err != nil {
		t.Fatalf("add: %v", err)
	}
	_, _ = store.Add(ctx, "u1", addInput(9, 4))
	_, _ = store.UpdateQuantity(ctx, "u1", 0, 99)
	_, _ = store.UpdateQuantity(ctx, "u1", 0, 0)
	_, _ = store.UpdateQuantity(ctx, "u1", 0, 3)

	cart, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	for _, l := range cart.Lines {
		if l.Quantity < 1 || l.Quantity > l.AvailableStock {
			t.Fatalf("invariant violated: quantity %d, stock %d", l.Quantity, l.AvailableStock)
		}
	}
	if cart.Lines[0].Quantity != 3 {
		t.Fatalf("expected final quantity 3, got %d", cart.Lines[0].Quantity)
	}
}

func TestUpdateQuantityRejectsOutOfRange(t *testing.T) {
	store, b := newTestStore()
	ctx := context.Background()

	if _, err := store.Add(ctx, "u1", addInput(2, 3)); err != nil {
		t.Fatalf("add: %v", err)
	}
	eventsBefore := len(b.events)

	if _, err := store.UpdateQuantity(ctx, "u1", 0, 4); !errors.Is(err, domain.ErrQuantityOutOfRange) {
		t.Fatalf("expected ErrQuantityOutOfRange, got %v", err)
	}
	if _, err := store.UpdateQuantity(ctx, "u1", 0, 0); !errors.Is(err, domain.ErrQuantityOutOfRange) {
		t.Fatalf("expected ErrQuantityOutOfRange, got %v", err)
	}

	cart, _ := store.Get(ctx, "u1")
	if cart.Lines[0].Quantity != 2 {
		t.Fatalf("rejected update must be a no-op, quantity = %d", cart.Lines[0].Quantity)
	}
	if len(b.events) != eventsBefore {
		t.Fatalf("no event may fire on rejection")
	}
}

func TestUpdateQuantityPersists(t *testing.T) {
	snapshots := cartsnapshot.NewMemory()
	store := NewStore(snapshots, nil, &recordingBus{})
	ctx := context.Background()

	if _, err := store.Add(ctx, "u1", addInput(1, 5)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := store.UpdateQuantity(ctx, "u1", 0, 4); err != nil {
		t.Fatalf("update: %v", err)
	}

	persisted, err := snapshots.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("snapshot get: %v", err)
	}
	if persisted.Lines[0].Quantity != 4 {
		t.Fatalf("snapshot not updated, quantity = %d", persisted.Lines[0].Quantity)
	}
}

func TestRemoveKeepsOrder(t *testing.T) {
	store, b := newTestStore()
	ctx := context.Background()

	for _, p := range []string{"p1", "p2", "p3"} {
		in := addInput(1, 5)
		in.ProductID = p
		in.Name = p
		if _, err := store.Add(ctx, "u1", in); err != nil {
			t.Fatalf("add %s: %v", p, err)
		}
	}

	cart, err := store.Remove(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(cart.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(cart.Lines))
	}
	if cart.Lines[0].ProductID != "p1" || cart.Lines[1].ProductID != "p3" {
		t.Fatalf("relative order broken: %s, %s", cart.Lines[0].ProductID, cart.Lines[1].ProductID)
	}
	changed := b.cartChanged()
	if changed[len(changed)-1].Message != `"p2" removed from cart` {
		t.Fatalf("unexpected message: %q", changed[len(changed)-1].Message)
	}
}

func TestRemoveInvalidIndex(t *testing.T) {
	store, _ := newTestStore()
	_, err := store.Remove(context.Background(), "u1", 0)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProjections(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	a := addInput(2, 5) // 2 * 89.90
	b := addInput(1, 5) // 1 * 10.25
	b.ProductID = "p2"
	b.UnitPrice = price("10.25")
	if _, err := store.Add(ctx, "u1", a); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := store.Add(ctx, "u1", b); err != nil {
		t.Fatalf("add: %v", err)
	}

	count, err := store.Count(ctx, "u1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected count 3, got %d", count)
	}
	subtotal, err := store.Subtotal(ctx, "u1")
	if err != nil {
		t.Fatalf("subtotal: %v", err)
	}
	if !subtotal.Equal(price("190.05")) {
		t.Fatalf("expected subtotal 190.05, got %s", subtotal)
	}
}

func TestAddProductSnapshotsPriceAndStock(t *testing.T) {
	sale := price("59.90")
	repo := &stubProductRepo{product: &domain.Product{
		ID:        "p1",
		Name:      "Chino Pants",
		ImageRef:  "images/chino.jpg",
		Price:     price("79.90"),
		SalePrice: &sale,
		Sizes: []domain.SizeStock{
			{SizeID: "s-32", Label: "32", Stock: 4},
		},
	}}
	store := NewStore(cartsnapshot.NewMemory(), repo, &recordingBus{})

	cart, err := store.AddProduct(context.Background(), "u1", "p1", "s-32", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	line := cart.Lines[0]
	if !line.UnitPrice.Equal(sale) {
		t.Fatalf("expected sale price captured, got %s", line.UnitPrice)
	}
	if line.AvailableStock != 4 {
		t.Fatalf("expected stock snapshot 4, got %d", line.AvailableStock)
	}
	if repo.lastID != "p1" {
		t.Fatalf("product repo not queried as expected")
	}
}

func TestAddProductUnknownSize(t *testing.T) {
	repo := &stubProductRepo{product: &domain.Product{ID: "p1", Name: "Chino", Price: price("79.90")}}
	store := NewStore(cartsnapshot.NewMemory(), repo, &recordingBus{})

	_, err := store.AddProduct(context.Background(), "u1", "p1", "s-nope", 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
