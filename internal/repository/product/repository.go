package product

import (
	"context"

	"vereau-cart/internal/domain"
)

// Repository reads the catalog and adjusts per-size stock.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// DecrementStock subtracts quantity from the (product, size) stock row
	// when enough stock remains. A decrement no stock row can satisfy is a
	// no-op, never negative stock.
	DecrementStock(ctx context.Context, productID, sizeID string, quantity int) error
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}
