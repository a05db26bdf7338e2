package order

import (
	"context"

	"vereau-cart/internal/domain"
)

// Repository persists orders and their lines. The storage offers atomic
// single-statement writes; callers must not assume cross-call transactions.
type Repository interface {
	CreateOrder(ctx context.Context, userID, transactionID string) (*domain.Order, error)
	InsertLines(ctx context.Context, orderID string, lines []domain.OrderLine) error
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
}
