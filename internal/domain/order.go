package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is one checkout attempt, owned by the order storage once created.
// TransactionID is the opaque capture handle from the payment provider.
type Order struct {
	ID            string      `json:"id"`
	UserID        string      `json:"userId"`
	TransactionID string      `json:"transactionId,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	Lines         []OrderLine `json:"lines,omitempty"`
}

// OrderLine records one purchased line item at its add-time unit price.
type OrderLine struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"orderId"`
	ProductID string          `json:"productId"`
	SizeID    string          `json:"sizeId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// CheckoutState tracks a checkout attempt through its lifecycle.
type CheckoutState string

const (
	CheckoutIdle       CheckoutState = "idle"
	CheckoutSubmitting CheckoutState = "submitting"
	CheckoutCommitted  CheckoutState = "committed"
	CheckoutFailed     CheckoutState = "failed"
)

// IsTerminal reports whether the checkout attempt has finished.
func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutCommitted || s == CheckoutFailed
}

func (s CheckoutState) String() string {
	return string(s)
}
