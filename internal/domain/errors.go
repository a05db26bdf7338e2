package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrQuantityOutOfRange indicates a quantity outside [1, availableStock].
	// The offending operation is a no-op; no notification is emitted.
	ErrQuantityOutOfRange = errors.New("quantity out of range")

	// ErrNoValidLines indicates a checkout attempt whose cart contained no
	// line item valid enough to become an order-line.
	ErrNoValidLines = errors.New("no valid line items")

	// ErrCheckoutInFlight indicates a checkout for the same user is already
	// submitting; there is no mid-flight cancellation.
	ErrCheckoutInFlight = errors.New("checkout already in progress")

	// ErrEmptyCart indicates checkout was triggered with nothing to buy.
	ErrEmptyCart = errors.New("cart is empty")
)
