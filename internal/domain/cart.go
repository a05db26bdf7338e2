package domain

import "github.com/shopspring/decimal"

// Size identifies a product variant (size label) with its own stock tracking.
type Size struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// LineItem is one product+size+quantity entry in a cart. UnitPrice and
// AvailableStock are snapshots taken when the item was added; UnitPrice never
// follows later catalog price changes.
type LineItem struct {
	ProductID      string          `json:"productId"`
	Name           string          `json:"name"`
	ImageRef       string          `json:"imageRef,omitempty"`
	Size           Size            `json:"size"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	AvailableStock int             `json:"availableStock"`
}

// Valid reports whether the line can become an order-line.
func (l LineItem) Valid() bool {
	return l.ProductID != "" &&
		l.Size.ID != "" &&
		l.Quantity > 0 &&
		l.UnitPrice.IsPositive()
}

// Total is the raw line amount, before any display normalization.
func (l LineItem) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an ordered sequence of line items, unique by (productId, size).
type Cart struct {
	OwnerID string     `json:"ownerId"`
	Lines   []LineItem `json:"lineItems"`
}

// FindLine returns the index of the line matching productID and sizeID, or -1.
func (c Cart) FindLine(productID, sizeID string) int {
	for i, l := range c.Lines {
		if l.ProductID == productID && l.Size.ID == sizeID {
			return i
		}
	}
	return -1
}

// Count is the total quantity across all lines.
func (c Cart) Count() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}

// Subtotal sums unitPrice*quantity across all lines, before normalization.
func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Total())
	}
	return total
}

// Clone returns a deep copy that later cart mutations cannot touch.
func (c Cart) Clone() Cart {
	out := Cart{OwnerID: c.OwnerID}
	if len(c.Lines) > 0 {
		out.Lines = make([]LineItem, len(c.Lines))
		copy(out.Lines, c.Lines)
	}
	return out
}
