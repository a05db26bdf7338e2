package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry with per-size stock. SalePrice, when set, is the
// price the cart captures at add time.
type Product struct {
	ID        string           `json:"id"`
	Key       string           `json:"key,omitempty"`
	Name      string           `json:"name"`
	ImageRef  string           `json:"imageRef,omitempty"`
	Price     decimal.Decimal  `json:"price"`
	SalePrice *decimal.Decimal `json:"salePrice,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	Sizes     []SizeStock      `json:"sizes,omitempty"`
}

// SizeStock is the remaining stock for one size of a product.
type SizeStock struct {
	SizeID string `json:"sizeId"`
	Label  string `json:"label"`
	Stock  int    `json:"stock"`
}

// EffectivePrice returns the sale price when one is set, else the list price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice != nil && p.SalePrice.LessThan(p.Price) {
		return *p.SalePrice
	}
	return p.Price
}

// SizeByID returns the stock entry for sizeID, or nil.
func (p Product) SizeByID(sizeID string) *SizeStock {
	for i := range p.Sizes {
		if p.Sizes[i].SizeID == sizeID {
			return &p.Sizes[i]
		}
	}
	return nil
}
