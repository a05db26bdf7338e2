package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type productSeed struct {
	Key       string
	Name      string
	ImageRef  string
	Price     string
	SalePrice string
	Stock     map[string]int
}

// Apply inserts basic catalog data for manual testing. Idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	products := []productSeed{
		{
			Key:      "oxford-shirt",
			Name:     "Oxford Shirt",
			ImageRef: "images/oxford-shirt.jpg",
			Price:    "89.90",
			Stock:    map[string]int{"S": 4, "M": 8, "L": 6},
		},
		{
			Key:       "chino-pants",
			Name:      "Chino Pants",
			ImageRef:  "images/chino-pants.jpg",
			Price:     "119.90",
			SalePrice: "99.90",
			Stock:     map[string]int{"30": 3, "32": 5, "34": 2},
		},
		{
			Key:      "denim-jacket",
			Name:     "Denim Jacket",
			ImageRef: "images/denim-jacket.jpg",
			Price:    "199.90",
			Stock:    map[string]int{"M": 2, "L": 1},
		},
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Key, err)
		}
	}
	return nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) error {
	const productQ = `
INSERT INTO products (key, name, image_ref, price, sale_price)
VALUES ($1, $2, $3, $4::numeric, NULLIF($5, '')::numeric)
ON CONFLICT (key) DO UPDATE
SET name = EXCLUDED.name,
    image_ref = EXCLUDED.image_ref,
    price = EXCLUDED.price,
    sale_price = EXCLUDED.sale_price
RETURNING id::text
`
	var productID string
	if err := pool.QueryRow(ctx, productQ, p.Key, p.Name, p.ImageRef, p.Price, p.SalePrice).Scan(&productID); err != nil {
		return err
	}

	for label, stock := range p.Stock {
		sizeID, err := ensureSize(ctx, pool, label)
		if err != nil {
			return fmt.Errorf("ensure size %s: %w", label, err)
		}
		const stockQ = `
INSERT INTO product_size_stock (product_id, size_id, stock)
VALUES ($1, $2, $3)
ON CONFLICT (product_id, size_id) DO UPDATE SET stock = EXCLUDED.stock
`
		if _, err := pool.Exec(ctx, stockQ, productID, sizeID, stock); err != nil {
			return err
		}
	}
	return nil
}

func ensureSize(ctx context.Context, pool *pgxpool.Pool, label string) (string, error) {
	const q = `
INSERT INTO sizes (label)
VALUES ($1)
ON CONFLICT (label) DO UPDATE SET label = EXCLUDED.label
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q, label).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}
