package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"vereau-cart/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalog CSV exports and inserts/updates products. Each
// product spans one row per size; rows with the same key are grouped.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
}

func NewCSVImporter(r io.Reader, repo ProductWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
	}
}

type csvRow struct {
	Key       string
	Name      string
	ImageRef  string
	Price     decimal.Decimal
	SalePrice *decimal.Decimal
	SizeID    string
	SizeLabel string
	Stock     int
}

// Run parses CSV rows and upserts products grouped by product key.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	var (
		current  *domain.Product
		imported int
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		row, err := parseRow(record, index)
		if err != nil {
			return imported, err
		}
		if row == nil {
			continue
		}

		if row.Key != "" && (current == nil || row.Key != current.Key) {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = &domain.Product{
				Key:       row.Key,
				Name:      row.Name,
				ImageRef:  row.ImageRef,
				Price:     row.Price,
				SalePrice: row.SalePrice,
			}
		}

		// Size rows (including the first row of a product) carry stock.
		if current != nil && row.SizeID != "" {
			current.Sizes = append(current.Sizes, domain.SizeStock{
				SizeID: row.SizeID,
				Label:  row.SizeLabel,
				Stock:  row.Stock,
			})
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, p *domain.Product) error {
	if p.Key == "" || p.Name == "" || !p.Price.IsPositive() {
		return fmt.Errorf("invalid product row (missing required fields) for key %q", p.Key)
	}
	if len(p.Sizes) == 0 {
		return fmt.Errorf("product %q has no size rows", p.Key)
	}

	_, err := i.productRepo.Upsert(ctx, *p)
	if err != nil {
		return fmt.Errorf("upsert product %q: %w", p.Key, err)
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[h] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (*csvRow, error) {
	key := pick(record, index, "key")
	sizeID := pick(record, index, "size.id")

	if key == "" && sizeID == "" {
		return nil, nil
	}

	row := &csvRow{
		Key:       key,
		Name:      pick(record, index, "name"),
		ImageRef:  pick(record, index, "image"),
		SizeID:    sizeID,
		SizeLabel: pick(record, index, "size.label"),
	}
	if row.SizeLabel == "" {
		row.SizeLabel = strings.ToUpper(sizeID)
	}

	if s := pick(record, index, "price"); s != "" {
		price, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("parse price for key %q: %w", key, err)
		}
		row.Price = price
	}
	if s := pick(record, index, "salePrice"); s != "" {
		sale, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("parse sale price for key %q: %w", key, err)
		}
		row.SalePrice = &sale
	}
	if s := pick(record, index, "stock"); s != "" {
		stock, err := strconv.Atoi(s)
		if err != nil || stock < 0 {
			return nil, fmt.Errorf("parse stock for key %q: %q", key, s)
		}
		row.Stock = stock
	}

	return row, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
