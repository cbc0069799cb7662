// Package importer loads catalog items from CSV exports.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"pahana-billing/internal/domain"
	"pahana-billing/internal/logging"
)

type ItemWriter interface {
	Upsert(ctx context.Context, it domain.Item) (*domain.Item, error)
}

type CategoryEnsurer interface {
	Ensure(ctx context.Context, name string) (*domain.Category, error)
}

// CSVImporter reads item rows and inserts or updates them by name and brand.
// Required columns: itemName, price. Optional: description, brand, category, stock.
type CSVImporter struct {
	reader     *csv.Reader
	items      ItemWriter
	categories CategoryEnsurer
	logger     *zap.Logger

	categoryIDs map[string]int64
}

func NewCSVImporter(r io.Reader, items ItemWriter, categories CategoryEnsurer, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:      csvr,
		items:       items,
		categories:  categories,
		logger:      logging.OrNop(logger).Named("importer"),
		categoryIDs: map[string]int64{},
	}
}

// Run imports every row and returns how many items were written. It stops at
// the first invalid row.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["itemname"]; !ok {
		return 0, errors.New("missing itemName column")
	}
	if _, ok := index["price"]; !ok {
		return 0, errors.New("missing price column")
	}

	imported := 0
	for line := 2; ; line++ {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}
		if blank(record) {
			continue
		}

		it, category, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
		if category != "" {
			id, err := i.categoryID(ctx, category)
			if err != nil {
				return imported, fmt.Errorf("row %d: category %q: %w", line, category, err)
			}
			it.CategoryID = &id
		}
		if _, err := i.items.Upsert(ctx, it); err != nil {
			return imported, fmt.Errorf("row %d: upsert item %q: %w", line, it.Name, err)
		}
		imported++
	}

	i.logger.Info("import finished", zap.Int("items", imported), zap.Int("categories", len(i.categoryIDs)))
	return imported, nil
}

func (i *CSVImporter) categoryID(ctx context.Context, name string) (int64, error) {
	key := strings.ToLower(name)
	if id, ok := i.categoryIDs[key]; ok {
		return id, nil
	}
	c, err := i.categories.Ensure(ctx, name)
	if err != nil {
		return 0, err
	}
	i.categoryIDs[key] = c.ID
	return c.ID, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (domain.Item, string, error) {
	it := domain.Item{
		Name:        pick(record, index, "itemname"),
		Description: pick(record, index, "description"),
		Brand:       pick(record, index, "brand"),
	}
	if it.Name == "" {
		return it, "", domain.Invalid("itemName", "itemName is required")
	}

	price, err := ParsePrice(pick(record, index, "price"))
	if err != nil {
		return it, "", err
	}
	it.Price = price

	if s := pick(record, index, "stock"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return it, "", domain.Invalid("stock", fmt.Sprintf("invalid stock %q", s))
		}
		it.Stock = n
	}
	return it, pick(record, index, "category"), nil
}

// ParsePrice converts a decimal amount such as "1250.50" into minor units.
func ParsePrice(s string) (int64, error) {
	invalid := domain.Invalid("price", fmt.Sprintf("invalid price %q", s))
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, domain.Invalid("price", "price is required")
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || (hasFrac && (frac == "" || len(frac) > 2)) {
		return 0, invalid
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units < 0 {
		return 0, invalid
	}
	var cents int64
	if hasFrac {
		if len(frac) == 1 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil || cents < 0 {
			return 0, invalid
		}
	}
	return units*100 + cents, nil
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
