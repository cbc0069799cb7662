// Package seed loads demo data for manual testing of the desk.
package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pahana-billing/internal/logging"
)

type itemSeed struct {
	Name        string
	Description string
	Brand       string
	Category    string
	PriceCents  int64
	Stock       int
}

type customerSeed struct {
	AccountNumber string
	Name          string
	PhoneNumber   string
	Address       string
}

var items = []itemSeed{
	{"Atlas Chooty Pen", "blue ball point pen", "Atlas", "Stationery", 2500, 500},
	{"CR Book 120 Pages", "single ruled exercise book", "Atlas", "Stationery", 18000, 120},
	{"Madol Doova", "Martin Wickramasinghe novel", "Sarasavi", "Books", 65000, 25},
	{"Grade 5 Scholarship Workbook", "past papers with answers", "Gunasena", "Books", 95000, 40},
	{"Geometry Box", "compass, protractor and set squares", "Maped", "Stationery", 120000, 30},
}

var customers = []customerSeed{
	{"PAH-10001", "Nimal Perera", "771234567", "12 Galle Road, Colombo 03"},
	{"PAH-10002", "Kamala Silva", "712345678", "45 Kandy Road, Kiribathgoda"},
}

// Apply inserts demo categories, items, customers and an admin account. It is
// idempotent via ON CONFLICT; the admin password is only set on first insert.
func Apply(ctx context.Context, pool *pgxpool.Pool, adminPassword string, logger *zap.Logger) error {
	logger = logging.OrNop(logger)

	categories := map[string]int64{}
	for _, it := range items {
		if _, ok := categories[it.Category]; ok {
			continue
		}
		id, err := ensureCategory(ctx, pool, it.Category)
		if err != nil {
			return fmt.Errorf("ensure category %s: %w", it.Category, err)
		}
		categories[it.Category] = id
	}

	for _, it := range items {
		if err := upsertItem(ctx, pool, categories[it.Category], it); err != nil {
			return fmt.Errorf("upsert item %s: %w", it.Name, err)
		}
	}

	for _, c := range customers {
		if err := upsertCustomer(ctx, pool, c); err != nil {
			return fmt.Errorf("upsert customer %s: %w", c.AccountNumber, err)
		}
	}

	created, err := ensureAdmin(ctx, pool, adminPassword)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	logger.Info("seed applied",
		zap.Int("categories", len(categories)),
		zap.Int("items", len(items)),
		zap.Int("customers", len(customers)),
		zap.Bool("admin_created", created),
	)
	return nil
}

func ensureCategory(ctx context.Context, pool *pgxpool.Pool, name string) (int64, error) {
	const q = `
INSERT INTO categories (name)
VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id
`
	var id int64
	if err := pool.QueryRow(ctx, q, name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func upsertItem(ctx context.Context, pool *pgxpool.Pool, categoryID int64, it itemSeed) error {
	const q = `
INSERT INTO items (item_name, description, brand, category_id, price_cents, stock)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (item_name, brand) DO UPDATE
SET description = EXCLUDED.description,
    category_id = EXCLUDED.category_id,
    price_cents = EXCLUDED.price_cents,
    stock = EXCLUDED.stock
`
	_, err := pool.Exec(ctx, q, it.Name, it.Description, it.Brand, categoryID, it.PriceCents, it.Stock)
	return err
}

func upsertCustomer(ctx context.Context, pool *pgxpool.Pool, c customerSeed) error {
	const q = `
INSERT INTO customers (account_number, name, phone_number, address)
VALUES ($1, $2, $3, $4)
ON CONFLICT (account_number) DO UPDATE
SET name = EXCLUDED.name,
    phone_number = EXCLUDED.phone_number,
    address = EXCLUDED.address
`
	_, err := pool.Exec(ctx, q, c.AccountNumber, c.Name, c.PhoneNumber, c.Address)
	return err
}

func ensureAdmin(ctx context.Context, pool *pgxpool.Pool, password string) (bool, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	const q = `
INSERT INTO staff (username, full_name, role, password_hash)
VALUES ('admin', 'Administrator', 'admin', $1)
ON CONFLICT (username) DO NOTHING
`
	tag, err := pool.Exec(ctx, q, string(hash))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
