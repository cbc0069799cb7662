package sale

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pahana-billing/internal/domain"
	"pahana-billing/internal/logging"
	"pahana-billing/internal/repository"
)

var sortColumns = map[string]string{
	"":         "s.created_at",
	"date":     "s.created_at",
	"id":       "s.id",
	"total":    "s.grand_total_cents",
	"customer": "c.name",
}

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("sale_repo")}
}

func (r *postgresRepo) Create(ctx context.Context, bill domain.Bill, createdBy *int64) (*domain.Bill, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	out := bill
	out.SalesItems = make([]domain.BillLine, len(bill.SalesItems))
	copy(out.SalesItems, bill.SalesItems)

	const insertSale = `
INSERT INTO sales (customer_id, grand_total_cents, created_by)
VALUES ($1, $2, $3)
RETURNING id, created_at
`
	if err := tx.QueryRow(ctx, insertSale, bill.Customer.ID, bill.GrandTotal, createdBy).Scan(&out.ID, &out.CreatedAt); err != nil {
		r.logger.Error("insert sale", zap.Int64("customer_id", bill.Customer.ID), zap.Error(err))
		return nil, repository.Translate(err)
	}

	const insertLine = `
INSERT INTO sale_lines (sale_id, item_id, item_name, unit, sell_price_cents, sub_total_cents)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id
`
	for i, l := range out.SalesItems {
		if err := tx.QueryRow(ctx, insertLine, out.ID, l.Item.ID, l.Item.Name, l.Unit, l.SellPrice, l.SubTotal).Scan(&out.SalesItems[i].ID); err != nil {
			r.logger.Error("insert sale line", zap.Int64("sale_id", out.ID), zap.Int64("item_id", l.Item.ID), zap.Error(err))
			return nil, repository.Translate(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Info("sale created",
		zap.Int64("id", out.ID),
		zap.Int64("customer_id", out.Customer.ID),
		zap.Int("lines", len(out.SalesItems)),
		zap.Int64("grand_total", out.GrandTotal),
	)
	return &out, nil
}

const billSelect = `
SELECT s.id, s.created_at, s.grand_total_cents,
       c.id, c.account_number, c.name, c.phone_number, c.address, c.created_at
FROM sales s
JOIN customers c ON c.id = s.customer_id
`

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Bill, error) {
	b, err := scanBill(r.pool.QueryRow(ctx, billSelect+`WHERE s.id = $1`, id))
	if err != nil {
		return nil, repository.Translate(err)
	}
	lines, err := r.lines(ctx, []int64{b.ID})
	if err != nil {
		return nil, err
	}
	b.SalesItems = lines[b.ID]
	return b, nil
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Bill, error) {
	col, ok := sortColumns[strings.ToLower(f.Sort)]
	if !ok {
		return nil, domain.Invalid("sort", fmt.Sprintf("unknown sort field %q", f.Sort))
	}
	dir := "ASC"
	if f.Descending {
		dir = "DESC"
	}

	var (
		where string
		args  []any
	)
	if q := strings.TrimSpace(f.Query); q != "" {
		if id, err := strconv.ParseInt(q, 10, 64); err == nil {
			where = `WHERE s.id = $1 OR c.name ILIKE '%' || $2 || '%'`
			args = append(args, id, q)
		} else {
			where = `WHERE c.name ILIKE '%' || $1 || '%'`
			args = append(args, q)
		}
	}

	rows, err := r.pool.Query(ctx, billSelect+where+` ORDER BY `+col+` `+dir+`, s.id `+dir, args...)
	if err != nil {
		r.logger.Error("list", zap.Error(err))
		return nil, err
	}
	bills, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Bill, error) {
		b, err := scanBill(row)
		if err != nil {
			return domain.Bill{}, err
		}
		return *b, nil
	})
	if err != nil {
		return nil, err
	}
	if !f.IncludeItems || len(bills) == 0 {
		return bills, nil
	}

	ids := make([]int64, len(bills))
	for i, b := range bills {
		ids[i] = b.ID
	}
	lines, err := r.lines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range bills {
		bills[i].SalesItems = lines[bills[i].ID]
	}
	return bills, nil
}

func (r *postgresRepo) lines(ctx context.Context, saleIDs []int64) (map[int64][]domain.BillLine, error) {
	const q = `
SELECT l.sale_id, l.id, l.unit, l.sell_price_cents, l.sub_total_cents,
       i.id, l.item_name, i.description, i.brand, i.category_id, i.price_cents, i.stock, i.created_at
FROM sale_lines l
JOIN items i ON i.id = l.item_id
WHERE l.sale_id = ANY($1)
ORDER BY l.sale_id, l.id
`
	rows, err := r.pool.Query(ctx, q, saleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]domain.BillLine, len(saleIDs))
	for rows.Next() {
		var (
			saleID int64
			l      domain.BillLine
		)
		if err := rows.Scan(&saleID, &l.ID, &l.Unit, &l.SellPrice, &l.SubTotal,
			&l.Item.ID, &l.Item.Name, &l.Item.Description, &l.Item.Brand, &l.Item.CategoryID,
			&l.Item.Price, &l.Item.Stock, &l.Item.CreatedAt); err != nil {
			return nil, err
		}
		out[saleID] = append(out[saleID], l)
	}
	return out, rows.Err()
}

func scanBill(row pgx.Row) (*domain.Bill, error) {
	var b domain.Bill
	c := &b.Customer
	if err := row.Scan(&b.ID, &b.CreatedAt, &b.GrandTotal,
		&c.ID, &c.AccountNumber, &c.Name, &c.PhoneNumber, &c.Address, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
