package item

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pahana-billing/internal/domain"
	"pahana-billing/internal/logging"
	"pahana-billing/internal/repository"
)

const columns = `id, item_name, description, brand, category_id, price_cents, stock, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("item_repo")}
}

func (r *postgresRepo) List(ctx context.Context, query string) ([]domain.Item, error) {
	const q = `
SELECT ` + columns + `
FROM items
WHERE $1 = '' OR item_name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%' OR id::text = $1
ORDER BY item_name ASC, id ASC
`
	rows, err := r.pool.Query(ctx, q, query)
	if err != nil {
		r.logger.Error("list", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	result, err := pgx.CollectRows(rows, scanRow)
	if err != nil {
		r.logger.Error("list rows", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("list", zap.String("query", query), zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM items WHERE id = $1`, id))
	if err != nil {
		err = repository.Translate(err)
		if err != domain.ErrNotFound {
			r.logger.Error("get", zap.Int64("id", id), zap.Error(err))
		}
		return nil, err
	}
	return it, nil
}

func (r *postgresRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.Item, error) {
	out := make(map[int64]domain.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM items WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, scanRow)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

func (r *postgresRepo) Create(ctx context.Context, it domain.Item) (*domain.Item, error) {
	const q = `
INSERT INTO items (item_name, description, brand, category_id, price_cents, stock)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + columns
	res, err := scanItem(r.pool.QueryRow(ctx, q, it.Name, it.Description, it.Brand, it.CategoryID, it.Price, it.Stock))
	if err != nil {
		r.logger.Warn("create", zap.String("item_name", it.Name), zap.Error(err))
		return nil, repository.Translate(err)
	}
	return res, nil
}

func (r *postgresRepo) Update(ctx context.Context, it domain.Item) (*domain.Item, error) {
	const q = `
UPDATE items
SET item_name = $2, description = $3, brand = $4, category_id = $5, price_cents = $6, stock = $7
WHERE id = $1
RETURNING ` + columns
	res, err := scanItem(r.pool.QueryRow(ctx, q, it.ID, it.Name, it.Description, it.Brand, it.CategoryID, it.Price, it.Stock))
	if err != nil {
		return nil, repository.Translate(err)
	}
	return res, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		r.logger.Warn("delete", zap.Int64("id", id), zap.Error(err))
		return repository.Translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Upsert(ctx context.Context, it domain.Item) (*domain.Item, error) {
	const q = `
INSERT INTO items (item_name, description, brand, category_id, price_cents, stock)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (item_name, brand) DO UPDATE SET
    description = EXCLUDED.description,
    category_id = COALESCE(EXCLUDED.category_id, items.category_id),
    price_cents = EXCLUDED.price_cents,
    stock = EXCLUDED.stock
RETURNING ` + columns
	res, err := scanItem(r.pool.QueryRow(ctx, q, it.Name, it.Description, it.Brand, it.CategoryID, it.Price, it.Stock))
	if err != nil {
		r.logger.Error("upsert", zap.String("item_name", it.Name), zap.String("brand", it.Brand), zap.Error(err))
		return nil, repository.Translate(err)
	}
	r.logger.Debug("upserted", zap.Int64("id", res.ID), zap.String("item_name", res.Name))
	return res, nil
}

func scanRow(row pgx.CollectableRow) (domain.Item, error) {
	it, err := scanItem(row)
	if err != nil {
		return domain.Item{}, err
	}
	return *it, nil
}

func scanItem(row pgx.Row) (*domain.Item, error) {
	var it domain.Item
	if err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Brand, &it.CategoryID, &it.Price, &it.Stock, &it.CreatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}
