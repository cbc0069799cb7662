package customer

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pahana-billing/internal/domain"
	"pahana-billing/internal/logging"
	"pahana-billing/internal/repository"
)

const columns = `id, account_number, name, phone_number, address, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("customer_repo")}
}

func (r *postgresRepo) List(ctx context.Context, query string) ([]domain.Customer, error) {
	const q = `
SELECT ` + columns + `
FROM customers
WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR account_number ILIKE '%' || $1 || '%'
ORDER BY name ASC, id ASC
`
	rows, err := r.pool.Query(ctx, q, query)
	if err != nil {
		r.logger.Error("list", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	const q = `SELECT ` + columns + ` FROM customers WHERE id = $1`
	return r.one(r.pool.QueryRow(ctx, q, id), zap.Int64("id", id))
}

func (r *postgresRepo) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Customer, error) {
	const q = `SELECT ` + columns + ` FROM customers WHERE account_number = $1`
	return r.one(r.pool.QueryRow(ctx, q, accountNumber), zap.String("account_number", accountNumber))
}

func (r *postgresRepo) Create(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	const q = `
INSERT INTO customers (account_number, name, phone_number, address)
VALUES ($1, $2, $3, $4)
RETURNING ` + columns
	return r.one(r.pool.QueryRow(ctx, q, c.AccountNumber, c.Name, c.PhoneNumber, c.Address),
		zap.String("account_number", c.AccountNumber))
}

func (r *postgresRepo) Update(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	const q = `
UPDATE customers
SET account_number = $2, name = $3, phone_number = $4, address = $5
WHERE id = $1
RETURNING ` + columns
	return r.one(r.pool.QueryRow(ctx, q, c.ID, c.AccountNumber, c.Name, c.PhoneNumber, c.Address),
		zap.Int64("id", c.ID))
}

func (r *postgresRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		r.logger.Warn("delete", zap.Int64("id", id), zap.Error(err))
		return repository.Translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) one(row pgx.Row, field zap.Field) (*domain.Customer, error) {
	c, err := scanCustomer(row)
	if err != nil {
		err = repository.Translate(err)
		if err != domain.ErrNotFound && err != domain.ErrAlreadyExists {
			r.logger.Error("query", field, zap.Error(err))
		}
		return nil, err
	}
	return c, nil
}

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	if err := row.Scan(&c.ID, &c.AccountNumber, &c.Name, &c.PhoneNumber, &c.Address, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
