package category

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"pahana-billing/internal/domain"
	"pahana-billing/internal/repository"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	var c domain.Category
	err := r.pool.QueryRow(ctx, `SELECT id, name, created_at FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, repository.Translate(err)
	}
	return &c, nil
}

func (r *postgresRepo) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	var c domain.Category
	err := r.pool.QueryRow(ctx, `SELECT id, name, created_at FROM categories WHERE lower(name) = lower($1)`, name).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, repository.Translate(err)
	}
	return &c, nil
}

func (r *postgresRepo) Create(ctx context.Context, name string) (*domain.Category, error) {
	out := domain.Category{Name: name}
	err := r.pool.QueryRow(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id, created_at`, name).
		Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, repository.Translate(err)
	}
	return &out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return repository.Translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
