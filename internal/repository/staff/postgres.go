package staff

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pahana-billing/internal/domain"
	"pahana-billing/internal/logging"
	"pahana-billing/internal/repository"
)

const columns = `id, username, full_name, role, password_hash, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("staff_repo")}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Staff, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM staff ORDER BY username ASC`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Staff, error) {
		s, err := scanStaff(row)
		if err != nil {
			return domain.Staff{}, err
		}
		return *s, nil
	})
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Staff, error) {
	s, err := scanStaff(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM staff WHERE id = $1`, id))
	if err != nil {
		return nil, repository.Translate(err)
	}
	return s, nil
}

func (r *postgresRepo) GetByUsername(ctx context.Context, username string) (*domain.Staff, error) {
	s, err := scanStaff(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM staff WHERE lower(username) = lower($1)`, username))
	if err != nil {
		return nil, repository.Translate(err)
	}
	return s, nil
}

func (r *postgresRepo) Create(ctx context.Context, s domain.Staff) (*domain.Staff, error) {
	const q = `
INSERT INTO staff (username, full_name, role, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING ` + columns
	out, err := scanStaff(r.pool.QueryRow(ctx, q, s.Username, s.FullName, s.Role, s.PasswordHash))
	if err != nil {
		err = repository.Translate(err)
		if err != domain.ErrAlreadyExists {
			r.logger.Error("create", zap.String("username", s.Username), zap.Error(err))
		}
		return nil, err
	}
	r.logger.Info("created", zap.Int64("id", out.ID), zap.String("username", out.Username))
	return out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return repository.Translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanStaff(row pgx.Row) (*domain.Staff, error) {
	var s domain.Staff
	if err := row.Scan(&s.ID, &s.Username, &s.FullName, &s.Role, &s.PasswordHash, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
