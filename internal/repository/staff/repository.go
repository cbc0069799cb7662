package staff

import (
	"context"

	"pahana-billing/internal/domain"
)

// Repository persists staff accounts.
type Repository interface {
	List(ctx context.Context) ([]domain.Staff, error)
	GetByID(ctx context.Context, id int64) (*domain.Staff, error)
	GetByUsername(ctx context.Context, username string) (*domain.Staff, error)
	Create(ctx context.Context, s domain.Staff) (*domain.Staff, error)
	Delete(ctx context.Context, id int64) error
}
