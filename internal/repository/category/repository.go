package category

import (
	"context"

	"pahana-billing/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Category, error)
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	GetByName(ctx context.Context, name string) (*domain.Category, error)
	Create(ctx context.Context, name string) (*domain.Category, error)
	Delete(ctx context.Context, id int64) error
}
