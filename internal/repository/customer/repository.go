package customer

import (
	"context"

	"pahana-billing/internal/domain"
)

// Repository persists and fetches customers.
type Repository interface {
	List(ctx context.Context, query string) ([]domain.Customer, error)
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Customer, error)
	Create(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	Update(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	Delete(ctx context.Context, id int64) error
}
