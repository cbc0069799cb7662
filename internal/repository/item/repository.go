package item

import (
	"context"

	"pahana-billing/internal/domain"
)

type Repository interface {
	List(ctx context.Context, query string) ([]domain.Item, error)
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
	// GetByIDs returns the items found among ids keyed by id. Missing ids are absent.
	GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.Item, error)
	Create(ctx context.Context, it domain.Item) (*domain.Item, error)
	Update(ctx context.Context, it domain.Item) (*domain.Item, error)
	Delete(ctx context.Context, id int64) error
	// Upsert inserts or updates the item identified by name and brand.
	Upsert(ctx context.Context, it domain.Item) (*domain.Item, error)
}
