package sale

import (
	"context"

	"pahana-billing/internal/domain"
)

// ListFilter narrows and orders the sales history.
type ListFilter struct {
	// Query matches the customer name (substring) or the bill id (exact).
	Query        string
	Sort         string
	Descending   bool
	IncludeItems bool
}

// Repository persists bills.
type Repository interface {
	// Create stores bill and its lines atomically. Bill.Customer.ID and every
	// line's Item.ID must reference existing rows.
	Create(ctx context.Context, bill domain.Bill, createdBy *int64) (*domain.Bill, error)
	GetByID(ctx context.Context, id int64) (*domain.Bill, error)
	List(ctx context.Context, f ListFilter) ([]domain.Bill, error)
}
