package sale

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"pahana-billing/internal/domain"
	"pahana-billing/internal/logging"
	salerepo "pahana-billing/internal/repository/sale"
)

type saleRepo interface {
	Create(ctx context.Context, bill domain.Bill, createdBy *int64) (*domain.Bill, error)
	GetByID(ctx context.Context, id int64) (*domain.Bill, error)
	List(ctx context.Context, f salerepo.ListFilter) ([]domain.Bill, error)
}

type customerRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
}

type itemRepo interface {
	GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.Item, error)
}

// Service records sales. Prices come from the catalog at the time of sale,
// never from the request.
type Service struct {
	repo      saleRepo
	customers customerRepo
	items     itemRepo
	logger    *zap.Logger
}

func New(repo saleRepo, customers customerRepo, items itemRepo, logger *zap.Logger) *Service {
	return &Service{repo: repo, customers: customers, items: items, logger: logging.OrNop(logger).Named("sale_service")}
}

// Create validates req, prices it and persists the resulting bill.
func (s *Service) Create(ctx context.Context, req domain.SaleRequest, createdBy *int64) (*domain.Bill, error) {
	if req.CustomerID <= 0 {
		return nil, domain.Invalid("customerId", "customer required")
	}
	if len(req.SalesItems) == 0 {
		return nil, domain.Invalid("salesItems", "at least one sales item required")
	}

	customer, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Invalid("customerId", "customer does not exist")
		}
		return nil, err
	}

	lines, err := mergeLines(req.SalesItems)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.ItemID
	}
	items, err := s.items.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	bill, err := Price(*customer, lines, items)
	if err != nil {
		s.logger.Info("sale rejected", zap.Int64("customer_id", req.CustomerID), zap.Error(err))
		return nil, err
	}
	return s.repo.Create(ctx, bill, createdBy)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Bill, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f salerepo.ListFilter) ([]domain.Bill, error) {
	return s.repo.List(ctx, f)
}

// maxUnit bounds the units of one item in a sale.
const maxUnit = 1_000_000

// mergeLines folds repeated item ids into one line, keeping first-seen order.
func mergeLines(in []domain.SaleRequestLine) ([]domain.SaleRequestLine, error) {
	out := make([]domain.SaleRequestLine, 0, len(in))
	index := make(map[int64]int, len(in))
	for _, l := range in {
		if l.ItemID <= 0 {
			return nil, domain.Invalid("salesItems", "item id required")
		}
		if l.Unit < 1 || l.Unit > maxUnit {
			return nil, domain.Invalid("salesItems", fmt.Sprintf("unit for item %d must be between 1 and %d", l.ItemID, maxUnit))
		}
		if i, ok := index[l.ItemID]; ok {
			if out[i].Unit > maxUnit-l.Unit {
				return nil, domain.Invalid("salesItems", fmt.Sprintf("unit for item %d must be between 1 and %d", l.ItemID, maxUnit))
			}
			out[i].Unit += l.Unit
			continue
		}
		index[l.ItemID] = len(out)
		out = append(out, l)
	}
	return out, nil
}

// Price builds an unsaved bill for lines using catalog prices. Every line must
// reference an item in items and must not ask for more than its stock.
func Price(customer domain.Customer, lines []domain.SaleRequestLine, items map[int64]domain.Item) (domain.Bill, error) {
	bill := domain.Bill{
		Customer:   customer,
		SalesItems: make([]domain.BillLine, 0, len(lines)),
	}
	for _, l := range lines {
		it, ok := items[l.ItemID]
		if !ok {
			return domain.Bill{}, domain.Invalid("salesItems", fmt.Sprintf("item %d does not exist", l.ItemID))
		}
		if l.Unit > it.Stock {
			return domain.Bill{}, fmt.Errorf("%w for %s", domain.ErrInsufficientStock, it.Name)
		}
		sub := it.Price * int64(l.Unit)
		bill.SalesItems = append(bill.SalesItems, domain.BillLine{
			Item:      it,
			Unit:      l.Unit,
			SellPrice: it.Price,
			SubTotal:  sub,
		})
		bill.GrandTotal += sub
	}
	return bill, nil
}
