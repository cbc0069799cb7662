package item

import (
	"context"
	"errors"
	"strings"

	"pahana-billing/internal/domain"
)

type itemRepo interface {
	List(ctx context.Context, query string) ([]domain.Item, error)
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
	Create(ctx context.Context, it domain.Item) (*domain.Item, error)
	Update(ctx context.Context, it domain.Item) (*domain.Item, error)
	Delete(ctx context.Context, id int64) error
}

type categoryRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
}

type Service struct {
	repo       itemRepo
	categories categoryRepo
}

func New(repo itemRepo, categories categoryRepo) *Service {
	return &Service{repo: repo, categories: categories}
}

// Input is the create/update payload. Price is in minor units.
type Input struct {
	Name        string `json:"itemName"`
	Description string `json:"description"`
	Brand       string `json:"brand"`
	CategoryID  *int64 `json:"categoryId"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
}

func (s *Service) List(ctx context.Context, query string) ([]domain.Item, error) {
	return s.repo.List(ctx, strings.TrimSpace(query))
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Item, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (*domain.Item, error) {
	it, err := s.normalize(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, it)
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (*domain.Item, error) {
	it, err := s.normalize(ctx, in)
	if err != nil {
		return nil, err
	}
	it.ID = id
	return s.repo.Update(ctx, it)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) normalize(ctx context.Context, in Input) (domain.Item, error) {
	it := domain.Item{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Brand:       strings.TrimSpace(in.Brand),
		CategoryID:  in.CategoryID,
		Price:       in.Price,
		Stock:       in.Stock,
	}
	switch {
	case it.Name == "":
		return it, domain.Invalid("itemName", "item name required")
	case it.Price < 0:
		return it, domain.Invalid("price", "price must not be negative")
	case it.Stock < 0:
		return it, domain.Invalid("stock", "stock must not be negative")
	}
	if it.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *it.CategoryID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return it, domain.Invalid("categoryId", "category does not exist")
			}
			return it, err
		}
	}
	return it, nil
}
