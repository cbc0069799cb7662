package category

import (
	"context"
	"errors"
	"strings"

	"pahana-billing/internal/domain"
	"pahana-billing/internal/repository/category"
)

type Service struct {
	repo category.Repository
}

func New(repo category.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	return s.repo.List(ctx)
}

func (s *Service) Create(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Invalid("name", "category name required")
	}
	return s.repo.Create(ctx, name)
}

// Ensure returns the category called name, creating it when absent.
func (s *Service) Ensure(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Invalid("name", "category name required")
	}
	c, err := s.repo.GetByName(ctx, name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	c, err = s.repo.Create(ctx, name)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return s.repo.GetByName(ctx, name)
	}
	return c, err
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
