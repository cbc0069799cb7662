package customer

import (
	"context"
	"strings"

	"pahana-billing/internal/domain"
)

type repository interface {
	List(ctx context.Context, query string) ([]domain.Customer, error)
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Customer, error)
	Create(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	Update(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	Delete(ctx context.Context, id int64) error
}

// Service manages customer accounts and resolves account numbers at the desk.
type Service struct {
	repo repository
}

func New(repo repository) *Service {
	return &Service{repo: repo}
}

// Input is the create/update payload.
type Input struct {
	AccountNumber string `json:"accountNumber"`
	Name          string `json:"name"`
	PhoneNumber   string `json:"phoneNumber"`
	Address       string `json:"address"`
}

func (s *Service) List(ctx context.Context, query string) ([]domain.Customer, error) {
	return s.repo.List(ctx, strings.TrimSpace(query))
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Customer, error) {
	return s.repo.GetByID(ctx, id)
}

// Resolve looks a customer up by account number. Blank input is never found.
func (s *Service) Resolve(ctx context.Context, accountNumber string) (*domain.Customer, error) {
	acc := strings.TrimSpace(accountNumber)
	if acc == "" {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetByAccountNumber(ctx, acc)
}

func (s *Service) Create(ctx context.Context, in Input) (*domain.Customer, error) {
	c, err := normalize(in)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (*domain.Customer, error) {
	c, err := normalize(in)
	if err != nil {
		return nil, err
	}
	c.ID = id
	return s.repo.Update(ctx, c)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func normalize(in Input) (domain.Customer, error) {
	c := domain.Customer{
		AccountNumber: strings.TrimSpace(in.AccountNumber),
		Name:          strings.TrimSpace(in.Name),
		PhoneNumber:   strings.TrimSpace(in.PhoneNumber),
		Address:       strings.TrimSpace(in.Address),
	}
	if err := ValidateAccountNumber(c.AccountNumber); err != nil {
		return c, err
	}
	if c.Name == "" {
		return c, domain.Invalid("name", "name required")
	}
	if c.Address == "" {
		return c, domain.Invalid("address", "address required")
	}
	if err := validatePhone(c.PhoneNumber); err != nil {
		return c, err
	}
	return c, nil
}

// ValidateAccountNumber enforces 5 to 30 characters without '/' or '+'.
func ValidateAccountNumber(acc string) error {
	if n := len([]rune(acc)); n < 5 || n > 30 {
		return domain.Invalid("accountNumber", "account number must be between 5 and 30 characters")
	}
	if strings.ContainsAny(acc, "/+") {
		return domain.Invalid("accountNumber", "account number must not contain '/' or '+'")
	}
	return nil
}

func validatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return domain.Invalid("phoneNumber", "phone number must contain digits only")
		}
	}
	if phone[0] == '0' {
		return domain.Invalid("phoneNumber", "phone number must not start with 0")
	}
	return nil
}
