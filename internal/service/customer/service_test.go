package customer

import (
	"context"
	"errors"
	"testing"

	"pahana-billing/internal/domain"
)

// memoryRepo is a lightweight in-memory customer repository for tests.
type memoryRepo struct {
	byID   map[int64]domain.Customer
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: make(map[int64]domain.Customer)}
}

func (r *memoryRepo) List(_ context.Context, _ string) ([]domain.Customer, error) {
	out := make([]domain.Customer, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	return out, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id int64) (*domain.Customer, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r *memoryRepo) GetByAccountNumber(_ context.Context, acc string) (*domain.Customer, error) {
	for _, c := range r.byID {
		if c.AccountNumber == acc {
			clone := c
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) Create(_ context.Context, c domain.Customer) (*domain.Customer, error) {
	if _, err := r.GetByAccountNumber(context.Background(), c.AccountNumber); err == nil {
		return nil, domain.ErrAlreadyExists
	}
	r.nextID++
	c.ID = r.nextID
	r.byID[c.ID] = c
	return &c, nil
}

func (r *memoryRepo) Update(_ context.Context, c domain.Customer) (*domain.Customer, error) {
	if _, ok := r.byID[c.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	r.byID[c.ID] = c
	return &c, nil
}

func (r *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func TestCreateAndResolve_TrimsInput(t *testing.T) {
	svc := New(newMemoryRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, Input{AccountNumber: " ACC-00001 ", Name: " Nimal ", PhoneNumber: "771234567", Address: "Kandy"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.AccountNumber != "ACC-00001" || created.Name != "Nimal" {
		t.Fatalf("expected trimmed fields, got %+v", created)
	}

	got, err := svc.Resolve(ctx, "  ACC-00001\t")
	if err != nil || got.ID != created.ID {
		t.Fatalf("unexpected resolve %+v err=%v", got, err)
	}
	if _, err := svc.Resolve(ctx, "   "); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("blank account should not be found, got %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := New(newMemoryRepo())
	valid := Input{AccountNumber: "ACC-00001", Name: "Nimal", PhoneNumber: "771234567", Address: "Kandy"}

	cases := map[string]struct {
		mutate func(*Input)
		field  string
	}{
		"short account":   {func(in *Input) { in.AccountNumber = "A1" }, "accountNumber"},
		"long account":    {func(in *Input) { in.AccountNumber = "ACC-0000000000000000000000000001" }, "accountNumber"},
		"slash account":   {func(in *Input) { in.AccountNumber = "ACC/0001" }, "accountNumber"},
		"plus account":    {func(in *Input) { in.AccountNumber = "ACC+0001" }, "accountNumber"},
		"missing name":    {func(in *Input) { in.Name = " " }, "name"},
		"missing address": {func(in *Input) { in.Address = "" }, "address"},
		"letters phone":   {func(in *Input) { in.PhoneNumber = "77-123" }, "phoneNumber"},
		"leading zero":    {func(in *Input) { in.PhoneNumber = "0771234567" }, "phoneNumber"},
	}
	for name, tc := range cases {
		in := valid
		tc.mutate(&in)
		_, err := svc.Create(context.Background(), in)
		var ve *domain.ValidationError
		if !errors.As(err, &ve) || ve.Field != tc.field {
			t.Fatalf("%s: expected validation error on %s, got %v", name, tc.field, err)
		}
	}

	in := valid
	in.PhoneNumber = ""
	if _, err := svc.Create(context.Background(), in); err != nil {
		t.Fatalf("phone should be optional, got %v", err)
	}
}

func TestUpdate_UsesPathID(t *testing.T) {
	repo := newMemoryRepo()
	svc := New(repo)
	ctx := context.Background()

	c, err := svc.Create(ctx, Input{AccountNumber: "ACC-00001", Name: "Nimal", Address: "Kandy"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	updated, err := svc.Update(ctx, c.ID, Input{AccountNumber: "ACC-00001", Name: "Nimal Perera", Address: "Galle"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != c.ID || repo.byID[c.ID].Address != "Galle" {
		t.Fatalf("unexpected update %+v", updated)
	}
	if _, err := svc.Update(ctx, 99, Input{AccountNumber: "ACC-00009", Name: "X", Address: "Y"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
