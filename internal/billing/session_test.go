package billing

import (
	"context"
	"errors"
	"testing"

	"pahana-billing/internal/domain"
)

type stubLookup struct {
	customers map[string]*domain.Customer
	calls     int
}

func (s *stubLookup) ResolveCustomer(_ context.Context, acc string) (*domain.Customer, error) {
	s.calls++
	if c, ok := s.customers[acc]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func TestSessionGatesCartOnCustomer(t *testing.T) {
	s := NewSession([]domain.Item{itemA}, &stubSales{}, nil)
	if got := s.Search("exe"); got != nil {
		t.Fatalf("search should be disabled, got %+v", got)
	}
	snap, err := s.Select(itemA.ID)
	if err != nil || snap.Candidate != nil || snap.CanAdd {
		t.Fatalf("select should be disabled: snap=%+v err=%v", snap, err)
	}
	snap = s.AddOrUpdate()
	if len(snap.Lines) != 0 {
		t.Fatalf("add should be disabled")
	}
}

func TestSessionResolveAndBuild(t *testing.T) {
	lookup := &stubLookup{customers: map[string]*domain.Customer{"ACC1": {ID: 3, Name: "Sunil"}}}
	s := NewSession([]domain.Item{itemA, itemB}, &stubSales{}, nil)

	snap := s.Resolve(context.Background(), lookup, "")
	if snap.Customer.Status != StatusUnknown || lookup.calls != 0 {
		t.Fatalf("empty input should not call lookup")
	}
	snap = s.Resolve(context.Background(), lookup, "ACC1")
	if snap.Customer.Status != StatusValid || !snap.CanAdd {
		t.Fatalf("expected valid customer, got %+v", snap.Customer)
	}

	found := s.Search("pen")
	if len(found) != 1 || found[0].ID != itemB.ID {
		t.Fatalf("unexpected search result %+v", found)
	}
	if _, err := s.Select(404); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for unknown item, got %v", err)
	}
	snap, _ = s.Select(itemB.ID)
	if snap.Candidate == nil || snap.SearchText != itemB.Name || snap.Quantity != 1 {
		t.Fatalf("unexpected staging %+v", snap)
	}
	s.SetQuantity(4)
	snap = s.AddOrUpdate()
	if len(snap.Lines) != 1 || snap.Lines[0].SubTotal != 180 || snap.GrandTotal != 180 || !snap.CanCheckout {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	snap = s.EditLine(0)
	if snap.EditIndex == nil || *snap.EditIndex != 0 {
		t.Fatalf("expected edit index 0")
	}
	snap = s.RemoveLine(0)
	if snap.EditIndex != nil || snap.Candidate != nil || snap.CanCheckout {
		t.Fatalf("removal should clear edit state, got %+v", snap)
	}
}

func TestSessionCloseDiscardsLookups(t *testing.T) {
	s := NewSession(nil, &stubSales{}, nil)
	l, _ := s.BeginLookup("ACC1")
	s.Close()
	if _, applied := s.CompleteLookup(l, &domain.Customer{ID: 1}, nil); applied {
		t.Fatalf("closed session must ignore lookups")
	}
}
