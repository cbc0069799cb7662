package item

import (
	"context"
	"errors"
	"testing"

	"pahana-billing/internal/domain"
	"pahana-billing/internal/testdb"
)

func TestPostgres_CreateGetList(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgres(testdb.Pool(t), nil)

	book, err := repo.Create(ctx, domain.Item{Name: "Exercise Book", Description: "A4 ruled", Brand: "Atlas", Price: 150, Stock: 40})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	pen, err := repo.Create(ctx, domain.Item{Name: "Blue Pen", Description: "ballpoint", Price: 45, Stock: 100})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByID(ctx, book.ID)
	if err != nil || got.Price != 150 || got.CategoryID != nil {
		t.Fatalf("unexpected item %+v err=%v", got, err)
	}

	list, err := repo.List(ctx, "ruled")
	if err != nil || len(list) != 1 || list[0].ID != book.ID {
		t.Fatalf("unexpected search %+v err=%v", list, err)
	}

	byID, err := repo.GetByIDs(ctx, []int64{book.ID, pen.ID, 9999})
	if err != nil {
		t.Fatalf("get by ids: %v", err)
	}
	if len(byID) != 2 || byID[pen.ID].Name != "Blue Pen" {
		t.Fatalf("unexpected map %+v", byID)
	}
}

func TestPostgres_UpsertByNameAndBrand(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgres(testdb.Pool(t), nil)

	first, err := repo.Upsert(ctx, domain.Item{Name: "Atlas", Brand: "Sarasavi", Price: 2500, Stock: 3})
	if err != nil {
		t.Fatalf("upsert insert: %v", err)
	}
	second, err := repo.Upsert(ctx, domain.Item{Name: "Atlas", Brand: "Sarasavi", Price: 2700, Stock: 5})
	if err != nil {
		t.Fatalf("upsert update: %v", err)
	}
	if second.ID != first.ID || second.Price != 2700 || second.Stock != 5 {
		t.Fatalf("unexpected upsert result %+v", second)
	}
}

func TestPostgres_DeleteMissing(t *testing.T) {
	repo := NewPostgres(testdb.Pool(t), nil)
	if err := repo.Delete(context.Background(), 42); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
