package receipt

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pahana-billing/internal/domain"
)

func testBill() domain.Bill {
	return domain.Bill{
		ID:         77,
		CreatedAt:  time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		Customer:   domain.Customer{ID: 7, Name: "Nimal Perera", PhoneNumber: "771234567", Address: "12 Temple Rd, Kandy"},
		GrandTotal: 330,
		SalesItems: []domain.BillLine{
			{Item: domain.Item{ID: 1, Name: "Exercise Book"}, Unit: 2, SellPrice: 120, SubTotal: 240},
			{Item: domain.Item{ID: 2, Name: "Blue Pen"}, Unit: 2, SellPrice: 45, SubTotal: 90},
		},
	}
}

var shop = Shop{Name: "Pahana Edu", Address: "123 Main Street, Colombo 03, Sri Lanka", Phone: "011 234 5678"}

func TestRender_WritesNamedPDF(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "receipts")
	r := NewPDFRenderer(dir, shop, nil)

	path, err := r.Render(context.Background(), testBill())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if filepath.Base(path) != "bill_77.pdf" {
		t.Fatalf("unexpected file name %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected only the receipt in %s, got %d entries", dir, len(entries))
	}
}

func TestRender_EmptyBill(t *testing.T) {
	r := NewPDFRenderer(t.TempDir(), shop, nil)
	bill := testBill()
	bill.SalesItems = nil
	if _, err := r.Render(context.Background(), bill); !errors.Is(err, ErrEmptyBill) {
		t.Fatalf("expected ErrEmptyBill, got %v", err)
	}
}

func TestWrite_ToBuffer(t *testing.T) {
	var buf bytes.Buffer
	if err := NewPDFRenderer("", shop, nil).Write(&buf, testBill()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected pdf bytes")
	}
}
