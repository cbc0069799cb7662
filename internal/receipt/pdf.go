// Package receipt renders persisted bills into printable documents.
package receipt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"pahana-billing/internal/domain"
	"pahana-billing/internal/logging"
)

// ErrEmptyBill is returned for a bill without sales items.
var ErrEmptyBill = errors.New("receipt: bill has no sales items")

// Shop is the letterhead printed on every receipt.
type Shop struct {
	Name    string
	Address string
	Phone   string
}

// PDFRenderer writes bill_<id>.pdf files into Dir.
type PDFRenderer struct {
	dir    string
	shop   Shop
	logger *zap.Logger
}

func NewPDFRenderer(dir string, shop Shop, logger *zap.Logger) *PDFRenderer {
	return &PDFRenderer{dir: dir, shop: shop, logger: logging.OrNop(logger).Named("receipt")}
}

// FileName is the name the receipt for bill id is stored under.
func FileName(id int64) string {
	return "bill_" + strconv.FormatInt(id, 10) + ".pdf"
}

// Render writes the receipt file and returns its path.
func (r *PDFRenderer) Render(ctx context.Context, bill domain.Bill) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(bill.SalesItems) == 0 {
		return "", ErrEmptyBill
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("receipt dir: %w", err)
	}

	path := filepath.Join(r.dir, FileName(bill.ID))
	tmp, err := os.CreateTemp(r.dir, ".bill-*.pdf")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if err := r.Write(tmp, bill); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	r.logger.Info("receipt rendered", zap.Int64("bill_id", bill.ID), zap.String("path", path))
	return path, nil
}

// Write renders bill as PDF into w.
func (r *PDFRenderer) Write(w io.Writer, bill domain.Bill) error {
	if len(bill.SalesItems) == 0 {
		return ErrEmptyBill
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Bill %d", bill.ID), true)
	pdf.SetCreator(r.shop.Name, true)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	width := pageW - left - right

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(width, 10, tr(r.shop.Name), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(width, 7, "Bill Summary", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(width, 5, tr(r.shop.Address), "", 1, "C", false, 0, "")
	pdf.CellFormat(width, 5, tr("Tel: "+r.shop.Phone), "", 1, "C", false, 0, "")
	pdf.Ln(3)
	y := pdf.GetY()
	pdf.Line(left, y, left+width, y)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	half := width / 2
	pdf.CellFormat(half, 6, tr("Name: "+bill.Customer.Name), "", 0, "L", false, 0, "")
	pdf.CellFormat(half, 6, fmt.Sprintf("Bill No: %d", bill.ID), "", 1, "R", false, 0, "")
	pdf.CellFormat(half, 6, tr("Phone: "+bill.Customer.PhoneNumber), "", 0, "L", false, 0, "")
	pdf.CellFormat(half, 6, "Date: "+bill.CreatedAt.Local().Format("2006-01-02 15:04"), "", 1, "R", false, 0, "")
	pdf.MultiCell(width, 6, tr("Address: "+bill.Customer.Address), "", "L", false)
	pdf.Ln(4)

	cols := []struct {
		title string
		w     float64
		align string
	}{
		{"Item", width * 0.46, "L"},
		{"Qty", width * 0.12, "C"},
		{"Price", width * 0.21, "R"},
		{"Subtotal", width * 0.21, "R"},
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range cols {
		pdf.CellFormat(col.w, 8, col.title, "1", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, l := range bill.SalesItems {
		cells := []string{
			tr(l.Item.Name),
			strconv.Itoa(l.Unit),
			domain.FormatCents(l.SellPrice),
			domain.FormatCents(l.SubTotal),
		}
		for i, col := range cols {
			pdf.CellFormat(col.w, 7, cells[i], "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(width, 8, "Grand Total: "+domain.FormatCents(bill.GrandTotal), "", 1, "R", false, 0, "")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(width, 6, "Thank you for your purchase!", "", 1, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
