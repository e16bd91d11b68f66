package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Receipt carries everything printed on a payment receipt.
type Receipt struct {
	Number     string
	IssuedAt   time.Time
	Merchant   string
	Cardholder string
	MaskedCard string
	PlanName   string
	Amount     string
	Currency   string
}

// PDFExporter renders payment receipts.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// RenderReceipt lays out a single page A5 receipt.
func (e *PDFExporter) RenderReceipt(r Receipt) ([]byte, error) {
	if r.Number == "" {
		return nil, fmt.Errorf("receipt number is required")
	}
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 15, 12)
	pdf.SetTitle("Receipt "+r.Number, false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, r.Merchant, "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, "Payment receipt", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	rows := [][2]string{
		{"Receipt number", r.Number},
		{"Date", r.IssuedAt.UTC().Format("2006-01-02 15:04 MST")},
		{"Cardholder", r.Cardholder},
		{"Card", r.MaskedCard},
	}
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(40, 7, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 7, row[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFillColor(235, 235, 235)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(84, 8, "Plan", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, "Amount", "1", 1, "R", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(84, 8, r.PlanName+" (monthly)", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, r.Amount+" "+r.Currency, "1", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(84, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, r.Amount+" "+r.Currency, "1", 1, "R", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
