package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfTableWidth = 190.0
	pdfRowHeight  = 7.0
)

// PDFExporter renders a Dataset as a single-table PDF document.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render draws the title, a header row and one table row per dataset
// row. Column widths are uniform; the header row repeats on each page.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(10, 15, 10)
	colWidth := pdfTableWidth / float64(len(data.Headers))

	writeHeader := func() {
		doc.SetFont("Arial", "B", 10)
		for _, h := range data.Headers {
			doc.CellFormat(colWidth, 8, h, "1", 0, "C", false, 0, "")
		}
		doc.Ln(-1)
		doc.SetFont("Arial", "", 9)
	}

	doc.AddPage()
	if title != "" {
		doc.SetFont("Arial", "B", 14)
		doc.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
		doc.Ln(4)
	}
	writeHeader()

	_, pageHeight := doc.GetPageSize()
	_, _, _, bottom := doc.GetMargins()
	for _, row := range data.Rows {
		if doc.GetY()+pdfRowHeight > pageHeight-bottom {
			doc.AddPage()
			writeHeader()
		}
		for _, cell := range normalize(row, len(data.Headers)) {
			doc.CellFormat(colWidth, pdfRowHeight, cell, "1", 0, "", false, 0, "")
		}
		doc.Ln(-1)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
