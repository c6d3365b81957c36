package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets into a landscape table.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body. Long cells wrap.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, fmt.Errorf("pdf: %w", err)
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	colWidth := 277.0 / float64(len(data.Headers))
	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, h := range data.Headers {
			pdf.CellFormat(colWidth, 8, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}
	header()

	const lineHeight = 5.0
	for _, row := range data.Rows {
		lines := 1
		for _, h := range data.Headers {
			if n := len(pdf.SplitText(row[h], colWidth-2)); n > lines {
				lines = n
			}
		}
		height := float64(lines) * lineHeight
		if pdf.GetY()+height > 198 {
			pdf.AddPage()
			header()
		}
		x, y := pdf.GetXY()
		for i, h := range data.Headers {
			pdf.SetXY(x+float64(i)*colWidth, y)
			pdf.Rect(x+float64(i)*colWidth, y, colWidth, height, "D")
			pdf.MultiCell(colWidth, lineHeight, row[h], "", "L", false)
		}
		pdf.SetXY(x, y+height)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
