package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets and weekly grids into PDF documents.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	writeTitle(pdf, title)

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return output(pdf)
}

// Grid is a slot-by-day matrix for weekly timetable rendering. Cells hold the
// subject occupying (slot row, day column), empty strings render as blanks.
type Grid struct {
	SlotLabels []string
	DayLabels  []string
	Cells      [][]string
}

// RenderGrid draws a weekly timetable in landscape with slot rows and day
// columns, followed by an optional course detail table.
func (e *PDFExporter) RenderGrid(grid Grid, detail Dataset, title string) ([]byte, error) {
	if len(grid.SlotLabels) == 0 || len(grid.DayLabels) == 0 {
		return nil, fmt.Errorf("grid requires slot and day labels")
	}
	if len(grid.Cells) != len(grid.SlotLabels) {
		return nil, fmt.Errorf("grid has %d rows, want %d", len(grid.Cells), len(grid.SlotLabels))
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	writeTitle(pdf, title)

	slotColWidth := 45.0
	dayColWidth := (277.0 - slotColWidth) / float64(len(grid.DayLabels))

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(slotColWidth, 8, "Time Slot", "1", 0, "C", false, 0, "")
	for _, day := range grid.DayLabels {
		pdf.CellFormat(dayColWidth, 8, day, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for i, slot := range grid.SlotLabels {
		pdf.CellFormat(slotColWidth, 10, slot, "1", 0, "", false, 0, "")
		for j := range grid.DayLabels {
			cell := ""
			if j < len(grid.Cells[i]) {
				cell = grid.Cells[i][j]
			}
			pdf.CellFormat(dayColWidth, 10, cell, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(detail.Headers) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 9)
		colWidth := 277.0 / float64(len(detail.Headers))
		for _, header := range detail.Headers {
			pdf.CellFormat(colWidth, 7, header, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
		for _, row := range detail.Rows {
			for _, header := range detail.Headers {
				pdf.CellFormat(colWidth, 6, row[header], "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	return output(pdf)
}

func writeTitle(pdf *gofpdf.Fpdf, title string) {
	if title == "" {
		return
	}
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
	pdf.Ln(5)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
