package services

import (
	"bytes"
	"fmt"
	"strings"

	"akra-backend/internal/game"
	"akra-backend/internal/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
)

// ExportService renders filter results for the clipboard and for print.
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

// Text renders rows as tab-separated lines for clipboard paste, one
// "number<TAB>amount" line per row of the chosen amount kind. Rows whose
// chosen result is zero are skipped.
func (s *ExportService) Text(results []game.CalcResult, kind game.AmountKind) string {
	var b strings.Builder
	for _, r := range results {
		amount := r.FirstResult
		if kind == game.KindSecond {
			amount = r.SecondResult
		}
		if amount <= 0 {
			continue
		}
		fmt.Fprintf(&b, "%s\t%d\n", r.Number, amount)
	}
	return b.String()
}

// PDF renders the filter result table as a printable summary.
func (s *ExportService) PDF(entryType string, results []game.CalcResult) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Filter Results", false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, fmt.Sprintf("Filter Results - %s", strings.ToUpper(entryType)))
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 6, timeutil.FormatPKT(timeutil.Now(), timeutil.DisplayLayout))
	pdf.Ln(10)

	// Table header
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	headers := []string{"Number", "First Total", "Second Total", "First Result", "Second Result"}
	widths := []float64{30, 40, 40, 40, 40}
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	var totalFirst, totalSecond int64
	for _, r := range results {
		pdf.CellFormat(widths[0], 7, r.Number, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 7, fmt.Sprintf("%d", r.FirstTotal), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, fmt.Sprintf("%d", r.SecondTotal), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, fmt.Sprintf("%d", r.FirstResult), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, fmt.Sprintf("%d", r.SecondResult), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
		totalFirst += r.FirstResult
		totalSecond += r.SecondResult
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 8, "Total", "1", 0, "R", true, 0, "")
	pdf.CellFormat(widths[3], 8, fmt.Sprintf("%d", totalFirst), "1", 0, "R", true, 0, "")
	pdf.CellFormat(widths[4], 8, fmt.Sprintf("%d", totalSecond), "1", 0, "R", true, 0, "")
	pdf.Ln(-1)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
