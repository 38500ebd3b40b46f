package export

import (
	"fmt"
	"io"

	"passive-genius/internal/idea"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin     = 15.0
	pdfLineHeight = 6.0
)

// PDF renders a plan as a paginated A4 document.
func PDF(w io.Writer, plan *idea.DetailedPlan, title string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Generated by PassiveGenius - Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(37, 99, 235)
	pdf.MultiCell(0, 9, tr(heading(plan, title)), "", "L", false)
	pdf.Ln(4)

	section := func(name string) {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.SetTextColor(17, 24, 39)
		pdf.CellFormat(0, 8, tr(name), "B", 1, "L", false, 0, "")
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "", 11)
		pdf.SetTextColor(55, 65, 81)
	}

	section("Executive Overview")
	pdf.MultiCell(0, pdfLineHeight, tr(plan.Overview), "", "L", false)

	section("Marketing Strategy")
	pdf.MultiCell(0, pdfLineHeight, tr(plan.MarketingStrategy), "", "L", false)

	section("Execution Roadmap")
	for i, step := range plan.Steps {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.MultiCell(0, pdfLineHeight, tr(fmt.Sprintf("%d. %s", i+1, step.Phase)), "", "L", false)
		pdf.SetFont("Helvetica", "", 11)
		for _, task := range step.Tasks {
			pdf.SetX(pdfMargin + 5)
			pdf.MultiCell(0, pdfLineHeight, tr("- "+task), "", "L", false)
		}
		pdf.Ln(1)
	}

	section("Financial Projections")
	widths := []float64{45, 45, 45, 45}
	headers := []string{"Month", "Revenue", "Expenses", "Profit"}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(243, 244, 246)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, p := range plan.Projections {
		pdf.CellFormat(widths[0], 7, tr(p.Month), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, money(p.Revenue), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, money(p.Expenses), "1", 0, "R", false, 0, "")
		if p.Profit < 0 {
			pdf.SetTextColor(220, 38, 38)
		} else {
			pdf.SetTextColor(22, 163, 74)
		}
		pdf.CellFormat(widths[3], 7, money(p.Profit), "1", 0, "R", false, 0, "")
		pdf.SetTextColor(55, 65, 81)
		pdf.Ln(-1)
	}

	s := plan.Summary()
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.MultiCell(0, pdfLineHeight, tr(fmt.Sprintf(
		"Total profit: %s    Average margin: %d%%    First profitable month: %s",
		money(s.TotalProfit), s.AvgMargin, s.FirstProfitMonth,
	)), "", "L", false)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}
