package export

import (
	"fmt"
	"io"

	"passive-genius/internal/idea"

	"github.com/xuri/excelize/v2"
)

const (
	sheetProjections = "Projections"
	sheetRoadmap     = "Roadmap"
)

// XLSX renders the plan's forecast and roadmap as a spreadsheet.
func XLSX(w io.Writer, plan *idea.DetailedPlan, title string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetProjections); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetRoadmap); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	currency, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := writeProjections(f, plan, title, bold, currency); err != nil {
		return err
	}
	if err := writeRoadmap(f, plan, bold); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

func writeProjections(f *excelize.File, plan *idea.DetailedPlan, title string, bold, currency int) error {
	sh := sheetProjections
	if err := f.SetCellValue(sh, "A1", heading(plan, title)); err != nil {
		return err
	}
	if err := f.SetSheetRow(sh, "A3", &[]interface{}{"Month", "Revenue", "Expenses", "Profit"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(sh, "A1", "D3", bold); err != nil {
		return err
	}

	row := 4
	for _, p := range plan.Projections {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sh, cell, &[]interface{}{p.Month, p.Revenue, p.Expenses, p.Profit}); err != nil {
			return fmt.Errorf("failed to write projection row: %w", err)
		}
		row++
	}

	// Totals are written as values so readers without formula support see them.
	s := plan.Summary()
	var expenses float64
	for _, p := range plan.Projections {
		expenses += p.Expenses
	}
	totalCell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(sh, totalCell, &[]interface{}{"Total", s.TotalRevenue, expenses, s.TotalProfit}); err != nil {
		return fmt.Errorf("failed to write totals row: %w", err)
	}
	endCell, _ := excelize.CoordinatesToCellName(4, row)
	if err := f.SetCellStyle(sh, totalCell, endCell, bold); err != nil {
		return err
	}
	if row > 4 {
		last, _ := excelize.CoordinatesToCellName(4, row-1)
		if err := f.SetCellStyle(sh, "B4", last, currency); err != nil {
			return err
		}
	}

	summaryRow := row + 2
	marginCell, _ := excelize.CoordinatesToCellName(1, summaryRow)
	if err := f.SetSheetRow(sh, marginCell, &[]interface{}{"Average margin (%)", s.AvgMargin}); err != nil {
		return err
	}
	firstCell, _ := excelize.CoordinatesToCellName(1, summaryRow+1)
	if err := f.SetSheetRow(sh, firstCell, &[]interface{}{"First profitable month", s.FirstProfitMonth}); err != nil {
		return err
	}
	return f.SetColWidth(sh, "A", "D", 22)
}

func writeRoadmap(f *excelize.File, plan *idea.DetailedPlan, bold int) error {
	sh := sheetRoadmap
	if err := f.SetSheetRow(sh, "A1", &[]interface{}{"Phase", "Task"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(sh, "A1", "B1", bold); err != nil {
		return err
	}
	row := 2
	for i, step := range plan.Steps {
		phase := fmt.Sprintf("%d. %s", i+1, step.Phase)
		for _, task := range step.Tasks {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(sh, cell, &[]interface{}{phase, task}); err != nil {
				return fmt.Errorf("failed to write roadmap row: %w", err)
			}
			row++
		}
	}
	if err := f.SetColWidth(sh, "A", "A", 24); err != nil {
		return err
	}
	return f.SetColWidth(sh, "B", "B", 60)
}
