package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	apperrors "ecomlytics/internal/errors"
	"ecomlytics/internal/services"
)

const summarySheet = "Summary"
const monthlySheet = "Monthly"

// WriteSummary renders the executive summary workbook: a KPI sheet built
// from the result's headline metrics and a second sheet with the monthly
// revenue series.
func (w *ReportWriter) WriteSummary(res *services.Result) error {
	summary := services.BuildSummary(res)

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", summarySheet)

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return apperrors.NewStorageError("cannot create workbook style", err)
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return apperrors.NewStorageError("cannot create workbook style", err)
	}

	f.SetCellValue(summarySheet, "A1", summary.Title)
	f.SetCellStyle(summarySheet, "A1", "A1", titleStyle)
	f.SetCellValue(summarySheet, "A2", fmt.Sprintf("Window: %s", summary.Window))
	f.SetCellValue(summarySheet, "A3", fmt.Sprintf("Generated: %s", summary.GeneratedAt.Format("2006-01-02 15:04:05 MST")))

	row := 5
	for _, line := range summary.Lines {
		f.SetCellValue(summarySheet, cell("A", row), line.Label)
		f.SetCellStyle(summarySheet, cell("A", row), cell("A", row), labelStyle)
		f.SetCellValue(summarySheet, cell("B", row), line.Value)
		row++
	}

	row++
	f.SetCellValue(summarySheet, cell("A", row), "Highlights")
	f.SetCellStyle(summarySheet, cell("A", row), cell("A", row), labelStyle)
	row++
	for _, highlight := range summary.Highlights {
		f.SetCellValue(summarySheet, cell("A", row), highlight)
		row++
	}

	f.SetColWidth(summarySheet, "A", "A", 32)
	f.SetColWidth(summarySheet, "B", "B", 18)

	if err := w.writeMonthlySheet(f, res); err != nil {
		return err
	}

	path := filepath.Join(w.dir, SummaryFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.NewStorageError("cannot create report directory", err)
	}
	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("cannot save workbook %s", SummaryFile), err)
	}
	return nil
}

func (w *ReportWriter) writeMonthlySheet(f *excelize.File, res *services.Result) error {
	if _, err := f.NewSheet(monthlySheet); err != nil {
		return apperrors.NewStorageError("cannot add monthly sheet", err)
	}

	headers := []string{"Month", "Revenue", "Orders", "Items sold", "Avg order value", "Revenue growth %"}
	for i, header := range headers {
		col := string(rune('A' + i))
		f.SetCellValue(monthlySheet, cell(col, 1), header)
	}

	for i, m := range res.Monthly {
		row := i + 2
		f.SetCellValue(monthlySheet, cell("A", row), m.Label)
		f.SetCellValue(monthlySheet, cell("B", row), m.Revenue)
		f.SetCellValue(monthlySheet, cell("C", row), m.Orders)
		f.SetCellValue(monthlySheet, cell("D", row), m.ItemsSold)
		if m.AverageOrderValue != nil {
			f.SetCellValue(monthlySheet, cell("E", row), *m.AverageOrderValue)
		}
		if m.RevenueGrowthPct != nil {
			f.SetCellValue(monthlySheet, cell("F", row), *m.RevenueGrowthPct)
		}
	}
	return nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
