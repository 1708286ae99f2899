package generate_excel

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"atelier/internal/storage"
)

const sheet = "Cost report"

type CostReporter interface {
	GenerateCostReport(ctx context.Context, orderID int64) (storage.CostReport, error)
}

type GenerateExcelService struct {
	reporter CostReporter
}

func NewGenerateService(reporter CostReporter) *GenerateExcelService {
	return &GenerateExcelService{reporter: reporter}
}

// GenerateExcel renders an order's cost report as an XLSX workbook: one row
// per stage, a totals row and the accrued total underneath.
func (g *GenerateExcelService) GenerateExcel(ctx context.Context, orderID int64) ([]byte, string, error) {
	report, err := g.reporter.GenerateCostReport(ctx, orderID)
	if err != nil {
		return nil, "", err
	}

	data, err := RenderCostReport(report)
	if err != nil {
		return nil, "", fmt.Errorf("render cost report of order %d: %w", orderID, err)
	}

	return data, fileName(report), nil
}

var headers = []string{"Seq", "Stage", "Status", "Worker", "Hours", "Rate", "Material", "Labor", "Total"}

func RenderCostReport(report storage.CostReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return nil, err
	}
	moneyFmt := "0.000"
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return nil, err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &moneyFmt})
	if err != nil {
		return nil, err
	}

	f.SetCellValue(sheet, "A1", "Order")
	f.SetCellValue(sheet, "B1", report.Reference)
	f.SetCellValue(sheet, "C1", report.OrderID)

	const headerRow = 3
	for i, name := range headers {
		f.SetCellValue(sheet, cellName(i+1, headerRow), name)
	}
	lastCol := cellName(len(headers), headerRow)
	f.SetCellStyle(sheet, cellName(1, headerRow), lastCol, headerStyle)

	row := headerRow + 1
	for _, line := range report.Stages {
		worker := "-"
		if line.WorkerID != nil {
			worker = fmt.Sprintf("%d", *line.WorkerID)
		}

		f.SetCellValue(sheet, cellName(1, row), line.Sequence)
		f.SetCellValue(sheet, cellName(2, row), line.StageName)
		f.SetCellValue(sheet, cellName(3, row), string(line.Status))
		f.SetCellValue(sheet, cellName(4, row), worker)
		f.SetCellValue(sheet, cellName(5, row), toFloat(line.Hours))
		f.SetCellValue(sheet, cellName(6, row), toFloat(line.HourlyRate))
		f.SetCellValue(sheet, cellName(7, row), toFloat(line.MaterialCost))
		f.SetCellValue(sheet, cellName(8, row), toFloat(line.LaborCost))
		f.SetCellValue(sheet, cellName(9, row), toFloat(line.Total))
		f.SetCellStyle(sheet, cellName(6, row), cellName(9, row), moneyStyle)
		row++
	}

	f.SetCellValue(sheet, cellName(2, row), "Total")
	f.SetCellValue(sheet, cellName(7, row), toFloat(report.Totals.Material))
	f.SetCellValue(sheet, cellName(8, row), toFloat(report.Totals.Labor))
	f.SetCellValue(sheet, cellName(9, row), toFloat(report.Totals.Total))
	f.SetCellStyle(sheet, cellName(2, row), cellName(9, row), totalStyle)
	row++

	f.SetCellValue(sheet, cellName(2, row), "Accrued")
	f.SetCellValue(sheet, cellName(9, row), toFloat(report.AccruedTotal))
	f.SetCellStyle(sheet, cellName(2, row), cellName(9, row), totalStyle)

	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: cellName(1, headerRow+1),
		ActivePane:  "bottomLeft",
	})
	f.SetColWidth(sheet, "B", "B", 20)
	f.SetColWidth(sheet, "C", "I", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func toFloat(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}

func fileName(report storage.CostReport) string {
	ref := report.Reference
	if ref == "" {
		ref = fmt.Sprintf("%d", report.OrderID)
	}
	return fmt.Sprintf("cost_report_%s.xlsx", ref)
}
