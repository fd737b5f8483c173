package services

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// QuoteSheetName is the worksheet holding the detail table.
const QuoteSheetName = "Quotation"

var detailHeaders = []string{
	"SR NO", "DRG NO.", "ITEM", "QTY", "GRADE", "WT", "OH", "T.WT",
	"RATE", "LABOUR", "L/C", "PRIMER", "T.RATE", "AMOUNT",
}

// GenerateQuoteExcel writes the quotation detail table to an XLSX workbook.
// Rows 1-4 carry the letterhead and reference, the table header is row 6.
func GenerateQuoteExcel(data QuoteExportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), QuoteSheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	sheet := QuoteSheetName
	lastCol, _ := excelize.ColumnNumberToName(len(detailHeaders))

	widths := []float64{7, 16, 28, 7, 10, 9, 9, 10, 9, 9, 9, 9, 10, 14}
	for i, w := range widths {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, name, name, w); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", name, err)
		}
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 10},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	drawingStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 10},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#EDEDED"}, Pattern: 1},
		Border: thinBorders(),
		NumFmt: 2,
	})
	if err != nil {
		return nil, fmt.Errorf("create drawing style: %w", err)
	}
	partStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Border: thinBorders(),
		NumFmt: 2,
	})
	if err != nil {
		return nil, fmt.Errorf("create part style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Border: thinBorders(),
		NumFmt: 2,
	})
	if err != nil {
		return nil, fmt.Errorf("create total style: %w", err)
	}

	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheet, "A1", sanitizeExcelCell(data.Letterhead.CompanyName))
	f.SetCellStyle(sheet, "A1", lastCol+"1", titleStyle)
	f.SetCellValue(sheet, "A2", "Ref: "+sanitizeExcelCell(data.Ref))
	f.SetCellValue(sheet, "A3", "Date: "+data.Date)
	f.SetCellValue(sheet, "A4", "Customer: "+sanitizeExcelCell(data.CustomerName))

	const headerRow = 6
	for i, h := range detailHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(sheet, cell, h)
	}
	f.SetCellStyle(sheet, "A6", fmt.Sprintf("%s%d", lastCol, headerRow), headerStyle)

	r := headerRow + 1
	for _, er := range data.Rows {
		values := []any{
			er.SrNo, sanitizeExcelCell(er.DrawingNo), sanitizeExcelCell(er.Item),
			sanitizeExcelCell(er.Qty), sanitizeExcelCell(er.Grade),
		}
		if er.Drawing {
			values = append(values, "", "", round2(er.TotalWeight), "", "", "", "", round2(er.TotalRate), round2(er.Amount))
		} else {
			values = append(values,
				round2(er.Weight), round2(er.Overhead), round2(er.TotalWeight),
				round2(er.Rate), round2(er.Labour), round2(er.LaserCut), round2(er.Primer),
				round2(er.TotalRate), round2(er.Amount))
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", r), &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r, err)
		}
		style := partStyle
		if er.Drawing {
			style = drawingStyle
		}
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", r), fmt.Sprintf("%s%d", lastCol, r), style)
		r++
	}

	total := []any{"", "", "TOTAL", "", "", "", "", round2(data.TotalWeight), "", "", "", "", round2(data.AvgRate), round2(data.TotalAmount)}
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", r), &total); err != nil {
		return nil, fmt.Errorf("write totals: %w", err)
	}
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", r), fmt.Sprintf("%s%d", lastCol, r), totalStyle)
	f.SetCellValue(sheet, fmt.Sprintf("A%d", r+2), data.AmountInWords)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// sanitizeExcelCell prefixes values Excel would evaluate as formulas.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
