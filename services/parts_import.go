package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for uploads that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file format: must be .csv or .xlsx")

// TemplateField describes one column of the parts import sheet.
type TemplateField struct {
	Key          string // part/drawing attribute
	Label        string // header shown in Excel
	Description  string
	ExampleValue string
	Required     bool
	Numeric      bool
}

// PartsTemplateFields returns the ordered columns of the parts sheet.
func PartsTemplateFields() []TemplateField {
	return []TemplateField{
		{Key: "drawing_number", Label: "Drawing No", Description: "Drawing the part belongs to", ExampleValue: "DRG-101", Required: true},
		{Key: "drawing_quantity", Label: "Drawing Qty", Description: "Sets ordered of the drawing", ExampleValue: "2"},
		{Key: "part_name", Label: "Part Name", Description: "Part number, matched against the material catalog", ExampleValue: "BRK-01", Required: true},
		{Key: "material", Label: "Material", Description: "Blank uses the catalog material", ExampleValue: "MS"},
		{Key: "grade", Label: "Grade", ExampleValue: "E250"},
		{Key: "quantity", Label: "Qty", ExampleValue: "4"},
		{Key: "weight", Label: "Weight", Description: "Raw weight in kg", ExampleValue: "10.5", Numeric: true},
		{Key: "overhead", Label: "Overhead", Description: "Extra weight in kg", ExampleValue: "0.5", Numeric: true},
		{Key: "rate", Label: "Rate", Description: "Material rate per kg", ExampleValue: "85", Numeric: true},
		{Key: "labour", Label: "Labour", Description: "Labour cost per kg", ExampleValue: "12", Numeric: true},
		{Key: "laser_cut", Label: "Laser Cut", Description: "Laser cutting cost per kg", ExampleValue: "6", Numeric: true},
		{Key: "primer", Label: "Primer", Description: "Primer cost per kg", ExampleValue: "3", Numeric: true},
	}
}

// ImportRowError is a single field-level problem on one sheet row.
type ImportRowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// PartsImport is the result of parsing an uploaded parts sheet. Drawings
// holds only rows without errors, grouped in first-seen order.
type PartsImport struct {
	FileName  string           `json:"fileName"`
	TotalRows int              `json:"totalRows"`
	ValidRows int              `json:"validRows"`
	ErrorRows int              `json:"errorRows"`
	Errors    []ImportRowError `json:"errors"`
	Drawings  []Drawing        `json:"drawings"`
}

func parseCSV(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return rows[0], rows[1:], nil
}

func parseExcel(r io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open excel: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return rows[0], rows[1:], nil
}

// mapHeaders maps uploaded headers to field keys by label, ignoring case
// and the " *" required marker. Unknown columns map to "".
func mapHeaders(headers []string, fields []TemplateField) ([]string, []string) {
	byLabel := make(map[string]string, len(fields))
	for _, f := range fields {
		byLabel[strings.ToLower(f.Label)] = f.Key
		byLabel[f.Key] = f.Key
	}

	mapped := make([]string, len(headers))
	var unknown []string
	for i, h := range headers {
		norm := strings.TrimSpace(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(h)), " *"))
		if key, ok := byLabel[norm]; ok {
			mapped[i] = key
		} else {
			unknown = append(unknown, h)
		}
	}
	return mapped, unknown
}

// ParsePartsFile reads a CSV or XLSX parts sheet and validates each row.
func ParsePartsFile(r io.Reader, fileName string) (*PartsImport, error) {
	var (
		headers []string
		rows    [][]string
		err     error
	)
	switch lower := strings.ToLower(fileName); {
	case strings.HasSuffix(lower, ".csv"):
		headers, rows, err = parseCSV(r)
	case strings.HasSuffix(lower, ".xlsx"):
		headers, rows, err = parseExcel(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	fields := PartsTemplateFields()
	keys, _ := mapHeaders(headers, fields)

	res := &PartsImport{FileName: fileName, TotalRows: len(rows)}
	index := map[string]int{}

	for i, row := range rows {
		rowNum := i + 2
		data := make(map[string]string, len(fields))
		for col, key := range keys {
			if key != "" && col < len(row) {
				data[key] = strings.TrimSpace(row[col])
			}
		}

		var rowErrs []ImportRowError
		for _, f := range fields {
			v := data[f.Key]
			if f.Required && v == "" {
				rowErrs = append(rowErrs, ImportRowError{Row: rowNum, Field: f.Label, Message: f.Label + " is required"})
				continue
			}
			if f.Numeric && v != "" {
				if _, err := cast.ToFloat64E(v); err != nil {
					rowErrs = append(rowErrs, ImportRowError{Row: rowNum, Field: f.Label, Message: f.Label + " must be a number"})
				}
			}
		}
		if len(rowErrs) > 0 {
			res.Errors = append(res.Errors, rowErrs...)
			res.ErrorRows++
			continue
		}

		number := data["drawing_number"]
		pos, ok := index[number]
		if !ok {
			pos = len(res.Drawings)
			index[number] = pos
			res.Drawings = append(res.Drawings, Drawing{Number: number})
		}
		if d := &res.Drawings[pos]; d.Quantity == "" {
			d.Quantity = data["drawing_quantity"]
		}
		res.Drawings[pos].Parts = append(res.Drawings[pos].Parts, Part{
			Name:     data["part_name"],
			Material: data["material"],
			Grade:    data["grade"],
			Quantity: data["quantity"],
			Weight:   data["weight"],
			Overhead: data["overhead"],
			Rate:     data["rate"],
			Labour:   data["labour"],
			LaserCut: data["laser_cut"],
			Primer:   data["primer"],
		})
		res.ValidRows++
	}
	return res, nil
}

// GeneratePartsTemplate builds the downloadable XLSX parts sheet with a
// hidden Instructions sheet.
func GeneratePartsTemplate() ([]byte, error) {
	fields := PartsTemplateFields()

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Parts"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1D4ED8"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	})
	optionalStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#6B7280"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	})

	for i, field := range fields {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		label, style := field.Label, optionalStyle
		if field.Required {
			label, style = label+" *", requiredStyle
		}
		f.SetCellValue(sheet, cell, label)
		f.SetCellStyle(sheet, cell, cell, style)
		f.SetColWidth(sheet, col, col, max(float64(len(field.Label))*1.3, 14))
	}

	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	addInstructionsSheet(f, fields)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write parts template: %w", err)
	}
	return buf.Bytes(), nil
}

func addInstructionsSheet(f *excelize.File, fields []TemplateField) {
	const sheet = "Instructions"
	f.NewSheet(sheet)

	titleStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E5E7EB"}, Pattern: 1},
	})

	f.SetCellValue(sheet, "A1", "Parts Import - Instructions")
	f.SetCellStyle(sheet, "A1", "A1", titleStyle)

	header := []any{"Column", "Required?", "Description", "Example"}
	f.SetSheetRow(sheet, "A3", &header)
	f.SetCellStyle(sheet, "A3", "D3", headerStyle)

	for i, field := range fields {
		req := "Optional"
		if field.Required {
			req = "Required"
		}
		desc := field.Description
		if field.Numeric {
			desc = strings.TrimSpace(desc + " (number)")
		}
		row := []any{field.Label, req, desc, field.ExampleValue}
		cell, _ := excelize.CoordinatesToCellName(1, i+4)
		f.SetSheetRow(sheet, cell, &row)
	}
	for col, w := range map[string]float64{"A": 16, "B": 12, "C": 48, "D": 16} {
		f.SetColWidth(sheet, col, col, w)
	}
	f.SetSheetVisible(sheet, false)
}

// GenerateImportErrorReport lists row errors as a downloadable XLSX.
func GenerateImportErrorReport(errs []ImportRowError) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Errors"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DC2626"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})
	header := []any{"Row #", "Field", "Error"}
	f.SetSheetRow(sheet, "A1", &header)
	f.SetCellStyle(sheet, "A1", "C1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 22)
	f.SetColWidth(sheet, "C", "C", 55)

	for i, e := range errs {
		row := []any{e.Row, e.Field, e.Message}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		f.SetSheetRow(sheet, cell, &row)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write error report: %w", err)
	}
	return buf.Bytes(), nil
}
