package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
)

func TestParseCSV_HeaderOnly(t *testing.T) {
	_, _, err := parseCSV(strings.NewReader("Drawing No,Part Name\n"))
	if err == nil || !strings.Contains(err.Error(), "at least one data row") {
		t.Errorf("parseCSV() error = %v", err)
	}
	if _, _, err := parseCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty file")
	}
}

func TestMapHeaders(t *testing.T) {
	headers := []string{"Drawing No *", " part name ", "rate", "Colour"}
	mapped, unknown := mapHeaders(headers, PartsTemplateFields())
	if diff := cmp.Diff([]string{"drawing_number", "part_name", "rate", ""}, mapped); diff != "" {
		t.Errorf("mapped (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Colour"}, unknown); diff != "" {
		t.Errorf("unknown (-want +got):\n%s", diff)
	}
}

func TestParsePartsFile_CSV(t *testing.T) {
	input := strings.Join([]string{
		"Drawing No *,Drawing Qty,Part Name *,Weight,Overhead,Rate",
		"DRG-1,2,A,10,0,10",
		"DRG-2,1,C,4,,1",
		"DRG-1,,B,20,5,2",
		",1,D,1,1,1",
		"DRG-3,1,E,heavy,0,1",
	}, "\n")

	res, err := ParsePartsFile(strings.NewReader(input), "parts.CSV")
	if err != nil {
		t.Fatalf("ParsePartsFile() error = %v", err)
	}
	if res.TotalRows != 5 || res.ValidRows != 3 || res.ErrorRows != 2 {
		t.Errorf("counts = %d/%d/%d, want 5/3/2", res.TotalRows, res.ValidRows, res.ErrorRows)
	}

	wantErrs := []ImportRowError{
		{Row: 5, Field: "Drawing No", Message: "Drawing No is required"},
		{Row: 6, Field: "Weight", Message: "Weight must be a number"},
	}
	if diff := cmp.Diff(wantErrs, res.Errors); diff != "" {
		t.Errorf("errors (-want +got):\n%s", diff)
	}

	if len(res.Drawings) != 2 || res.Drawings[0].Number != "DRG-1" || res.Drawings[1].Number != "DRG-2" {
		t.Fatalf("drawings = %+v", res.Drawings)
	}
	d := res.Drawings[0]
	if d.Quantity != "2" || len(d.Parts) != 2 || d.Parts[1].Name != "B" {
		t.Errorf("DRG-1 = %+v", d)
	}
	if got := CalcDrawingTotals(d.Parts).TotalAmount; !floatClose(got, 210) {
		t.Errorf("DRG-1 amount = %v, want 210", got)
	}
}

func TestParsePartsFile_Unsupported(t *testing.T) {
	_, err := ParsePartsFile(strings.NewReader("x"), "parts.pdf")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestGeneratePartsTemplate_RoundTrip(t *testing.T) {
	tmpl, err := GeneratePartsTemplate()
	if err != nil {
		t.Fatalf("GeneratePartsTemplate() error = %v", err)
	}

	f, err := excelize.OpenReader(bytesReader(tmpl))
	if err != nil {
		t.Fatalf("template is not valid Excel: %v", err)
	}
	a1, _ := f.GetCellValue("Parts", "A1")
	if a1 != "Drawing No *" {
		t.Errorf("A1 = %q", a1)
	}
	visible, _ := f.GetSheetVisible("Instructions")
	if visible {
		t.Error("Instructions sheet should be hidden")
	}

	row := []any{"DRG-9", "1", "X", "MS", "E250", "3", "5", "1", "4"}
	f.SetSheetRow("Parts", "A2", &row)
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	f.Close()

	res, err := ParsePartsFile(bytesReader(buf.Bytes()), "filled.xlsx")
	if err != nil {
		t.Fatalf("ParsePartsFile() error = %v", err)
	}
	if res.ValidRows != 1 || len(res.Drawings) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if p := res.Drawings[0].Parts[0]; p.EffectiveWeight() != 6 || p.Rate != "4" {
		t.Errorf("part = %+v", p)
	}
}

func TestGenerateImportErrorReport(t *testing.T) {
	out, err := GenerateImportErrorReport([]ImportRowError{{Row: 3, Field: "Rate", Message: "Rate must be a number"}})
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(bytesReader(out))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, _ := f.GetCellValue("Errors", "C2")
	if got != "Rate must be a number" {
		t.Errorf("C2 = %q", got)
	}
}
