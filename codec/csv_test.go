package codec

import (
	"strings"
	"testing"

	"github.com/nachocheesedog/ssengine"
)

func TestImportExportCSVRoundTrip(t *testing.T) {
	sheet := ssengine.NewSafe()
	if err := sheet.AddWorksheet("Data"); err != nil {
		t.Fatalf("AddWorksheet: %v", err)
	}
	if err := sheet.SetActiveSheet("Data"); err != nil {
		t.Fatalf("SetActiveSheet: %v", err)
	}

	input := "1,2,3\n4,5,6\n"
	if err := ImportCSV(sheet, "Data", strings.NewReader(input)); err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}

	var out strings.Builder
	if err := ExportCSV(sheet, "Data", &out); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	want := "1,2,3\n4,5,6\n"
	if out.String() != want {
		t.Errorf("ExportCSV = %q, want %q", out.String(), want)
	}
}

func TestImportCSVWithFormula(t *testing.T) {
	sheet := ssengine.NewSafe()
	if err := sheet.AddWorksheet("Sheet1"); err != nil {
		t.Fatalf("AddWorksheet: %v", err)
	}
	if err := sheet.SetActiveSheet("Sheet1"); err != nil {
		t.Fatalf("SetActiveSheet: %v", err)
	}

	input := "2,3,=A1+B1\n"
	if err := ImportCSV(sheet, "Sheet1", strings.NewReader(input)); err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}

	value, err := sheet.Get("Sheet1!C1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if value != 5.0 {
		t.Errorf("C1 = %v, want 5", value)
	}

	var out strings.Builder
	if err := ExportCSV(sheet, "Sheet1", &out); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if out.String() != "2,3,5\n" {
		t.Errorf("ExportCSV = %q, want %q", out.String(), "2,3,5\n")
	}
}

func TestExportCSVEmptySheet(t *testing.T) {
	sheet := ssengine.NewSafe()
	if err := sheet.AddWorksheet("Empty"); err != nil {
		t.Fatalf("AddWorksheet: %v", err)
	}

	var out strings.Builder
	if err := ExportCSV(sheet, "Empty", &out); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if out.String() != "" {
		t.Errorf("ExportCSV of empty sheet = %q, want empty", out.String())
	}
}

func TestXLSXUnsupported(t *testing.T) {
	sheet := ssengine.NewSafe()
	if err := XLSX.Import(sheet, strings.NewReader("")); err != ErrXLSXUnsupported {
		t.Errorf("Import err = %v, want ErrXLSXUnsupported", err)
	}
	var out strings.Builder
	if err := XLSX.Export(sheet, &out); err != ErrXLSXUnsupported {
		t.Errorf("Export err = %v, want ErrXLSXUnsupported", err)
	}
}
