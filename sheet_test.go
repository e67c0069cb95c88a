package ssengine

import (
	"fmt"
	"testing"
)

// TestCoreValueTypes checks that numbers, strings, booleans, and empty cells
// round-trip through Set/Get and that formulas referencing them resolve to
// the right Go type.
func TestCoreValueTypes(t *testing.T) {
	NewSpreadsheetTestCase(t, "literal number").
		Set("Sheet1!A1", 42.5).
		AssertCellEq("Sheet1!A1", 42.5).
		End()

	NewSpreadsheetTestCase(t, "literal string").
		Set("Sheet1!A1", "inventory").
		AssertCellEq("Sheet1!A1", "inventory").
		End()

	NewSpreadsheetTestCase(t, "literal boolean").
		Set("Sheet1!A1", true).
		AssertCellEq("Sheet1!A1", true).
		End()

	NewSpreadsheetTestCase(t, "empty cell reads nil").
		AssertCellEmpty("Sheet1!Z99").
		End()

	NewSpreadsheetTestCase(t, "formula referencing a number").
		Set("Sheet1!A1", 10.0).
		Set("Sheet1!B1", "=A1").
		RunAndAssertNoError().
		AssertCellEq("Sheet1!B1", 10.0).
		End()
}

// TestArithmeticOperators drives every binary operator through a formula and
// checks both the happy path and the operator's error mode.
func TestArithmeticOperators(t *testing.T) {
	cases := []struct {
		name    string
		formula string
		want    float64
	}{
		{"addition", "=4+3", 7.0},
		{"subtraction", "=4-3", 1.0},
		{"multiplication", "=4*3", 12.0},
		{"division", "=9/4", 2.25},
		{"modulo", "=MOD(9,4)", 1.0},
		{"exponent", "=2^5", 32.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			NewSpreadsheetTestCase(t, tc.name).
				Set("Sheet1!A1", tc.formula).
				RunAndAssertNoError().
				AssertCellEq("Sheet1!A1", tc.want).
				End()
		})
	}

	t.Run("division by zero", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "div0").
			Set("Sheet1!A1", "=5/0").
			Run().
			AssertCellErr("Sheet1!A1", ErrorCodeDiv0).
			End()
	})
}

// TestComparisonOperators checks the six comparison operators against mixed
// numeric and text operands.
func TestComparisonOperators(t *testing.T) {
	cases := []struct {
		name    string
		formula string
		want    bool
	}{
		{"equal true", "=5=5", true},
		{"equal false", "=5=6", false},
		{"not equal", "=5<>6", true},
		{"less than", "=3<4", true},
		{"less or equal", "=4<=4", true},
		{"greater than", "=5>4", true},
		{"greater or equal", "=5>=5", true},
		{"text equality", `="abc"="abc"`, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			NewSpreadsheetTestCase(t, tc.name).
				Set("Sheet1!A1", tc.formula).
				RunAndAssertNoError().
				AssertCellEq("Sheet1!A1", tc.want).
				End()
		})
	}
}

// TestUnaryOperators checks unary minus, unary plus, and the postfix
// percent operator.
func TestUnaryOperators(t *testing.T) {
	NewSpreadsheetTestCase(t, "unary minus").
		Set("Sheet1!A1", 5.0).
		Set("Sheet1!B1", "=-A1").
		RunAndAssertNoError().
		AssertCellEq("Sheet1!B1", -5.0).
		End()

	NewSpreadsheetTestCase(t, "unary plus is a no-op").
		Set("Sheet1!A1", "=+7").
		RunAndAssertNoError().
		AssertCellEq("Sheet1!A1", 7.0).
		End()

	NewSpreadsheetTestCase(t, "postfix percent").
		Set("Sheet1!A1", "=50%").
		RunAndAssertNoError().
		AssertCellEq("Sheet1!A1", 0.5).
		End()
}

// TestCellAndRangeReferences checks single-cell references, ranges passed
// to an aggregate, and references to an unset (and therefore empty) cell.
func TestCellAndRangeReferences(t *testing.T) {
	NewSpreadsheetTestCase(t, "reference chain").
		Set("Sheet1!A1", 3.0).
		Set("Sheet1!A2", "=A1*2").
		Set("Sheet1!A3", "=A2*2").
		RunAndAssertNoError().
		AssertCellEq("Sheet1!A2", 6.0).
		AssertCellEq("Sheet1!A3", 12.0).
		End()

	NewSpreadsheetTestCase(t, "range sum").
		Set("Sheet1!A1", 1.0).
		Set("Sheet1!A2", 2.0).
		Set("Sheet1!A3", 3.0).
		Set("Sheet1!B1", "=SUM(A1:A3)").
		RunAndAssertNoError().
		AssertCellEq("Sheet1!B1", 6.0).
		End()

	NewSpreadsheetTestCase(t, "reference to unset cell reads as zero in SUM").
		Set("Sheet1!B1", "=SUM(A1:A3)").
		RunAndAssertNoError().
		AssertCellEq("Sheet1!B1", 0.0).
		End()
}

// TestWorksheetLifecycle exercises adding, renaming, and removing
// worksheets, and checks that removing the active sheet's only remaining
// reference surfaces as expected.
func TestWorksheetLifecycle(t *testing.T) {
	NewSpreadsheetTestCase(t, "add and check existence").
		AddWorksheet("Budget").
		AssertWorksheetExists("Budget", true).
		AssertWorksheetExists("Ledger", false).
		End()

	NewSpreadsheetTestCase(t, "rename worksheet").
		AddWorksheet("Draft").
		RenameWorksheet("Draft", "Final").
		AssertWorksheetExists("Draft", false).
		AssertWorksheetExists("Final", true).
		End()

	NewSpreadsheetTestCase(t, "remove worksheet").
		AddWorksheet("Scratch").
		RemoveWorksheet("Scratch").
		AssertWorksheetExists("Scratch", false).
		End()

	NewSpreadsheetTestCase(t, "duplicate worksheet name is rejected").
		AddWorksheet("Sheet1").
		ExpectAppError(AlreadyExists).
		End()
}

// TestNamedRangeLifecycle checks named range bookkeeping independent of
// whether a formula currently resolves through the name.
func TestNamedRangeLifecycle(t *testing.T) {
	NewSpreadsheetTestCase(t, "add and rename").
		AddNamedRange("TaxRate").
		AssertNamedRangeExists("TaxRate", true).
		RenameNamedRange("TaxRate", "VATRate").
		AssertNamedRangeExists("TaxRate", false).
		AssertNamedRangeExists("VATRate", true).
		End()

	NewSpreadsheetTestCase(t, "remove").
		AddNamedRange("Discount").
		RemoveNamedRange("Discount").
		AssertNamedRangeExists("Discount", false).
		End()

	NewSpreadsheetTestCase(t, "duplicate name is rejected").
		AddNamedRange("Shared").
		AddNamedRange("Shared").
		ExpectAppError(AlreadyExists).
		End()
}

// TestCrossWorksheetFormulas checks that a formula on one sheet can read a
// cell on another, including through a range spanning only one sheet.
func TestCrossWorksheetFormulas(t *testing.T) {
	NewSpreadsheetTestCase(t, "cross-sheet reference").
		AddWorksheet("Prices").
		Set("Prices!A1", 19.99).
		Set("Sheet1!A1", "=Prices!A1*2").
		RunAndAssertNoError().
		AssertCellEq("Sheet1!A1", 39.98).
		End()

	NewSpreadsheetTestCase(t, "cross-sheet range aggregate").
		AddWorksheet("Regional").
		Set("Regional!A1", 100.0).
		Set("Regional!A2", 200.0).
		Set("Sheet1!A1", "=SUM(Regional!A1:A2)").
		RunAndAssertNoError().
		AssertCellEq("Sheet1!A1", 300.0).
		End()
}

// TestDependencyDrivenRecalculation checks that editing a precedent cell
// ripples through to every dependent without the caller re-specifying the
// dependent formulas.
func TestDependencyDrivenRecalculation(t *testing.T) {
	tc := NewSpreadsheetTestCase(t, "ripple on edit").
		Set("Sheet1!A1", 10.0).
		Set("Sheet1!B1", "=A1+1").
		Set("Sheet1!C1", "=B1+1").
		RunAndAssertNoError().
		AssertCellEq("Sheet1!C1", 12.0)

	tc.Set("Sheet1!A1", 100.0).
		RunAndAssertNoError().
		AssertCellEq("Sheet1!B1", 101.0).
		AssertCellEq("Sheet1!C1", 102.0).
		End()
}

// expectCircularWriteRejected sets address to formula directly against the
// underlying Spreadsheet (bypassing the test-case builder, whose Set()
// treats any error as a test failure) and checks that the write is rejected
// at write-time with a CircularReference AppError rather than being
// accepted and only surfacing as a #REF! value after Calculate().
func expectCircularWriteRejected(t *testing.T, sheet *Spreadsheet, address, formula string) {
	t.Helper()
	err := sheet.Set(address, formula)
	appErr, ok := err.(*AppError)
	if !ok {
		t.Fatalf("Set(%s, %q) = %v, want an AppError", address, formula, err)
	}
	if appErr.Code != CircularReference {
		t.Fatalf("Set(%s, %q) error code = %v, want CircularReference", address, formula, appErr.Code)
	}
}

// TestCircularReferenceRejection checks that a write introducing a cycle -
// direct, indirect, or through a range - is rejected before it mutates
// anything, and that the workbook remains usable afterward.
func TestCircularReferenceRejection(t *testing.T) {
	t.Run("direct self-reference", func(t *testing.T) {
		sheet := NewSpreadsheet()
		if err := sheet.AddWorksheet("Sheet1"); err != nil {
			t.Fatalf("AddWorksheet: %v", err)
		}
		expectCircularWriteRejected(t, sheet, "Sheet1!A1", "=A1+1")
	})

	t.Run("indirect cycle", func(t *testing.T) {
		sheet := NewSpreadsheet()
		if err := sheet.AddWorksheet("Sheet1"); err != nil {
			t.Fatalf("AddWorksheet: %v", err)
		}
		if err := sheet.Set("Sheet1!B1", "=C1"); err != nil {
			t.Fatalf("Set B1: %v", err)
		}
		if err := sheet.Set("Sheet1!C1", "=A1"); err != nil {
			t.Fatalf("Set C1: %v", err)
		}
		expectCircularWriteRejected(t, sheet, "Sheet1!A1", "=B1")
	})

	t.Run("range includes the cell being written", func(t *testing.T) {
		sheet := NewSpreadsheet()
		if err := sheet.AddWorksheet("Sheet1"); err != nil {
			t.Fatalf("AddWorksheet: %v", err)
		}
		expectCircularWriteRejected(t, sheet, "Sheet1!A1", "=SUM(A1:A5)")
	})

	t.Run("range reaches back through an existing dependent", func(t *testing.T) {
		sheet := NewSpreadsheet()
		if err := sheet.AddWorksheet("Sheet1"); err != nil {
			t.Fatalf("AddWorksheet: %v", err)
		}
		if err := sheet.Set("Sheet1!B1", "=A1"); err != nil {
			t.Fatalf("Set B1: %v", err)
		}
		expectCircularWriteRejected(t, sheet, "Sheet1!A1", "=SUM(B1:B5)")
	})

	t.Run("workbook stays usable after a rejected write", func(t *testing.T) {
		sheet := NewSpreadsheet()
		if err := sheet.AddWorksheet("Sheet1"); err != nil {
			t.Fatalf("AddWorksheet: %v", err)
		}
		expectCircularWriteRejected(t, sheet, "Sheet1!A1", "=A1")

		if err := sheet.Set("Sheet1!B1", 5.0); err != nil {
			t.Fatalf("Set B1: %v", err)
		}
		if err := sheet.Set("Sheet1!C1", "=B1*2"); err != nil {
			t.Fatalf("Set C1: %v", err)
		}
		if err := sheet.Calculate(); err != nil {
			t.Fatalf("Calculate: %v", err)
		}
		got, err := sheet.Get("Sheet1!C1")
		if err != nil {
			t.Fatalf("Get C1: %v", err)
		}
		if got != 10.0 {
			t.Fatalf("C1 = %v, want 10.0", got)
		}
	})
}

// TestErrorPropagation checks that an error produced deep in a dependency
// chain surfaces unchanged at a cell several formulas away, the way a real
// spreadsheet propagates #DIV/0!, #VALUE!, and similar codes.
func TestErrorPropagation(t *testing.T) {
	NewSpreadsheetTestCase(t, "error propagates through arithmetic").
		Set("Sheet1!A1", "=1/0").
		Set("Sheet1!B1", "=A1+1").
		Set("Sheet1!C1", "=B1*2").
		Run().
		AssertCellErr("Sheet1!C1", ErrorCodeDiv0).
		End()

	NewSpreadsheetTestCase(t, "type mismatch yields VALUE error").
		Set("Sheet1!A1", "text").
		Set("Sheet1!B1", `="a"+1`).
		Run().
		AssertCellErr("Sheet1!B1", ErrorCodeValue).
		End()

	NewSpreadsheetTestCase(t, "unknown function yields NAME error").
		Set("Sheet1!A1", "=NOTAREALFUNCTION(1)").
		Run().
		AssertCellErr("Sheet1!A1", ErrorCodeName).
		End()

	NewSpreadsheetTestCase(t, "out of range lookup yields REF error").
		Set("Sheet1!A1", "=INDEX(A2:A2, 5)").
		Run().
		AssertCellErr("Sheet1!A1", ErrorCodeRef).
		End()
}

// TestComplexFormulas checks a handful of formulas combining nested function
// calls, conditionals and cross-references the way a real budget workbook
// would.
func TestComplexFormulas(t *testing.T) {
	NewSpreadsheetTestCase(t, "tiered discount").
		Set("Sheet1!A1", 120.0).
		Set("Sheet1!B1", `=IF(A1>100, A1*0.9, A1)`).
		RunAndAssertNoError().
		AssertCellEq("Sheet1!B1", 108.0).
		End()

	NewSpreadsheetTestCase(t, "nested aggregate plus lookup").
		Set("Sheet1!A1", 1.0).
		Set("Sheet1!A2", 2.0).
		Set("Sheet1!A3", 3.0).
		Set("Sheet1!B1", "=SUM(A1:A3)+MAX(A1:A3)").
		RunAndAssertNoError().
		AssertCellEq("Sheet1!B1", 9.0).
		End()

	NewSpreadsheetTestCase(t, "string building from numeric inputs").
		Set("Sheet1!A1", 3.0).
		Set("Sheet1!B1", `=CONCATENATE("Qty: ", TEXT(A1, "0"))`).
		RunAndAssertNoError().
		AssertCellEq("Sheet1!B1", "Qty: 3").
		End()
}

// TestEdgeCaseAddresses checks single-cell ranges, the last column/row of a
// wide range, and addresses that include a sheet-name anchor on both sides
// of a range.
func TestEdgeCaseAddresses(t *testing.T) {
	NewSpreadsheetTestCase(t, "single cell range behaves like a scalar").
		Set("Sheet1!A1", 42.0).
		Set("Sheet1!B1", "=SUM(A1:A1)").
		RunAndAssertNoError().
		AssertCellEq("Sheet1!B1", 42.0).
		End()

	NewSpreadsheetTestCase(t, "reversed range bounds are normalized").
		Set("Sheet1!A1", 5.0).
		Set("Sheet1!A2", 10.0).
		Set("Sheet1!B1", "=SUM(A2:A1)").
		RunAndAssertNoError().
		AssertCellEq("Sheet1!B1", 15.0).
		End()

	NewSpreadsheetTestCase(t, "wide range with sparse data").
		Set("Sheet1!A1", 1.0).
		Set("Sheet1!Z1", 1.0).
		Set("Sheet1!A2", "=SUM(A1:Z1)").
		RunAndAssertNoError().
		AssertCellEq("Sheet1!A2", 2.0).
		End()
}

// TestUnicodeContent checks that non-ASCII literals and identifiers survive
// parsing, storage, and string-function manipulation intact.
func TestUnicodeContent(t *testing.T) {
	NewSpreadsheetTestCase(t, "unicode literal round-trips").
		Set("Sheet1!A1", `="café résumé"`).
		RunAndAssertNoError().
		AssertCellEq("Sheet1!A1", "café résumé").
		End()

	NewSpreadsheetTestCase(t, "unicode through LEN counts runes, not bytes").
		Set("Sheet1!A1", `=LEN("日本語")`).
		RunAndAssertNoError().
		AssertCellEq("Sheet1!A1", 3.0).
		End()
}

// TestRemoveAndEmptyCellSemantics checks that Remove leaves a cell reading
// as empty, and that a dependent formula re-evaluates against that empty
// cell without erroring.
func TestRemoveAndEmptyCellSemantics(t *testing.T) {
	NewSpreadsheetTestCase(t, "remove clears a cell").
		Set("Sheet1!A1", 10.0).
		Remove("Sheet1!A1").
		AssertCellEmpty("Sheet1!A1").
		End()

	NewSpreadsheetTestCase(t, "dependent recalculates against a removed precedent").
		Set("Sheet1!A1", 10.0).
		Set("Sheet1!B1", "=SUM(A1:A1)").
		RunAndAssertNoError().
		AssertCellEq("Sheet1!B1", 10.0).
		Remove("Sheet1!A1").
		RunAndAssertNoError().
		AssertCellEq("Sheet1!B1", 0.0).
		End()
}

// TestVolatileFunctionsReturnPlausibleValues checks RAND/RANDBETWEEN/NOW/
// TODAY produce a value in the right ballpark without pinning an exact
// number, since their whole point is to vary between recalculations.
func TestVolatileFunctionsReturnPlausibleValues(t *testing.T) {
	NewSpreadsheetTestCase(t, "RAND is within [0, 1)").
		Set("Sheet1!A1", "=RAND()").
		RunAndAssertNoError().
		AssertCellFn("Sheet1!A1", func(value Primitive, t *testing.T) {
			f, ok := value.(float64)
			if !ok || f < 0 || f >= 1 {
				t.Errorf("RAND() = %v, want a float64 in [0, 1)", value)
			}
		}).
		End()

	NewSpreadsheetTestCase(t, "TODAY is a positive serial number").
		Set("Sheet1!A1", "=TODAY()").
		RunAndAssertNoError().
		AssertCellFn("Sheet1!A1", func(value Primitive, t *testing.T) {
			f, ok := value.(float64)
			if !ok || f <= 0 {
				t.Errorf("TODAY() = %v, want a positive float64 serial date", value)
			}
		}).
		End()
}

// TestLargeDependencyChainRecalculatesFully builds a long chain of formulas
// each depending on the last and checks that a single Calculate() call
// resolves every link, exercising the engine at a scale closer to a real
// workbook than a handful of cells.
func TestLargeDependencyChainRecalculatesFully(t *testing.T) {
	const chainLength = 200

	tc := NewSpreadsheetTestCase(t, "long chain")
	tc.Set("Sheet1!A1", 1.0)
	for i := 2; i <= chainLength; i++ {
		addr := fmt.Sprintf("Sheet1!A%d", i)
		prev := fmt.Sprintf("Sheet1!A%d", i-1)
		tc.Set(addr, "="+prev+"+1")
	}
	tc.RunAndAssertNoError()
	tc.AssertCellEq(fmt.Sprintf("Sheet1!A%d", chainLength), float64(chainLength))
	tc.End()
}

// TestGetCellSnapshot exercises spec's get_cell contract directly: raw
// input text, computed value, and formatted display text for a literal,
// a formula, a blank cell, and a cell whose computed value is stale.
func TestGetCellSnapshot(t *testing.T) {
	sheet := NewSpreadsheet()
	if err := sheet.AddWorksheet("Sheet1"); err != nil {
		t.Fatalf("AddWorksheet: %v", err)
	}

	if err := sheet.Set("Sheet1!A1", 1000000.0); err != nil {
		t.Fatalf("Set A1: %v", err)
	}
	if err := sheet.Set("Sheet1!B1", "=A1+1"); err != nil {
		t.Fatalf("Set B1: %v", err)
	}

	snap, err := sheet.GetCell("Sheet1!A1")
	if err != nil {
		t.Fatalf("GetCell A1: %v", err)
	}
	if snap.Raw != "1000000" {
		t.Errorf("A1 raw = %q, want %q", snap.Raw, "1000000")
	}
	if !snap.HasComputed || snap.Computed != 1000000.0 || snap.Formatted != "1000000" {
		t.Errorf("A1 snapshot = %+v, want computed 1000000 formatted \"1000000\"", snap)
	}

	snap, err = sheet.GetCell("Sheet1!B1")
	if err != nil {
		t.Fatalf("GetCell B1: %v", err)
	}
	if snap.Raw != "=A1+1" {
		t.Errorf("B1 raw = %q, want %q", snap.Raw, "=A1+1")
	}
	if !snap.HasComputed || snap.Computed != 1000001.0 || snap.Formatted != "1000001" {
		t.Errorf("B1 snapshot = %+v, want computed 1000001 formatted \"1000001\"", snap)
	}

	snap, err = sheet.GetCell("Sheet1!C1")
	if err != nil {
		t.Fatalf("GetCell C1: %v", err)
	}
	if snap.Raw != "" || snap.HasComputed {
		t.Errorf("blank C1 snapshot = %+v, want empty raw and no computed value", snap)
	}

	// A cell queued for recalculation but not yet visited must not expose
	// its previous (now stale) computed value.
	worksheetID, row, col, err := sheet.resolveAddress("Sheet1!B1")
	if err != nil {
		t.Fatalf("resolveAddress B1: %v", err)
	}
	sheet.storage.dependencyGraph.MarkDirty(CellAddress{WorksheetID: worksheetID, Row: row, Column: col})

	snap, err = sheet.GetCell("Sheet1!B1")
	if err != nil {
		t.Fatalf("GetCell dirty B1: %v", err)
	}
	if snap.HasComputed {
		t.Errorf("dirty B1 snapshot reported a computed value: %+v", snap)
	}
}
