package ssengine

import "testing"

func TestLookupFunctions(t *testing.T) {
	t.Run("VLOOKUP exact match", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "VLOOKUP exact").
			Set("Sheet1!A1", "Apple").
			Set("Sheet1!B1", 1.0).
			Set("Sheet1!A2", "Banana").
			Set("Sheet1!B2", 2.0).
			Set("Sheet1!A3", "Cherry").
			Set("Sheet1!B3", 3.0).
			Set("Sheet1!D1", `=VLOOKUP("Banana", A1:B3, 2, FALSE)`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!D1", 2.0).
			End()

		NewSpreadsheetTestCase(t, "VLOOKUP not found").
			Set("Sheet1!A1", "Apple").
			Set("Sheet1!B1", 1.0).
			Set("Sheet1!D1", `=VLOOKUP("Mango", A1:B1, 2, FALSE)`).
			Run().
			AssertCellErr("Sheet1!D1", ErrorCodeNA).
			End()
	})

	t.Run("VLOOKUP approximate match", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "VLOOKUP approximate bracket").
			Set("Sheet1!A1", 0.0).
			Set("Sheet1!B1", "F").
			Set("Sheet1!A2", 60.0).
			Set("Sheet1!B2", "D").
			Set("Sheet1!A3", 90.0).
			Set("Sheet1!B3", "A").
			Set("Sheet1!D1", "=VLOOKUP(75, A1:B3, 2)").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!D1", "D").
			End()
	})

	t.Run("HLOOKUP", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "HLOOKUP exact").
			Set("Sheet1!A1", "Q1").
			Set("Sheet1!B1", "Q2").
			Set("Sheet1!A2", 100.0).
			Set("Sheet1!B2", 200.0).
			Set("Sheet1!D1", `=HLOOKUP("Q2", A1:B2, 2, FALSE)`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!D1", 200.0).
			End()
	})

	t.Run("INDEX", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "INDEX row and column").
			Set("Sheet1!A1", 1.0).
			Set("Sheet1!B1", 2.0).
			Set("Sheet1!A2", 3.0).
			Set("Sheet1!B2", 4.0).
			Set("Sheet1!D1", "=INDEX(A1:B2, 2, 2)").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!D1", 4.0).
			End()

		NewSpreadsheetTestCase(t, "INDEX single row").
			Set("Sheet1!A1", 10.0).
			Set("Sheet1!B1", 20.0).
			Set("Sheet1!C1", 30.0).
			Set("Sheet1!D1", "=INDEX(A1:C1, 2)").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!D1", 20.0).
			End()

		NewSpreadsheetTestCase(t, "INDEX out of range").
			Set("Sheet1!A1", 1.0).
			Set("Sheet1!D1", "=INDEX(A1:A1, 5)").
			Run().
			AssertCellErr("Sheet1!D1", ErrorCodeRef).
			End()
	})

	t.Run("MATCH", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "MATCH exact").
			Set("Sheet1!A1", "a").
			Set("Sheet1!A2", "b").
			Set("Sheet1!A3", "c").
			Set("Sheet1!D1", `=MATCH("b", A1:A3, 0)`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!D1", 2.0).
			End()

		NewSpreadsheetTestCase(t, "MATCH ascending bracket").
			Set("Sheet1!A1", 1.0).
			Set("Sheet1!A2", 3.0).
			Set("Sheet1!A3", 5.0).
			Set("Sheet1!D1", "=MATCH(4, A1:A3, 1)").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!D1", 2.0).
			End()
	})

	t.Run("CHOOSE", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "CHOOSE middle").
			Set("Sheet1!A1", `=CHOOSE(2, "x", "y", "z")`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", "y").
			End()

		NewSpreadsheetTestCase(t, "CHOOSE out of range").
			Set("Sheet1!A1", `=CHOOSE(5, "x", "y")`).
			Run().
			AssertCellErr("Sheet1!A1", ErrorCodeValue).
			End()
	})

	t.Run("XLOOKUP", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "XLOOKUP found").
			Set("Sheet1!A1", "a").
			Set("Sheet1!A2", "b").
			Set("Sheet1!B1", 10.0).
			Set("Sheet1!B2", 20.0).
			Set("Sheet1!D1", `=XLOOKUP("b", A1:A2, B1:B2)`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!D1", 20.0).
			End()

		NewSpreadsheetTestCase(t, "XLOOKUP fallback").
			Set("Sheet1!A1", "a").
			Set("Sheet1!B1", 10.0).
			Set("Sheet1!D1", `=XLOOKUP("z", A1:A1, B1:B1, "missing")`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!D1", "missing").
			End()
	})

	t.Run("XMATCH", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "XMATCH exact only").
			Set("Sheet1!A1", 5.0).
			Set("Sheet1!A2", 10.0).
			Set("Sheet1!A3", 15.0).
			Set("Sheet1!D1", "=XMATCH(10, A1:A3)").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!D1", 2.0).
			End()
	})
}
