package ssengine

import "testing"

func TestConditionalAggregateFunctions(t *testing.T) {
	t.Run("SUMIF", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "SUMIF operator criterion").
			Set("Sheet1!A1", 5.0).
			Set("Sheet1!A2", 15.0).
			Set("Sheet1!A3", 25.0).
			Set("Sheet1!D1", "=SUMIF(A1:A3, \">10\")").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!D1", 40.0).
			End()

		NewSpreadsheetTestCase(t, "SUMIF separate sum range").
			Set("Sheet1!A1", "red").
			Set("Sheet1!B1", 10.0).
			Set("Sheet1!A2", "blue").
			Set("Sheet1!B2", 20.0).
			Set("Sheet1!A3", "red").
			Set("Sheet1!B3", 30.0).
			Set("Sheet1!D1", `=SUMIF(A1:A3, "red", B1:B3)`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!D1", 40.0).
			End()
	})

	t.Run("SUMIFS", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "SUMIFS two criteria").
			Set("Sheet1!A1", "red").
			Set("Sheet1!B1", 10.0).
			Set("Sheet1!C1", 1.0).
			Set("Sheet1!A2", "red").
			Set("Sheet1!B2", 20.0).
			Set("Sheet1!C2", 2.0).
			Set("Sheet1!A3", "blue").
			Set("Sheet1!B3", 30.0).
			Set("Sheet1!C3", 1.0).
			Set("Sheet1!D1", `=SUMIFS(B1:B3, A1:A3, "red", C1:C3, 1)`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!D1", 10.0).
			End()
	})

	t.Run("COUNTIF and COUNTIFS", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "COUNTIF threshold").
			Set("Sheet1!A1", 5.0).
			Set("Sheet1!A2", 15.0).
			Set("Sheet1!A3", 25.0).
			Set("Sheet1!D1", "=COUNTIF(A1:A3, \">=15\")").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!D1", 2.0).
			End()

		NewSpreadsheetTestCase(t, "COUNTIFS two criteria").
			Set("Sheet1!A1", "red").
			Set("Sheet1!B1", 10.0).
			Set("Sheet1!A2", "red").
			Set("Sheet1!B2", 20.0).
			Set("Sheet1!A3", "blue").
			Set("Sheet1!B3", 20.0).
			Set("Sheet1!D1", `=COUNTIFS(A1:A3, "red", B1:B3, 20)`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!D1", 1.0).
			End()
	})

	t.Run("AVERAGEIF and AVERAGEIFS", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "AVERAGEIF").
			Set("Sheet1!A1", 10.0).
			Set("Sheet1!A2", 20.0).
			Set("Sheet1!A3", 30.0).
			Set("Sheet1!D1", "=AVERAGEIF(A1:A3, \">10\")").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!D1", 25.0).
			End()

		NewSpreadsheetTestCase(t, "AVERAGEIF no matches is div0").
			Set("Sheet1!A1", 1.0).
			Set("Sheet1!D1", "=AVERAGEIF(A1:A1, \">100\")").
			Run().
			AssertCellErr("Sheet1!D1", ErrorCodeDiv0).
			End()

		NewSpreadsheetTestCase(t, "AVERAGEIFS two criteria").
			Set("Sheet1!A1", "red").
			Set("Sheet1!B1", 10.0).
			Set("Sheet1!A2", "red").
			Set("Sheet1!B2", 20.0).
			Set("Sheet1!A3", "blue").
			Set("Sheet1!B3", 50.0).
			Set("Sheet1!D1", `=AVERAGEIFS(B1:B3, A1:A3, "red")`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!D1", 15.0).
			End()
	})

	t.Run("SUMPRODUCT", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "SUMPRODUCT dot product").
			Set("Sheet1!A1", 2.0).
			Set("Sheet1!A2", 3.0).
			Set("Sheet1!B1", 4.0).
			Set("Sheet1!B2", 5.0).
			Set("Sheet1!D1", "=SUMPRODUCT(A1:A2, B1:B2)").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!D1", 23.0).
			End()

		NewSpreadsheetTestCase(t, "SUMPRODUCT mismatched size").
			Set("Sheet1!A1", 1.0).
			Set("Sheet1!A2", 2.0).
			Set("Sheet1!B1", 1.0).
			Set("Sheet1!D1", "=SUMPRODUCT(A1:A2, B1:B1)").
			Run().
			AssertCellErr("Sheet1!D1", ErrorCodeValue).
			End()
	})
}
