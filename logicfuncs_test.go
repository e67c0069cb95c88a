package ssengine

import "testing"

func TestErrorHandlingFunctions(t *testing.T) {
	t.Run("IFERROR", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "IFERROR catches div0").
			Set("Sheet1!A1", `=IFERROR(1/0, "fallback")`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", "fallback").
			End()

		NewSpreadsheetTestCase(t, "IFERROR passes through value").
			Set("Sheet1!A1", `=IFERROR(5, "fallback")`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", 5.0).
			End()
	})

	t.Run("IFNA", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "IFNA catches NA only").
			Set("Sheet1!A1", `=IFNA(NA(), "missing")`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", "missing").
			End()

		NewSpreadsheetTestCase(t, "IFNA does not catch div0").
			Set("Sheet1!A1", `=IFNA(1/0, "missing")`).
			Run().
			AssertCellErr("Sheet1!A1", ErrorCodeDiv0).
			End()
	})

	t.Run("IFS", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "IFS first true wins").
			Set("Sheet1!A1", `=IFS(FALSE, "a", TRUE, "b", TRUE, "c")`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", "b").
			End()

		NewSpreadsheetTestCase(t, "IFS no true condition is NA").
			Set("Sheet1!A1", `=IFS(FALSE, "a", FALSE, "b")`).
			Run().
			AssertCellErr("Sheet1!A1", ErrorCodeNA).
			End()
	})

	t.Run("ISBLANK", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "ISBLANK on empty cell").
			Set("Sheet1!A2", "=ISBLANK(A1)").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A2", true).
			End()

		NewSpreadsheetTestCase(t, "ISBLANK on populated cell").
			Set("Sheet1!A1", 1.0).
			Set("Sheet1!A2", "=ISBLANK(A1)").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A2", false).
			End()
	})

	t.Run("ISERROR ISERR ISNA", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "ISERROR on div0").
			Set("Sheet1!A1", "=ISERROR(1/0)").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", true).
			End()

		NewSpreadsheetTestCase(t, "ISERR excludes NA").
			Set("Sheet1!A1", "=ISERR(NA())").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", false).
			End()

		NewSpreadsheetTestCase(t, "ISNA on NA").
			Set("Sheet1!A1", "=ISNA(NA())").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", true).
			End()

		NewSpreadsheetTestCase(t, "ISNA on div0 is false").
			Set("Sheet1!A1", "=ISNA(1/0)").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", false).
			End()
	})

	t.Run("ISNUMBER ISTEXT", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "ISNUMBER true").
			Set("Sheet1!A1", "=ISNUMBER(5)").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", true).
			End()

		NewSpreadsheetTestCase(t, "ISTEXT true").
			Set("Sheet1!A1", `=ISTEXT("hi")`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", true).
			End()

		NewSpreadsheetTestCase(t, "ISTEXT on number is false").
			Set("Sheet1!A1", "=ISTEXT(5)").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", false).
			End()
	})

	t.Run("ERROR.TYPE", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "ERROR.TYPE of div0").
			Set(`Sheet1!A1`, `=ERROR.TYPE(1/0)`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", float64(ErrorCodeDiv0)).
			End()

		NewSpreadsheetTestCase(t, "ERROR.TYPE on non-error is NA").
			Set(`Sheet1!A1`, `=ERROR.TYPE(5)`).
			Run().
			AssertCellErr("Sheet1!A1", ErrorCodeNA).
			End()
	})
}
