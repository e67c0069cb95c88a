package ssengine

import "testing"

func TestDateFunctions(t *testing.T) {
	t.Run("DATE round-trips through YEAR MONTH DAY", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "DATE components").
			Set("Sheet1!A1", "=DATE(2024, 3, 15)").
			Set("Sheet1!B1", "=YEAR(A1)").
			Set("Sheet1!B2", "=MONTH(A1)").
			Set("Sheet1!B3", "=DAY(A1)").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!B1", 2024.0).
			AssertCellEq("Sheet1!B2", 3.0).
			AssertCellEq("Sheet1!B3", 15.0).
			End()
	})

	t.Run("WEEKDAY", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "known Monday").
			Set("Sheet1!A1", "=DATE(2024, 1, 1)").
			Set("Sheet1!B1", "=WEEKDAY(A1)").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!B1", 2.0).
			End()
	})

	t.Run("EDATE and EOMONTH", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "EDATE forward a month").
			Set("Sheet1!A1", "=DATE(2024, 1, 15)").
			Set("Sheet1!B1", "=EDATE(A1, 1)").
			Set("Sheet1!C1", "=MONTH(B1)").
			Set("Sheet1!C2", "=DAY(B1)").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!C1", 2.0).
			AssertCellEq("Sheet1!C2", 15.0).
			End()

		NewSpreadsheetTestCase(t, "EOMONTH current month").
			Set("Sheet1!A1", "=DATE(2024, 2, 10)").
			Set("Sheet1!B1", "=EOMONTH(A1, 0)").
			Set("Sheet1!C1", "=DAY(B1)").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!C1", 29.0).
			End()
	})

	t.Run("DATEDIF", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "DATEDIF years").
			Set("Sheet1!A1", "=DATE(2020, 6, 1)").
			Set("Sheet1!A2", "=DATE(2024, 5, 1)").
			Set("Sheet1!B1", `=DATEDIF(A1, A2, "Y")`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!B1", 3.0).
			End()

		NewSpreadsheetTestCase(t, "DATEDIF days").
			Set("Sheet1!A1", "=DATE(2024, 1, 1)").
			Set("Sheet1!A2", "=DATE(2024, 1, 11)").
			Set("Sheet1!B1", `=DATEDIF(A1, A2, "D")`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!B1", 10.0).
			End()
	})

	t.Run("NETWORKDAYS", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "one full work week").
			Set("Sheet1!A1", "=DATE(2024, 1, 1)").
			Set("Sheet1!A2", "=DATE(2024, 1, 5)").
			Set("Sheet1!B1", "=NETWORKDAYS(A1, A2)").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!B1", 5.0).
			End()
	})

	t.Run("WORKDAY", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "five workdays forward").
			Set("Sheet1!A1", "=DATE(2024, 1, 1)").
			Set("Sheet1!B1", "=WORKDAY(A1, 5)").
			Set("Sheet1!C1", "=DAY(B1)").
			Set("Sheet1!C2", "=MONTH(B1)").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!C1", 8.0).
			AssertCellEq("Sheet1!C2", 1.0).
			End()
	})

	t.Run("YEARFRAC", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "half year 30/360").
			Set("Sheet1!A1", "=DATE(2024, 1, 1)").
			Set("Sheet1!A2", "=DATE(2024, 7, 1)").
			Set("Sheet1!B1", "=YEARFRAC(A1, A2)").
			RunAndAssertNoError().
			AssertCellEq("Sheet1!B1", 0.5).
			End()
	})
}
