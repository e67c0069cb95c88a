package ssengine

import "testing"

func TestStringFunctions(t *testing.T) {
	t.Run("LEFT", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "LEFT default").
			Set("Sheet1!A1", `=LEFT("Hello")`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", "H").
			End()

		NewSpreadsheetTestCase(t, "LEFT with count").
			Set("Sheet1!A1", `=LEFT("Hello", 3)`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", "Hel").
			End()

		NewSpreadsheetTestCase(t, "LEFT count beyond length").
			Set("Sheet1!A1", `=LEFT("Hi", 10)`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", "Hi").
			End()
	})

	t.Run("RIGHT", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "RIGHT with count").
			Set("Sheet1!A1", `=RIGHT("Hello", 2)`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", "lo").
			End()
	})

	t.Run("MID", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "MID middle").
			Set("Sheet1!A1", `=MID("Spreadsheet", 7, 5)`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", "sheet").
			End()

		NewSpreadsheetTestCase(t, "MID start past end").
			Set("Sheet1!A1", `=MID("abc", 10, 2)`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", "").
			End()
	})

	t.Run("SUBSTITUTE", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "SUBSTITUTE all").
			Set("Sheet1!A1", `=SUBSTITUTE("a-b-c", "-", "/")`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", "a/b/c").
			End()

		NewSpreadsheetTestCase(t, "SUBSTITUTE one instance").
			Set("Sheet1!A1", `=SUBSTITUTE("a-b-c", "-", "/", 2)`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", "a-b/c").
			End()
	})

	t.Run("FIND", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "FIND basic").
			Set("Sheet1!A1", `=FIND("b", "abc")`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", 2.0).
			End()

		NewSpreadsheetTestCase(t, "FIND not found").
			Set("Sheet1!A1", `=FIND("z", "abc")`).
			Run().
			AssertCellErr("Sheet1!A1", ErrorCodeValue).
			End()

		NewSpreadsheetTestCase(t, "FIND case sensitive").
			Set("Sheet1!A1", `=FIND("B", "abc")`).
			Run().
			AssertCellErr("Sheet1!A1", ErrorCodeValue).
			End()
	})

	t.Run("TEXT", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "TEXT two decimals").
			Set("Sheet1!A1", `=TEXT(3.14159, "0.00")`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", "3.14").
			End()

		NewSpreadsheetTestCase(t, "TEXT integer format").
			Set("Sheet1!A1", `=TEXT(3.7, "0")`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!A1", "4").
			End()
	})

	t.Run("TEXTJOIN", func(t *testing.T) {
		NewSpreadsheetTestCase(t, "TEXTJOIN skip empty").
			Set("Sheet1!A1", "a").
			Set("Sheet1!A2", "").
			Set("Sheet1!A3", "c").
			Set("Sheet1!B1", `=TEXTJOIN(",", TRUE, A1:A3)`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!B1", "a,c").
			End()

		NewSpreadsheetTestCase(t, "TEXTJOIN keep empty").
			Set("Sheet1!A1", "a").
			Set("Sheet1!A2", "").
			Set("Sheet1!B1", `=TEXTJOIN("-", FALSE, A1:A2)`).
			RunAndAssertNoError().
			AssertCellEq("Sheet1!B1", "a-").
			End()
	})
}
