package ssengine

import (
	"math"
	"testing"
)

// SpreadsheetTestCase is a small fluent builder shared by every _test.go
// file in this package: chain Set/Run/Assert* calls, and the first failure
// short-circuits the rest of the chain so a single Errorf pinpoints the
// actual mistake instead of cascading into unrelated follow-on failures.
type SpreadsheetTestCase struct {
	t           *testing.T
	name        string
	spreadsheet *Spreadsheet
	err         error
	skipped     bool
}

func NewSpreadsheetTestCase(t *testing.T, name string) *SpreadsheetTestCase {
	tc := &SpreadsheetTestCase{
		t:           t,
		name:        name,
		spreadsheet: NewSpreadsheet(),
	}
	return tc.AddWorksheet("Sheet1")
}

func (tc *SpreadsheetTestCase) Skip(reason string) *SpreadsheetTestCase {
	if !tc.skipped {
		tc.t.Skipf("%s: %s", tc.name, reason)
		tc.skipped = true
	}
	return tc
}

func (tc *SpreadsheetTestCase) Set(address string, value Primitive) *SpreadsheetTestCase {
	if tc.skipped || tc.err != nil {
		return tc
	}
	if err := tc.spreadsheet.Set(address, value); err != nil {
		tc.err = err
		tc.t.Errorf("%s: Set(%s) failed: %v", tc.name, address, err)
	}
	return tc
}

func (tc *SpreadsheetTestCase) Remove(address string) *SpreadsheetTestCase {
	if tc.skipped || tc.err != nil {
		return tc
	}
	if err := tc.spreadsheet.Remove(address); err != nil {
		tc.err = err
		tc.t.Errorf("%s: Remove(%s) failed: %v", tc.name, address, err)
	}
	return tc
}

func (tc *SpreadsheetTestCase) AddWorksheet(name string) *SpreadsheetTestCase {
	if tc.skipped || tc.err != nil {
		return tc
	}
	tc.err = tc.spreadsheet.AddWorksheet(name)
	return tc
}

func (tc *SpreadsheetTestCase) RemoveWorksheet(name string) *SpreadsheetTestCase {
	if tc.skipped || tc.err != nil {
		return tc
	}
	tc.err = tc.spreadsheet.RemoveWorksheet(name)
	return tc
}

func (tc *SpreadsheetTestCase) RenameWorksheet(oldName, newName string) *SpreadsheetTestCase {
	if tc.skipped || tc.err != nil {
		return tc
	}
	tc.err = tc.spreadsheet.RenameWorksheet(oldName, newName)
	return tc
}

func (tc *SpreadsheetTestCase) AddNamedRange(name string) *SpreadsheetTestCase {
	if tc.skipped || tc.err != nil {
		return tc
	}
	tc.err = tc.spreadsheet.AddNamedRange(name)
	return tc
}

func (tc *SpreadsheetTestCase) RemoveNamedRange(name string) *SpreadsheetTestCase {
	if tc.skipped || tc.err != nil {
		return tc
	}
	tc.err = tc.spreadsheet.RemoveNamedRange(name)
	return tc
}

func (tc *SpreadsheetTestCase) RenameNamedRange(oldName, newName string) *SpreadsheetTestCase {
	if tc.skipped || tc.err != nil {
		return tc
	}
	tc.err = tc.spreadsheet.RenameNamedRange(oldName, newName)
	return tc
}

func (tc *SpreadsheetTestCase) Run() *SpreadsheetTestCase {
	if tc.skipped || tc.err != nil {
		return tc
	}
	if err := tc.spreadsheet.Calculate(); err != nil {
		tc.err = err
		tc.t.Errorf("%s: Calculate() failed: %v", tc.name, err)
	}
	return tc
}

func (tc *SpreadsheetTestCase) RunAndAssertNoError() *SpreadsheetTestCase {
	return tc.Run()
}

func (tc *SpreadsheetTestCase) AssertCellEq(address string, expected Primitive) *SpreadsheetTestCase {
	if tc.skipped || tc.err != nil {
		return tc
	}
	actual, err := tc.spreadsheet.Get(address)
	if err != nil {
		tc.t.Errorf("%s: Get(%s) failed: %v", tc.name, address, err)
		return tc
	}

	switch exp := expected.(type) {
	case float64:
		act, ok := actual.(float64)
		if !ok {
			tc.t.Errorf("%s: Cell %s = %v (%T), want %v (float64)", tc.name, address, actual, actual, expected)
			return tc
		}
		if math.Abs(act-exp) > 1e-10 {
			tc.t.Errorf("%s: Cell %s = %v, want %v", tc.name, address, actual, expected)
		}
	case int:
		act, ok := actual.(float64)
		if !ok {
			tc.t.Errorf("%s: Cell %s = %v (%T), want %v (int)", tc.name, address, actual, actual, expected)
			return tc
		}
		if math.Abs(act-float64(exp)) > 1e-10 {
			tc.t.Errorf("%s: Cell %s = %v, want %v", tc.name, address, actual, expected)
		}
	case nil:
		if actual != nil {
			tc.t.Errorf("%s: Cell %s = %v, want nil", tc.name, address, actual)
		}
	case ErrorCode:
		spreadsheetErr, ok := actual.(*SpreadsheetError)
		if !ok {
			tc.t.Errorf("%s: Cell %s = %v, want error %v", tc.name, address, actual, exp)
			return tc
		}
		if spreadsheetErr.ErrorCode != exp {
			tc.t.Errorf("%s: Cell %s has error %v, want %v", tc.name, address, spreadsheetErr.ErrorCode, exp)
		}
	default:
		if actual != expected {
			tc.t.Errorf("%s: Cell %s = %v, want %v", tc.name, address, actual, expected)
		}
	}
	return tc
}

func (tc *SpreadsheetTestCase) AssertCellEmpty(address string) *SpreadsheetTestCase {
	if tc.skipped || tc.err != nil {
		return tc
	}
	actual, err := tc.spreadsheet.Get(address)
	if err != nil {
		tc.t.Errorf("%s: Get(%s) failed: %v", tc.name, address, err)
		return tc
	}
	if actual != nil {
		tc.t.Errorf("%s: Cell %s = %v, want nil", tc.name, address, actual)
	}
	return tc
}

func (tc *SpreadsheetTestCase) AssertCellErr(address string, errorCode ErrorCode) *SpreadsheetTestCase {
	if tc.skipped || tc.err != nil {
		return tc
	}
	actual, err := tc.spreadsheet.Get(address)
	if err != nil {
		tc.t.Errorf("%s: Get(%s) failed: %v", tc.name, address, err)
		return tc
	}
	spreadsheetErr, ok := actual.(*SpreadsheetError)
	if !ok {
		tc.t.Errorf("%s: Cell %s = %v, want error %v", tc.name, address, actual, errorCode)
		return tc
	}
	if spreadsheetErr.ErrorCode != errorCode {
		tc.t.Errorf("%s: Cell %s has error %v, want %v", tc.name, address, spreadsheetErr.ErrorCode, errorCode)
	}
	return tc
}

func (tc *SpreadsheetTestCase) AssertCellFn(address string, fn func(value Primitive, t *testing.T)) *SpreadsheetTestCase {
	if tc.skipped {
		return tc
	}
	actual, err := tc.spreadsheet.Get(address)
	if err != nil {
		tc.t.Errorf("%s: Get(%s) failed: %v", tc.name, address, err)
		return tc
	}
	fn(actual, tc.t)
	return tc
}

func (tc *SpreadsheetTestCase) AssertWorksheetExists(name string, shouldExist bool) *SpreadsheetTestCase {
	if tc.skipped {
		return tc
	}
	if exists := tc.spreadsheet.DoesWorksheetExist(name); exists != shouldExist {
		tc.t.Errorf("%s: Worksheet %s exists=%v, want %v", tc.name, name, exists, shouldExist)
	}
	return tc
}

func (tc *SpreadsheetTestCase) AssertNamedRangeExists(name string, shouldExist bool) *SpreadsheetTestCase {
	if tc.skipped {
		return tc
	}
	if exists := tc.spreadsheet.DoesNamedRangeExist(name); exists != shouldExist {
		tc.t.Errorf("%s: Named range %s exists=%v, want %v", tc.name, name, exists, shouldExist)
	}
	return tc
}

func (tc *SpreadsheetTestCase) ExpectAppError(expectedCode AppErrorCode) *SpreadsheetTestCase {
	if tc.skipped {
		return tc
	}
	if tc.err == nil {
		tc.t.Errorf("%s: Expected error with code %v, but got no error", tc.name, expectedCode)
		return tc
	}
	appErr, ok := tc.err.(*AppError)
	if !ok {
		tc.t.Errorf("%s: Got error %v, want AppError with code %v", tc.name, tc.err, expectedCode)
		tc.err = nil
		return tc
	}
	if appErr.Code != expectedCode {
		tc.t.Errorf("%s: Got error code %v, want %v", tc.name, appErr.Code, expectedCode)
	}
	tc.err = nil
	return tc
}

func (tc *SpreadsheetTestCase) End() {}
