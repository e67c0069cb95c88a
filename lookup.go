package ssengine

import "fmt"

// VLOOKUP searches the first column of a range for a value and returns a
// cell from a given column offset in the same row.
func (bf *BuiltInFunctions) VLOOKUP(args ...any) (Primitive, error) {
	if len(args) < 3 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "VLOOKUP requires at least 3 arguments")
	}
	if err := checkForError(args[0]); err != nil {
		return nil, err
	}
	lookupValue := args[0]

	table, ok := args[1].(Range)
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "VLOOKUP requires a range as its second argument")
	}
	cr, ok := table.(*CellRange)
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "VLOOKUP requires a materializable range")
	}

	colIndexNum, ok := toNumber(args[2])
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "VLOOKUP column index must be numeric")
	}
	colIndex := int(colIndexNum) - 1
	if colIndex < 0 || colIndex >= cr.Cols() {
		return nil, NewSpreadsheetError(ErrorCodeRef, "VLOOKUP column index out of range")
	}

	// default behaviour (range_lookup omitted or TRUE) is approximate match
	// against a sorted first column; FALSE requests an exact match.
	approximate := true
	if len(args) >= 4 {
		approximate = isTruthy(args[3])
	}

	grid := cr.ValuesAsGrid()
	if approximate {
		rowIdx := -1
		for i, row := range grid {
			if len(row) == 0 {
				continue
			}
			cmp := comparePrimitives(row[0], lookupValue)
			if cmp <= 0 {
				rowIdx = i
			} else {
				break
			}
		}
		if rowIdx == -1 {
			return nil, NewSpreadsheetError(ErrorCodeNA, "VLOOKUP found no matching row")
		}
		return grid[rowIdx][colIndex], nil
	}

	for _, row := range grid {
		if len(row) == 0 {
			continue
		}
		if comparePrimitives(row[0], lookupValue) == 0 {
			return row[colIndex], nil
		}
	}
	return nil, NewSpreadsheetError(ErrorCodeNA, "VLOOKUP found no matching row")
}

// HLOOKUP is VLOOKUP transposed: it searches the first row of a range and
// returns a cell from a given row offset in the same column.
func (bf *BuiltInFunctions) HLOOKUP(args ...any) (Primitive, error) {
	if len(args) < 3 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "HLOOKUP requires at least 3 arguments")
	}
	if err := checkForError(args[0]); err != nil {
		return nil, err
	}
	lookupValue := args[0]

	table, ok := args[1].(Range)
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "HLOOKUP requires a range as its second argument")
	}
	cr, ok := table.(*CellRange)
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "HLOOKUP requires a materializable range")
	}

	rowIndexNum, ok := toNumber(args[2])
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "HLOOKUP row index must be numeric")
	}
	rowIndex := int(rowIndexNum) - 1
	if rowIndex < 0 || rowIndex >= cr.Rows() {
		return nil, NewSpreadsheetError(ErrorCodeRef, "HLOOKUP row index out of range")
	}

	approximate := true
	if len(args) >= 4 {
		approximate = isTruthy(args[3])
	}

	grid := cr.ValuesAsGrid()
	if len(grid) == 0 {
		return nil, NewSpreadsheetError(ErrorCodeNA, "HLOOKUP found no matching column")
	}
	header := grid[0]

	if approximate {
		colIdx := -1
		for i, v := range header {
			if comparePrimitives(v, lookupValue) <= 0 {
				colIdx = i
			} else {
				break
			}
		}
		if colIdx == -1 {
			return nil, NewSpreadsheetError(ErrorCodeNA, "HLOOKUP found no matching column")
		}
		return grid[rowIndex][colIdx], nil
	}

	for i, v := range header {
		if comparePrimitives(v, lookupValue) == 0 {
			return grid[rowIndex][i], nil
		}
	}
	return nil, NewSpreadsheetError(ErrorCodeNA, "HLOOKUP found no matching column")
}

// INDEX returns the value at a given row/column position within a range.
// INDEX(range, row) with a single-column or single-row range is also
// supported, treating the lone dimension as the index.
func (bf *BuiltInFunctions) INDEX(args ...any) (Primitive, error) {
	if len(args) < 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "INDEX requires at least 2 arguments")
	}
	cr, ok := args[0].(*CellRange)
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "INDEX requires a range as its first argument")
	}

	rowNum, ok := toNumber(args[1])
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "INDEX row must be numeric")
	}
	row := int(rowNum)

	col := 1
	if len(args) >= 3 {
		colNum, ok := toNumber(args[2])
		if !ok {
			return nil, NewSpreadsheetError(ErrorCodeValue, "INDEX column must be numeric")
		}
		col = int(colNum)
	} else if cr.Rows() == 1 {
		// single-row range and only one index given: treat it as the column
		col = row
		row = 1
	}

	if row < 1 || col < 1 || row > cr.Rows() || col > cr.Cols() {
		return nil, NewSpreadsheetError(ErrorCodeRef, "INDEX position out of range")
	}
	return cr.ValueAt(row-1, col-1), nil
}

// MATCH returns the 1-based position of a value within a single-row or
// single-column range. match_type 1 (default) finds the largest value <=
// lookup_value in an ascending range, -1 finds the smallest value >= in a
// descending range, and 0 requires an exact match in unsorted data.
func (bf *BuiltInFunctions) MATCH(args ...any) (Primitive, error) {
	if len(args) < 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "MATCH requires at least 2 arguments")
	}
	if err := checkForError(args[0]); err != nil {
		return nil, err
	}
	lookupValue := args[0]

	cr, ok := args[1].(*CellRange)
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "MATCH requires a range as its second argument")
	}

	matchType := 1.0
	if len(args) >= 3 {
		if n, ok := toNumber(args[2]); ok {
			matchType = n
		}
	}

	var values []Primitive
	for v := range cr.IterateValues() {
		values = append(values, v)
	}

	switch {
	case matchType == 0:
		for i, v := range values {
			if comparePrimitives(v, lookupValue) == 0 {
				return float64(i + 1), nil
			}
		}
	case matchType > 0:
		best := -1
		for i, v := range values {
			if comparePrimitives(v, lookupValue) <= 0 {
				best = i
			} else {
				break
			}
		}
		if best >= 0 {
			return float64(best + 1), nil
		}
	default: // matchType < 0
		best := -1
		for i, v := range values {
			if comparePrimitives(v, lookupValue) >= 0 {
				best = i
			} else {
				break
			}
		}
		if best >= 0 {
			return float64(best + 1), nil
		}
	}

	return nil, NewSpreadsheetError(ErrorCodeNA, "MATCH found no matching value")
}

// CHOOSE returns the Nth value from a list of choices (1-based).
func (bf *BuiltInFunctions) CHOOSE(args ...any) (Primitive, error) {
	if len(args) < 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "CHOOSE requires at least 2 arguments")
	}
	idxNum, ok := toNumber(args[0])
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "CHOOSE index must be numeric")
	}
	idx := int(idxNum)
	choices := args[1:]
	if idx < 1 || idx > len(choices) {
		return nil, NewSpreadsheetError(ErrorCodeValue, fmt.Sprintf("CHOOSE index %d out of range", idx))
	}
	return choices[idx-1], nil
}

// XLOOKUP(lookup_value, lookup_array, return_array, [if_not_found]) is the
// modern replacement for VLOOKUP/HLOOKUP: it requires an exact match (no
// implicit sorted-approximate fallback) between two same-shaped ranges.
func (bf *BuiltInFunctions) XLOOKUP(args ...any) (Primitive, error) {
	if len(args) < 3 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "XLOOKUP requires at least 3 arguments")
	}
	if err := checkForError(args[0]); err != nil {
		return nil, err
	}
	lookupValue := args[0]

	lookupRange, ok := args[1].(*CellRange)
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "XLOOKUP requires a range as its second argument")
	}
	returnRange, ok := args[2].(*CellRange)
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "XLOOKUP requires a range as its third argument")
	}

	var lookupValues, returnValues []Primitive
	for v := range lookupRange.IterateValues() {
		lookupValues = append(lookupValues, v)
	}
	for v := range returnRange.IterateValues() {
		returnValues = append(returnValues, v)
	}

	for i, v := range lookupValues {
		if comparePrimitives(v, lookupValue) == 0 && i < len(returnValues) {
			return returnValues[i], nil
		}
	}

	if len(args) >= 4 {
		return args[3], nil
	}
	return nil, NewSpreadsheetError(ErrorCodeNA, "XLOOKUP found no matching value")
}

// XMATCH is MATCH with exact-match semantics by default (no implicit
// approximate fallback).
func (bf *BuiltInFunctions) XMATCH(args ...any) (Primitive, error) {
	if len(args) < 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "XMATCH requires at least 2 arguments")
	}
	if err := checkForError(args[0]); err != nil {
		return nil, err
	}
	lookupValue := args[0]
	cr, ok := args[1].(*CellRange)
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "XMATCH requires a range as its second argument")
	}

	i := 0
	for v := range cr.IterateValues() {
		i++
		if comparePrimitives(v, lookupValue) == 0 {
			return float64(i), nil
		}
	}
	return nil, NewSpreadsheetError(ErrorCodeNA, "XMATCH found no matching value")
}
