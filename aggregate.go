package ssengine

import "fmt"

// matchesCriteria evaluates a single SUMIF/COUNTIF-style criterion against a
// value. A criterion is either a comparison operator prefix (">10", "<=5",
// "<>0") or, with no operator prefix, an equality test (numeric if the
// criterion parses as a number, case-insensitive text otherwise).
func matchesCriteria(value Primitive, criterion Primitive) bool {
	critStr := toString(criterion)

	ops := []string{">=", "<=", "<>", ">", "<", "="}
	for _, op := range ops {
		if len(critStr) > len(op) && critStr[:len(op)] == op {
			rest := critStr[len(op):]
			cmp := comparePrimitives(value, coerceCriterionOperand(rest))
			switch op {
			case ">=":
				return cmp >= 0
			case "<=":
				return cmp <= 0
			case "<>":
				return cmp != 0
			case ">":
				return cmp > 0
			case "<":
				return cmp < 0
			case "=":
				return cmp == 0
			}
		}
	}

	return comparePrimitives(value, criterion) == 0
}

// coerceCriterionOperand turns the text following a comparison operator in
// a criteria string back into a typed primitive so comparePrimitives can
// compare like with like.
func coerceCriterionOperand(text string) Primitive {
	if num, ok := toNumber(text); ok {
		return num
	}
	return text
}

func rangeValues(r *CellRange) []Primitive {
	var values []Primitive
	for v := range r.IterateValues() {
		values = append(values, v)
	}
	return values
}

// SUMIF sums cells in sum_range (or criteria_range if omitted) where the
// corresponding cell in criteria_range matches criteria.
func (bf *BuiltInFunctions) SUMIF(args ...any) (Primitive, error) {
	if len(args) < 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "SUMIF requires at least 2 arguments")
	}
	criteriaRange, ok := args[0].(*CellRange)
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "SUMIF requires a range as its first argument")
	}
	criteria := args[1]

	sumRange := criteriaRange
	if len(args) >= 3 {
		sr, ok := args[2].(*CellRange)
		if !ok {
			return nil, NewSpreadsheetError(ErrorCodeValue, "SUMIF requires a range as its third argument")
		}
		sumRange = sr
	}

	criteriaValues := rangeValues(criteriaRange)
	sumValues := rangeValues(sumRange)

	sum := 0.0
	for i, v := range criteriaValues {
		if i >= len(sumValues) {
			break
		}
		if matchesCriteria(v, criteria) {
			if num, ok := toNumber(sumValues[i]); ok {
				sum += num
			}
		}
	}
	return sum, nil
}

// SUMIFS sums cells in sum_range where every criteria_range/criteria pair
// matches.
func (bf *BuiltInFunctions) SUMIFS(args ...any) (Primitive, error) {
	if len(args) < 3 || len(args)%2 != 1 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "SUMIFS requires a sum range followed by range/criteria pairs")
	}
	sumRange, ok := args[0].(*CellRange)
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "SUMIFS requires a range as its first argument")
	}
	sumValues := rangeValues(sumRange)

	sum := 0.0
	for i := range sumValues {
		matched := true
		for p := 1; p < len(args); p += 2 {
			cr, ok := args[p].(*CellRange)
			if !ok {
				return nil, NewSpreadsheetError(ErrorCodeValue, "SUMIFS criteria ranges must be ranges")
			}
			vals := rangeValues(cr)
			if i >= len(vals) || !matchesCriteria(vals[i], args[p+1]) {
				matched = false
				break
			}
		}
		if matched {
			if num, ok := toNumber(sumValues[i]); ok {
				sum += num
			}
		}
	}
	return sum, nil
}

// COUNTIF counts cells in range that match criteria.
func (bf *BuiltInFunctions) COUNTIF(args ...any) (Primitive, error) {
	if len(args) != 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "COUNTIF requires exactly 2 arguments")
	}
	cr, ok := args[0].(*CellRange)
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "COUNTIF requires a range as its first argument")
	}
	count := 0
	for _, v := range rangeValues(cr) {
		if matchesCriteria(v, args[1]) {
			count++
		}
	}
	return float64(count), nil
}

// COUNTIFS counts rows where every criteria_range/criteria pair matches.
func (bf *BuiltInFunctions) COUNTIFS(args ...any) (Primitive, error) {
	if len(args) < 2 || len(args)%2 != 0 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "COUNTIFS requires range/criteria pairs")
	}
	firstRange, ok := args[0].(*CellRange)
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "COUNTIFS requires ranges as its arguments")
	}
	n := len(rangeValues(firstRange))

	allValues := make([][]Primitive, 0, len(args)/2)
	criteria := make([]Primitive, 0, len(args)/2)
	for p := 0; p < len(args); p += 2 {
		cr, ok := args[p].(*CellRange)
		if !ok {
			return nil, NewSpreadsheetError(ErrorCodeValue, "COUNTIFS requires ranges as its arguments")
		}
		allValues = append(allValues, rangeValues(cr))
		criteria = append(criteria, args[p+1])
	}

	count := 0
	for i := 0; i < n; i++ {
		matched := true
		for j, vals := range allValues {
			if i >= len(vals) || !matchesCriteria(vals[i], criteria[j]) {
				matched = false
				break
			}
		}
		if matched {
			count++
		}
	}
	return float64(count), nil
}

// AVERAGEIF averages cells in average_range (or range if omitted) where the
// corresponding cell in range matches criteria.
func (bf *BuiltInFunctions) AVERAGEIF(args ...any) (Primitive, error) {
	if len(args) < 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "AVERAGEIF requires at least 2 arguments")
	}
	criteriaRange, ok := args[0].(*CellRange)
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "AVERAGEIF requires a range as its first argument")
	}
	criteria := args[1]

	avgRange := criteriaRange
	if len(args) >= 3 {
		ar, ok := args[2].(*CellRange)
		if !ok {
			return nil, NewSpreadsheetError(ErrorCodeValue, "AVERAGEIF requires a range as its third argument")
		}
		avgRange = ar
	}

	criteriaValues := rangeValues(criteriaRange)
	avgValues := rangeValues(avgRange)

	sum := 0.0
	count := 0
	for i, v := range criteriaValues {
		if i >= len(avgValues) {
			break
		}
		if matchesCriteria(v, criteria) {
			if num, ok := toNumber(avgValues[i]); ok {
				sum += num
				count++
			}
		}
	}
	if count == 0 {
		return nil, NewSpreadsheetError(ErrorCodeDiv0, "AVERAGEIF has no matching values")
	}
	return sum / float64(count), nil
}

// AVERAGEIFS averages average_range where every criteria_range/criteria
// pair matches.
func (bf *BuiltInFunctions) AVERAGEIFS(args ...any) (Primitive, error) {
	sumResult, err := bf.SUMIFS(args...)
	if err != nil {
		return nil, err
	}
	countResult, err := bf.COUNTIFS(args[1:]...)
	if err != nil {
		return nil, err
	}
	count := countResult.(float64)
	if count == 0 {
		return nil, NewSpreadsheetError(ErrorCodeDiv0, "AVERAGEIFS has no matching values")
	}
	return sumResult.(float64) / count, nil
}

// SUMPRODUCT multiplies corresponding entries of equally-shaped ranges (or
// arrays) and sums the products.
func (bf *BuiltInFunctions) SUMPRODUCT(args ...any) (Primitive, error) {
	if len(args) == 0 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "SUMPRODUCT requires at least 1 argument")
	}

	arrays := make([][]Primitive, len(args))
	length := -1
	for i, arg := range args {
		cr, ok := arg.(*CellRange)
		if !ok {
			return nil, NewSpreadsheetError(ErrorCodeValue, "SUMPRODUCT requires ranges as its arguments")
		}
		arrays[i] = rangeValues(cr)
		if length == -1 {
			length = len(arrays[i])
		} else if len(arrays[i]) != length {
			return nil, NewSpreadsheetError(ErrorCodeValue, fmt.Sprintf("SUMPRODUCT array %d has a mismatched size", i+1))
		}
	}

	sum := 0.0
	for i := 0; i < length; i++ {
		product := 1.0
		for _, arr := range arrays {
			num, _ := toNumber(arr[i])
			product *= num
		}
		sum += product
	}
	return sum, nil
}
