package ssengine

import "math"

// LN returns the natural logarithm of a number.
func (bf *BuiltInFunctions) LN(args ...any) (Primitive, error) {
	if len(args) != 1 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "LN requires exactly 1 argument")
	}
	num, ok := toNumber(args[0])
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "LN requires a numeric argument")
	}
	if num <= 0 {
		return nil, NewSpreadsheetError(ErrorCodeNum, "LN requires a positive argument")
	}
	return math.Log(num), nil
}

// LOG returns the logarithm of a number to a given base (10 if omitted).
func (bf *BuiltInFunctions) LOG(args ...any) (Primitive, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "LOG requires 1 or 2 arguments")
	}
	num, ok := toNumber(args[0])
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "LOG requires a numeric argument")
	}
	if num <= 0 {
		return nil, NewSpreadsheetError(ErrorCodeNum, "LOG requires a positive argument")
	}
	base := 10.0
	if len(args) == 2 {
		b, ok := toNumber(args[1])
		if !ok || b <= 0 || b == 1 {
			return nil, NewSpreadsheetError(ErrorCodeNum, "LOG base must be positive and not 1")
		}
		base = b
	}
	return math.Log(num) / math.Log(base), nil
}

// EXP returns e raised to a power.
func (bf *BuiltInFunctions) EXP(args ...any) (Primitive, error) {
	if len(args) != 1 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "EXP requires exactly 1 argument")
	}
	num, ok := toNumber(args[0])
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "EXP requires a numeric argument")
	}
	return math.Exp(num), nil
}

// ROUNDDOWN truncates a number toward zero at the given number of digits.
func (bf *BuiltInFunctions) ROUNDDOWN(args ...any) (Primitive, error) {
	if len(args) != 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "ROUNDDOWN requires exactly 2 arguments")
	}
	num, ok1 := toNumber(args[0])
	digits, ok2 := toNumber(args[1])
	if !ok1 || !ok2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "ROUNDDOWN requires numeric arguments")
	}
	multiplier := math.Pow(10, digits)
	if num >= 0 {
		return math.Floor(num*multiplier) / multiplier, nil
	}
	return math.Ceil(num*multiplier) / multiplier, nil
}

// ROUNDUP rounds a number away from zero at the given number of digits.
func (bf *BuiltInFunctions) ROUNDUP(args ...any) (Primitive, error) {
	if len(args) != 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "ROUNDUP requires exactly 2 arguments")
	}
	num, ok1 := toNumber(args[0])
	digits, ok2 := toNumber(args[1])
	if !ok1 || !ok2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "ROUNDUP requires numeric arguments")
	}
	multiplier := math.Pow(10, digits)
	if num >= 0 {
		return math.Ceil(num*multiplier) / multiplier, nil
	}
	return math.Floor(num*multiplier) / multiplier, nil
}

// MROUND rounds a number to the nearest multiple.
func (bf *BuiltInFunctions) MROUND(args ...any) (Primitive, error) {
	if len(args) != 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "MROUND requires exactly 2 arguments")
	}
	num, ok1 := toNumber(args[0])
	multiple, ok2 := toNumber(args[1])
	if !ok1 || !ok2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "MROUND requires numeric arguments")
	}
	if multiple == 0 {
		return 0.0, nil
	}
	if (num < 0) != (multiple < 0) {
		return nil, NewSpreadsheetError(ErrorCodeNum, "MROUND requires num and multiple to share a sign")
	}
	return math.Round(num/multiple) * multiple, nil
}

// RANDBETWEEN returns a random integer between bottom and top, inclusive.
func (bf *BuiltInFunctions) RANDBETWEEN(args ...any) (Primitive, error) {
	if len(args) != 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "RANDBETWEEN requires exactly 2 arguments")
	}
	bottom, ok1 := toNumber(args[0])
	top, ok2 := toNumber(args[1])
	if !ok1 || !ok2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "RANDBETWEEN requires numeric arguments")
	}
	lo, hi := math.Ceil(bottom), math.Floor(top)
	if lo > hi {
		return nil, NewSpreadsheetError(ErrorCodeNum, "RANDBETWEEN requires bottom <= top")
	}
	span := hi - lo + 1
	return lo + math.Floor(bf.rng.Float64()*span), nil
}
