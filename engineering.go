package ssengine

import (
	"strconv"
	"strings"
)

// BIN2DEC converts a binary string to a decimal number.
func (bf *BuiltInFunctions) BIN2DEC(args ...any) (Primitive, error) {
	if len(args) != 1 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "BIN2DEC requires exactly 1 argument")
	}
	text := toString(args[0])
	n, err := strconv.ParseInt(text, 2, 64)
	if err != nil {
		return nil, NewSpreadsheetError(ErrorCodeNum, "BIN2DEC requires a valid binary string")
	}
	return float64(n), nil
}

// DEC2BIN converts a decimal number to a binary string.
func (bf *BuiltInFunctions) DEC2BIN(args ...any) (Primitive, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "DEC2BIN requires 1 or 2 arguments")
	}
	num, ok := toNumber(args[0])
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "DEC2BIN requires a numeric argument")
	}
	bin := strconv.FormatInt(int64(num), 2)
	if len(args) == 2 {
		places, ok := toNumber(args[1])
		if !ok || int(places) < len(bin) {
			return nil, NewSpreadsheetError(ErrorCodeNum, "DEC2BIN places is too small for the value")
		}
		for len(bin) < int(places) {
			bin = "0" + bin
		}
	}
	return bin, nil
}

// HEX2DEC converts a hexadecimal string to a decimal number.
func (bf *BuiltInFunctions) HEX2DEC(args ...any) (Primitive, error) {
	if len(args) != 1 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "HEX2DEC requires exactly 1 argument")
	}
	text := toString(args[0])
	n, err := strconv.ParseInt(text, 16, 64)
	if err != nil {
		return nil, NewSpreadsheetError(ErrorCodeNum, "HEX2DEC requires a valid hexadecimal string")
	}
	return float64(n), nil
}

// DEC2HEX converts a decimal number to an uppercase hexadecimal string.
func (bf *BuiltInFunctions) DEC2HEX(args ...any) (Primitive, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "DEC2HEX requires 1 or 2 arguments")
	}
	num, ok := toNumber(args[0])
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "DEC2HEX requires a numeric argument")
	}
	hex := strings.ToUpper(strconv.FormatInt(int64(num), 16))
	if len(args) == 2 {
		places, ok := toNumber(args[1])
		if !ok || int(places) < len(hex) {
			return nil, NewSpreadsheetError(ErrorCodeNum, "DEC2HEX places is too small for the value")
		}
		for len(hex) < int(places) {
			hex = "0" + hex
		}
	}
	return hex, nil
}
