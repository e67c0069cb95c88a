package ssengine

// IFERROR returns value_if_error if value is a spreadsheet error, value
// otherwise.
func (bf *BuiltInFunctions) IFERROR(args ...any) (Primitive, error) {
	if len(args) != 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "IFERROR requires exactly 2 arguments")
	}
	if checkForError(args[0]) != nil {
		return args[1], nil
	}
	return args[0], nil
}

// IFNA returns value_if_na if value is #N/A, value otherwise.
func (bf *BuiltInFunctions) IFNA(args ...any) (Primitive, error) {
	if len(args) != 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "IFNA requires exactly 2 arguments")
	}
	if err := checkForError(args[0]); err != nil && err.ErrorCode == ErrorCodeNA {
		return args[1], nil
	}
	return args[0], nil
}

// IFS evaluates condition/value pairs in order and returns the value for
// the first true condition.
func (bf *BuiltInFunctions) IFS(args ...any) (Primitive, error) {
	if len(args) < 2 || len(args)%2 != 0 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "IFS requires condition/value pairs")
	}
	for i := 0; i < len(args); i += 2 {
		if err := checkForError(args[i]); err != nil {
			return nil, err
		}
		if isTruthy(args[i]) {
			return args[i+1], nil
		}
	}
	return nil, NewSpreadsheetError(ErrorCodeNA, "IFS found no true condition")
}

// ISBLANK returns TRUE if value is an empty cell.
func (bf *BuiltInFunctions) ISBLANK(args ...any) (Primitive, error) {
	if len(args) != 1 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "ISBLANK requires exactly 1 argument")
	}
	return args[0] == nil, nil
}

// ISERROR returns TRUE if value is any spreadsheet error.
func (bf *BuiltInFunctions) ISERROR(args ...any) (Primitive, error) {
	if len(args) != 1 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "ISERROR requires exactly 1 argument")
	}
	return checkForError(args[0]) != nil, nil
}

// ISERR returns TRUE if value is a spreadsheet error other than #N/A.
func (bf *BuiltInFunctions) ISERR(args ...any) (Primitive, error) {
	if len(args) != 1 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "ISERR requires exactly 1 argument")
	}
	err := checkForError(args[0])
	return err != nil && err.ErrorCode != ErrorCodeNA, nil
}

// ISNA returns TRUE if value is #N/A.
func (bf *BuiltInFunctions) ISNA(args ...any) (Primitive, error) {
	if len(args) != 1 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "ISNA requires exactly 1 argument")
	}
	err := checkForError(args[0])
	return err != nil && err.ErrorCode == ErrorCodeNA, nil
}

// ISNUMBER returns TRUE if value is numeric.
func (bf *BuiltInFunctions) ISNUMBER(args ...any) (Primitive, error) {
	if len(args) != 1 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "ISNUMBER requires exactly 1 argument")
	}
	_, ok := args[0].(float64)
	return ok, nil
}

// ISTEXT returns TRUE if value is a string.
func (bf *BuiltInFunctions) ISTEXT(args ...any) (Primitive, error) {
	if len(args) != 1 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "ISTEXT requires exactly 1 argument")
	}
	_, ok := args[0].(string)
	return ok, nil
}

// NA returns the #N/A error value.
func (bf *BuiltInFunctions) NA(args ...any) (Primitive, error) {
	if len(args) != 0 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "NA takes no arguments")
	}
	return NewSpreadsheetError(ErrorCodeNA, ""), nil
}

// ERROR_TYPE returns the numeric code (1-7) of a spreadsheet error value,
// dispatched as spreadsheet function ERROR.TYPE.
func (bf *BuiltInFunctions) ERROR_TYPE(args ...any) (Primitive, error) {
	if len(args) != 1 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "ERROR.TYPE requires exactly 1 argument")
	}
	err := checkForError(args[0])
	if err == nil {
		return nil, NewSpreadsheetError(ErrorCodeNA, "ERROR.TYPE requires an error value")
	}
	return float64(err.ErrorCode), nil
}
