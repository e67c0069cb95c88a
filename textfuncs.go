package ssengine

import (
	"fmt"
	"strings"
)

// LEFT returns the leftmost num_chars characters of a string (default 1).
func (bf *BuiltInFunctions) LEFT(args ...any) (Primitive, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "LEFT requires 1 or 2 arguments")
	}
	if err := checkForError(args[0]); err != nil {
		return nil, err
	}
	text := []rune(toString(args[0]))
	n := 1
	if len(args) == 2 {
		num, ok := toNumber(args[1])
		if !ok || num < 0 {
			return nil, NewSpreadsheetError(ErrorCodeValue, "LEFT num_chars must be a non-negative number")
		}
		n = int(num)
	}
	if n > len(text) {
		n = len(text)
	}
	return string(text[:n]), nil
}

// RIGHT returns the rightmost num_chars characters of a string (default 1).
func (bf *BuiltInFunctions) RIGHT(args ...any) (Primitive, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "RIGHT requires 1 or 2 arguments")
	}
	if err := checkForError(args[0]); err != nil {
		return nil, err
	}
	text := []rune(toString(args[0]))
	n := 1
	if len(args) == 2 {
		num, ok := toNumber(args[1])
		if !ok || num < 0 {
			return nil, NewSpreadsheetError(ErrorCodeValue, "RIGHT num_chars must be a non-negative number")
		}
		n = int(num)
	}
	if n > len(text) {
		n = len(text)
	}
	return string(text[len(text)-n:]), nil
}

// MID returns num_chars characters from a string starting at start_num (1-based).
func (bf *BuiltInFunctions) MID(args ...any) (Primitive, error) {
	if len(args) != 3 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "MID requires exactly 3 arguments")
	}
	if err := checkForError(args[0]); err != nil {
		return nil, err
	}
	text := []rune(toString(args[0]))
	startNum, ok1 := toNumber(args[1])
	numChars, ok2 := toNumber(args[2])
	if !ok1 || !ok2 || startNum < 1 || numChars < 0 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "MID requires a valid start position and length")
	}
	start := int(startNum) - 1
	if start >= len(text) {
		return "", nil
	}
	end := start + int(numChars)
	if end > len(text) {
		end = len(text)
	}
	return string(text[start:end]), nil
}

// SUBSTITUTE replaces occurrences of old_text with new_text in text. With an
// optional instance_num, only that (1-based) occurrence is replaced.
func (bf *BuiltInFunctions) SUBSTITUTE(args ...any) (Primitive, error) {
	if len(args) < 3 || len(args) > 4 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "SUBSTITUTE requires 3 or 4 arguments")
	}
	if err := checkForError(args[0]); err != nil {
		return nil, err
	}
	text := toString(args[0])
	oldText := toString(args[1])
	newText := toString(args[2])

	if len(args) == 3 || oldText == "" {
		return strings.ReplaceAll(text, oldText, newText), nil
	}

	instanceNum, ok := toNumber(args[3])
	if !ok || instanceNum < 1 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "SUBSTITUTE instance_num must be a positive number")
	}
	target := int(instanceNum)

	var b strings.Builder
	remaining := text
	occurrence := 0
	for {
		idx := strings.Index(remaining, oldText)
		if idx == -1 {
			b.WriteString(remaining)
			break
		}
		occurrence++
		b.WriteString(remaining[:idx])
		if occurrence == target {
			b.WriteString(newText)
		} else {
			b.WriteString(oldText)
		}
		remaining = remaining[idx+len(oldText):]
	}
	return b.String(), nil
}

// FIND returns the 1-based position of find_text within within_text,
// starting the search at an optional start_num. The search is case-sensitive.
func (bf *BuiltInFunctions) FIND(args ...any) (Primitive, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "FIND requires 2 or 3 arguments")
	}
	findText := toString(args[0])
	withinText := toString(args[1])
	start := 1
	if len(args) == 3 {
		num, ok := toNumber(args[2])
		if !ok || num < 1 {
			return nil, NewSpreadsheetError(ErrorCodeValue, "FIND start_num must be a positive number")
		}
		start = int(num)
	}
	runes := []rune(withinText)
	if start > len(runes)+1 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "FIND start_num is beyond the end of within_text")
	}
	idx := strings.Index(string(runes[start-1:]), findText)
	if idx == -1 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "FIND did not locate find_text")
	}
	return float64(start + len([]rune(string(runes[start-1:])[:idx]))), nil
}

// TEXT formats a number according to a (simplified) format code: "0" rounds
// to an integer, "0.00"-style codes round to the digit count after the
// decimal point, and any other format code falls back to the default
// string conversion.
func (bf *BuiltInFunctions) TEXT(args ...any) (Primitive, error) {
	if len(args) != 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "TEXT requires exactly 2 arguments")
	}
	num, ok := toNumber(args[0])
	if !ok {
		return toString(args[0]), nil
	}
	format := toString(args[1])
	if dot := strings.Index(format, "."); dot != -1 {
		decimals := len(format) - dot - 1
		return fmt.Sprintf("%.*f", decimals, num), nil
	}
	if format == "0" {
		return fmt.Sprintf("%.0f", num), nil
	}
	return toString(num), nil
}

// TEXTJOIN concatenates values with a delimiter, optionally skipping blanks.
func (bf *BuiltInFunctions) TEXTJOIN(args ...any) (Primitive, error) {
	if len(args) < 3 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "TEXTJOIN requires at least 3 arguments")
	}
	delimiter := toString(args[0])
	skipEmpty := isTruthy(args[1])

	var parts []string
	for _, arg := range args[2:] {
		if r, ok := arg.(Range); ok {
			for value := range r.IterateValues() {
				if err := checkForError(value); err != nil {
					return nil, err
				}
				s := toString(value)
				if skipEmpty && s == "" {
					continue
				}
				parts = append(parts, s)
			}
			continue
		}
		if err := checkForError(arg); err != nil {
			return nil, err
		}
		s := toString(arg)
		if skipEmpty && s == "" {
			continue
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, delimiter), nil
}
