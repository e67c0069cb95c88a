package ssengine

import (
	"math"
	"sort"
)

// flattenNumbers expands ranges and scalar args into a single slice of
// numeric values, propagating any error value found along the way.
func flattenNumbers(args ...any) ([]float64, *SpreadsheetError) {
	var numbers []float64
	for _, arg := range args {
		if err := checkForError(arg); err != nil {
			return nil, err
		}
		if r, ok := arg.(Range); ok {
			for value := range r.IterateValues() {
				if err := checkForError(value); err != nil {
					return nil, err
				}
				if num, ok := toNumber(value); ok {
					numbers = append(numbers, num)
				}
			}
		} else if num, ok := toNumber(arg); ok {
			numbers = append(numbers, num)
		}
	}
	return numbers, nil
}

func mean(numbers []float64) float64 {
	sum := 0.0
	for _, n := range numbers {
		sum += n
	}
	return sum / float64(len(numbers))
}

func variance(numbers []float64, sample bool) (float64, *SpreadsheetError) {
	n := len(numbers)
	if sample && n < 2 {
		return 0, NewSpreadsheetError(ErrorCodeDiv0, "not enough values to compute a sample variance")
	}
	if !sample && n < 1 {
		return 0, NewSpreadsheetError(ErrorCodeDiv0, "not enough values to compute a variance")
	}
	m := mean(numbers)
	sumSq := 0.0
	for _, v := range numbers {
		d := v - m
		sumSq += d * d
	}
	divisor := float64(n)
	if sample {
		divisor = float64(n - 1)
	}
	return sumSq / divisor, nil
}

// STDEV returns the sample standard deviation of its arguments.
func (bf *BuiltInFunctions) STDEV(args ...any) (Primitive, error) {
	numbers, err := flattenNumbers(args...)
	if err != nil {
		return nil, err
	}
	v, verr := variance(numbers, true)
	if verr != nil {
		return nil, verr
	}
	return math.Sqrt(v), nil
}

// STDEVP returns the population standard deviation of its arguments.
func (bf *BuiltInFunctions) STDEVP(args ...any) (Primitive, error) {
	numbers, err := flattenNumbers(args...)
	if err != nil {
		return nil, err
	}
	v, verr := variance(numbers, false)
	if verr != nil {
		return nil, verr
	}
	return math.Sqrt(v), nil
}

// VAR returns the sample variance of its arguments.
func (bf *BuiltInFunctions) VAR(args ...any) (Primitive, error) {
	numbers, err := flattenNumbers(args...)
	if err != nil {
		return nil, err
	}
	v, verr := variance(numbers, true)
	if verr != nil {
		return nil, verr
	}
	return v, nil
}

// VARP returns the population variance of its arguments.
func (bf *BuiltInFunctions) VARP(args ...any) (Primitive, error) {
	numbers, err := flattenNumbers(args...)
	if err != nil {
		return nil, err
	}
	v, verr := variance(numbers, false)
	if verr != nil {
		return nil, verr
	}
	return v, nil
}

// PERCENTILE returns the k-th percentile (0 <= k <= 1) of a range, using
// linear interpolation between closest ranks.
func (bf *BuiltInFunctions) PERCENTILE(args ...any) (Primitive, error) {
	if len(args) != 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "PERCENTILE requires exactly 2 arguments")
	}
	numbers, err := flattenNumbers(args[0])
	if err != nil {
		return nil, err
	}
	if len(numbers) == 0 {
		return nil, NewSpreadsheetError(ErrorCodeNum, "PERCENTILE requires at least 1 value")
	}
	k, ok := toNumber(args[1])
	if !ok || k < 0 || k > 1 {
		return nil, NewSpreadsheetError(ErrorCodeNum, "PERCENTILE k must be between 0 and 1")
	}

	sorted := append([]float64(nil), numbers...)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0], nil
	}
	rank := k * float64(len(sorted)-1)
	lowIdx := int(math.Floor(rank))
	highIdx := int(math.Ceil(rank))
	if lowIdx == highIdx {
		return sorted[lowIdx], nil
	}
	frac := rank - float64(lowIdx)
	return sorted[lowIdx] + frac*(sorted[highIdx]-sorted[lowIdx]), nil
}

// COVARIANCE_P returns the population covariance of two equally-sized
// ranges (dispatched as spreadsheet function COVARIANCE.P).
func (bf *BuiltInFunctions) COVARIANCE_P(args ...any) (Primitive, error) {
	if len(args) != 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "COVARIANCE.P requires exactly 2 arguments")
	}
	xs, err := flattenNumbers(args[0])
	if err != nil {
		return nil, err
	}
	ys, err := flattenNumbers(args[1])
	if err != nil {
		return nil, err
	}
	if len(xs) != len(ys) || len(xs) == 0 {
		return nil, NewSpreadsheetError(ErrorCodeNA, "COVARIANCE.P requires two equally-sized non-empty ranges")
	}
	mx, my := mean(xs), mean(ys)
	sum := 0.0
	for i := range xs {
		sum += (xs[i] - mx) * (ys[i] - my)
	}
	return sum / float64(len(xs)), nil
}

// CORREL returns the Pearson correlation coefficient of two equally-sized
// ranges.
func (bf *BuiltInFunctions) CORREL(args ...any) (Primitive, error) {
	if len(args) != 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "CORREL requires exactly 2 arguments")
	}
	xs, err := flattenNumbers(args[0])
	if err != nil {
		return nil, err
	}
	ys, err := flattenNumbers(args[1])
	if err != nil {
		return nil, err
	}
	if len(xs) != len(ys) || len(xs) == 0 {
		return nil, NewSpreadsheetError(ErrorCodeNA, "CORREL requires two equally-sized non-empty ranges")
	}
	mx, my := mean(xs), mean(ys)
	var covSum, varXSum, varYSum float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		covSum += dx * dy
		varXSum += dx * dx
		varYSum += dy * dy
	}
	denom := math.Sqrt(varXSum * varYSum)
	if denom == 0 {
		return nil, NewSpreadsheetError(ErrorCodeDiv0, "CORREL requires non-constant data")
	}
	return covSum / denom, nil
}
