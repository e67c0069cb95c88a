package ssengine

import "math"

// parseDueFlag validates an annuity function's "type" argument: 0 for
// payments due at the end of a period, 1 for due at the beginning. Any
// other numeric value is outside the function's domain.
func parseDueFlag(arg Primitive) (bool, error) {
	n, ok := toNumber(arg)
	if !ok {
		return false, NewSpreadsheetError(ErrorCodeValue, "type must be 0 or 1")
	}
	switch n {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, NewSpreadsheetError(ErrorCodeNum, "type must be 0 or 1")
	}
}

// NPV returns the net present value of a series of future cash flows
// discounted at rate, starting one period from now.
func (bf *BuiltInFunctions) NPV(args ...any) (Primitive, error) {
	if len(args) < 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "NPV requires at least 2 arguments")
	}
	rate, ok := toNumber(args[0])
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "NPV rate must be numeric")
	}
	cashFlows, err := flattenNumbers(args[1:]...)
	if err != nil {
		return nil, err
	}
	sum := 0.0
	for i, cf := range cashFlows {
		sum += cf / math.Pow(1+rate, float64(i+1))
	}
	return sum, nil
}

// IRR returns the internal rate of return for a series of cash flows via
// Newton-Raphson iteration, starting from an optional guess (default 0.1).
func (bf *BuiltInFunctions) IRR(args ...any) (Primitive, error) {
	if len(args) < 1 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "IRR requires at least 1 argument")
	}
	cashFlows, err := flattenNumbers(args[0])
	if err != nil {
		return nil, err
	}
	if len(cashFlows) < 2 {
		return nil, NewSpreadsheetError(ErrorCodeNum, "IRR requires at least 2 cash flows")
	}
	guess := 0.1
	if len(args) >= 2 {
		if g, ok := toNumber(args[1]); ok {
			guess = g
		}
	}

	rate := guess
	for iter := 0; iter < 100; iter++ {
		npv, dnpv := 0.0, 0.0
		for t, cf := range cashFlows {
			denom := math.Pow(1+rate, float64(t))
			npv += cf / denom
			if t > 0 {
				dnpv -= float64(t) * cf / (denom * (1 + rate))
			}
		}
		if dnpv == 0 {
			break
		}
		next := rate - npv/dnpv
		if math.Abs(next-rate) < 1e-10 {
			return next, nil
		}
		rate = next
	}
	return nil, NewSpreadsheetError(ErrorCodeNum, "IRR did not converge")
}

// PMT returns the periodic payment for a loan with a constant interest
// rate and number of periods.
func (bf *BuiltInFunctions) PMT(args ...any) (Primitive, error) {
	if len(args) < 3 || len(args) > 5 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "PMT requires 3 to 5 arguments")
	}
	rate, ok1 := toNumber(args[0])
	nper, ok2 := toNumber(args[1])
	pv, ok3 := toNumber(args[2])
	if !ok1 || !ok2 || !ok3 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "PMT requires numeric arguments")
	}
	fv := 0.0
	if len(args) >= 4 {
		fv, _ = toNumber(args[3])
	}
	dueAtStart := false
	if len(args) >= 5 {
		var dueErr error
		dueAtStart, dueErr = parseDueFlag(args[4])
		if dueErr != nil {
			return nil, dueErr
		}
	}

	if rate == 0 {
		return -(pv + fv) / nper, nil
	}
	factor := math.Pow(1+rate, nper)
	pmt := rate * (pv*factor + fv) / (factor - 1)
	if dueAtStart {
		pmt /= 1 + rate
	}
	return -pmt, nil
}

// PV returns the present value of a series of equal periodic payments.
func (bf *BuiltInFunctions) PV(args ...any) (Primitive, error) {
	if len(args) < 3 || len(args) > 5 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "PV requires 3 to 5 arguments")
	}
	rate, ok1 := toNumber(args[0])
	nper, ok2 := toNumber(args[1])
	pmt, ok3 := toNumber(args[2])
	if !ok1 || !ok2 || !ok3 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "PV requires numeric arguments")
	}
	fv := 0.0
	if len(args) >= 4 {
		fv, _ = toNumber(args[3])
	}
	dueAtStart := false
	if len(args) >= 5 {
		var dueErr error
		dueAtStart, dueErr = parseDueFlag(args[4])
		if dueErr != nil {
			return nil, dueErr
		}
	}

	if rate == 0 {
		return -(fv + pmt*nper), nil
	}
	factor := math.Pow(1+rate, nper)
	annuityFactor := pmt * (1 + rate*boolToFloat(dueAtStart)) * (factor - 1) / rate
	return -(fv + annuityFactor) / factor, nil
}

// FV returns the future value of a series of equal periodic payments.
func (bf *BuiltInFunctions) FV(args ...any) (Primitive, error) {
	if len(args) < 3 || len(args) > 5 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "FV requires 3 to 5 arguments")
	}
	rate, ok1 := toNumber(args[0])
	nper, ok2 := toNumber(args[1])
	pmt, ok3 := toNumber(args[2])
	if !ok1 || !ok2 || !ok3 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "FV requires numeric arguments")
	}
	pv := 0.0
	if len(args) >= 4 {
		pv, _ = toNumber(args[3])
	}
	dueAtStart := false
	if len(args) >= 5 {
		var dueErr error
		dueAtStart, dueErr = parseDueFlag(args[4])
		if dueErr != nil {
			return nil, dueErr
		}
	}

	if rate == 0 {
		return -(pv + pmt*nper), nil
	}
	factor := math.Pow(1+rate, nper)
	annuityFactor := pmt * (1 + rate*boolToFloat(dueAtStart)) * (factor - 1) / rate
	return -(pv*factor + annuityFactor), nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// IPMT returns the interest portion of a loan payment for a given period.
func (bf *BuiltInFunctions) IPMT(args ...any) (Primitive, error) {
	if len(args) < 4 || len(args) > 6 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "IPMT requires 4 to 6 arguments")
	}
	rate, ok1 := toNumber(args[0])
	per, ok2 := toNumber(args[1])
	nper, ok3 := toNumber(args[2])
	pv, ok4 := toNumber(args[3])
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "IPMT requires numeric arguments")
	}
	pmtArgs := append([]any{rate, nper, pv}, args[4:]...)
	pmtResult, err := bf.PMT(pmtArgs...)
	if err != nil {
		return nil, err
	}
	pmt := pmtResult.(float64)

	balance := pv
	for p := 1.0; p < per; p++ {
		interest := -balance * rate
		principal := pmt - interest
		balance += principal
	}
	return -balance * rate, nil
}

// PPMT returns the principal portion of a loan payment for a given period.
func (bf *BuiltInFunctions) PPMT(args ...any) (Primitive, error) {
	if len(args) < 4 || len(args) > 6 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "PPMT requires 4 to 6 arguments")
	}
	rate, ok1 := toNumber(args[0])
	nper, ok3 := toNumber(args[2])
	pv, ok4 := toNumber(args[3])
	if !ok1 || !ok3 || !ok4 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "PPMT requires numeric arguments")
	}
	pmtArgs := append([]any{rate, nper, pv}, args[4:]...)
	pmtResult, err := bf.PMT(pmtArgs...)
	if err != nil {
		return nil, err
	}
	ipmtResult, err := bf.IPMT(args...)
	if err != nil {
		return nil, err
	}
	return pmtResult.(float64) - ipmtResult.(float64), nil
}

// NPER returns the number of periods for a loan or investment.
func (bf *BuiltInFunctions) NPER(args ...any) (Primitive, error) {
	if len(args) < 3 || len(args) > 5 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "NPER requires 3 to 5 arguments")
	}
	rate, ok1 := toNumber(args[0])
	pmt, ok2 := toNumber(args[1])
	pv, ok3 := toNumber(args[2])
	if !ok1 || !ok2 || !ok3 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "NPER requires numeric arguments")
	}
	fv := 0.0
	if len(args) >= 4 {
		fv, _ = toNumber(args[3])
	}
	dueAtStart := false
	if len(args) >= 5 {
		var dueErr error
		dueAtStart, dueErr = parseDueFlag(args[4])
		if dueErr != nil {
			return nil, dueErr
		}
	}

	if rate == 0 {
		if pmt == 0 {
			return nil, NewSpreadsheetError(ErrorCodeDiv0, "NPER requires a non-zero rate or payment")
		}
		return -(pv + fv) / pmt, nil
	}
	pmtAdj := pmt * (1 + rate*boolToFloat(dueAtStart))
	numerator := pmtAdj - fv*rate
	denominator := pv*rate + pmtAdj
	if denominator == 0 {
		return nil, NewSpreadsheetError(ErrorCodeNum, "NPER has no solution for these arguments")
	}
	return math.Log(numerator/denominator) / math.Log(1+rate), nil
}

// RATE returns the interest rate per period for a loan or investment via
// Newton-Raphson iteration.
func (bf *BuiltInFunctions) RATE(args ...any) (Primitive, error) {
	if len(args) < 3 || len(args) > 6 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "RATE requires 3 to 6 arguments")
	}
	nper, ok1 := toNumber(args[0])
	pmt, ok2 := toNumber(args[1])
	pv, ok3 := toNumber(args[2])
	if !ok1 || !ok2 || !ok3 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "RATE requires numeric arguments")
	}
	fv := 0.0
	if len(args) >= 4 {
		fv, _ = toNumber(args[3])
	}
	due := 0.0
	if len(args) >= 5 {
		dueAtStart, dueErr := parseDueFlag(args[4])
		if dueErr != nil {
			return nil, dueErr
		}
		if dueAtStart {
			due = 1
		}
	}
	guess := 0.1
	if len(args) >= 6 {
		if g, ok := toNumber(args[5]); ok {
			guess = g
		}
	}

	rate := guess
	for iter := 0; iter < 100; iter++ {
		if rate <= -1 {
			rate = -0.999999
		}
		factor := math.Pow(1+rate, nper)
		f := pv*factor + pmt*(1+rate*due)*(factor-1)/rate + fv
		df := nper*pv*math.Pow(1+rate, nper-1) +
			pmt*(1+rate*due)*(nper*math.Pow(1+rate, nper-1)*rate-(factor-1))/(rate*rate) +
			pmt*due*(factor-1)/rate
		if df == 0 {
			break
		}
		next := rate - f/df
		if math.Abs(next-rate) < 1e-10 {
			return next, nil
		}
		rate = next
	}
	return nil, NewSpreadsheetError(ErrorCodeNum, "RATE did not converge")
}

// SLN returns the straight-line depreciation for one period.
func (bf *BuiltInFunctions) SLN(args ...any) (Primitive, error) {
	if len(args) != 3 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "SLN requires exactly 3 arguments")
	}
	cost, ok1 := toNumber(args[0])
	salvage, ok2 := toNumber(args[1])
	life, ok3 := toNumber(args[2])
	if !ok1 || !ok2 || !ok3 || life == 0 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "SLN requires numeric arguments and a non-zero life")
	}
	return (cost - salvage) / life, nil
}

// SYD returns the sum-of-years-digits depreciation for a given period.
func (bf *BuiltInFunctions) SYD(args ...any) (Primitive, error) {
	if len(args) != 4 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "SYD requires exactly 4 arguments")
	}
	cost, ok1 := toNumber(args[0])
	salvage, ok2 := toNumber(args[1])
	life, ok3 := toNumber(args[2])
	per, ok4 := toNumber(args[3])
	if !ok1 || !ok2 || !ok3 || !ok4 || life == 0 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "SYD requires numeric arguments and a non-zero life")
	}
	sumOfYears := life * (life + 1) / 2
	return (cost - salvage) * (life - per + 1) / sumOfYears, nil
}

// DDB returns the double-declining-balance depreciation for a given period.
func (bf *BuiltInFunctions) DDB(args ...any) (Primitive, error) {
	if len(args) < 4 || len(args) > 5 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "DDB requires 4 or 5 arguments")
	}
	cost, ok1 := toNumber(args[0])
	salvage, ok2 := toNumber(args[1])
	life, ok3 := toNumber(args[2])
	period, ok4 := toNumber(args[3])
	if !ok1 || !ok2 || !ok3 || !ok4 || life == 0 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "DDB requires numeric arguments and a non-zero life")
	}
	factor := 2.0
	if len(args) == 5 {
		if f, ok := toNumber(args[4]); ok {
			factor = f
		}
	}

	rate := factor / life
	bookValue := cost
	var depreciation float64
	for p := 1.0; p <= period; p++ {
		depreciation = math.Min(bookValue*rate, bookValue-salvage)
		if p == period {
			break
		}
		bookValue -= depreciation
	}
	return depreciation, nil
}

// DB returns the fixed-declining-balance depreciation for a given period.
func (bf *BuiltInFunctions) DB(args ...any) (Primitive, error) {
	if len(args) < 4 || len(args) > 5 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "DB requires 4 or 5 arguments")
	}
	cost, ok1 := toNumber(args[0])
	salvage, ok2 := toNumber(args[1])
	life, ok3 := toNumber(args[2])
	period, ok4 := toNumber(args[3])
	if !ok1 || !ok2 || !ok3 || !ok4 || life == 0 || cost == 0 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "DB requires numeric arguments and non-zero cost and life")
	}
	month := 12.0
	if len(args) == 5 {
		if m, ok := toNumber(args[4]); ok {
			month = m
		}
	}

	rate := 1 - math.Pow(salvage/cost, 1/life)
	rate = math.Round(rate*1000) / 1000

	bookValue := cost
	var depreciation float64
	first := bookValue * rate * month / 12
	if period == 1 {
		return first, nil
	}
	bookValue -= first
	for p := 2.0; p <= period; p++ {
		depreciation = bookValue * rate
		bookValue -= depreciation
	}
	return depreciation, nil
}

// XNPV returns the net present value of cash flows occurring on specific,
// possibly irregularly-spaced, serial dates.
func (bf *BuiltInFunctions) XNPV(args ...any) (Primitive, error) {
	if len(args) != 3 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "XNPV requires exactly 3 arguments")
	}
	rate, ok := toNumber(args[0])
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "XNPV rate must be numeric")
	}
	cashFlows, err := flattenNumbers(args[1])
	if err != nil {
		return nil, err
	}
	dateSerials, err := flattenNumbers(args[2])
	if err != nil {
		return nil, err
	}
	if len(cashFlows) != len(dateSerials) || len(cashFlows) == 0 {
		return nil, NewSpreadsheetError(ErrorCodeNA, "XNPV requires equally-sized, non-empty cash flow and date ranges")
	}

	d0 := dateSerials[0]
	sum := 0.0
	for i, cf := range cashFlows {
		days := dateSerials[i] - d0
		sum += cf / math.Pow(1+rate, days/365.0)
	}
	return sum, nil
}

// XIRR returns the internal rate of return for cash flows occurring on
// specific serial dates, via Newton-Raphson iteration.
func (bf *BuiltInFunctions) XIRR(args ...any) (Primitive, error) {
	if len(args) < 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "XIRR requires at least 2 arguments")
	}
	cashFlows, err := flattenNumbers(args[0])
	if err != nil {
		return nil, err
	}
	dateSerials, err := flattenNumbers(args[1])
	if err != nil {
		return nil, err
	}
	if len(cashFlows) != len(dateSerials) || len(cashFlows) < 2 {
		return nil, NewSpreadsheetError(ErrorCodeNA, "XIRR requires equally-sized ranges with at least 2 cash flows")
	}
	guess := 0.1
	if len(args) >= 3 {
		if g, ok := toNumber(args[2]); ok {
			guess = g
		}
	}

	d0 := dateSerials[0]
	rate := guess
	for iter := 0; iter < 100; iter++ {
		npv, dnpv := 0.0, 0.0
		for i, cf := range cashFlows {
			years := (dateSerials[i] - d0) / 365.0
			denom := math.Pow(1+rate, years)
			npv += cf / denom
			dnpv -= years * cf / (denom * (1 + rate))
		}
		if dnpv == 0 {
			break
		}
		next := rate - npv/dnpv
		if math.Abs(next-rate) < 1e-10 {
			return next, nil
		}
		rate = next
	}
	return nil, NewSpreadsheetError(ErrorCodeNum, "XIRR did not converge")
}

// MIRR returns the modified internal rate of return, using separate
// finance and reinvestment rates for negative and positive cash flows.
func (bf *BuiltInFunctions) MIRR(args ...any) (Primitive, error) {
	if len(args) != 3 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "MIRR requires exactly 3 arguments")
	}
	cashFlows, err := flattenNumbers(args[0])
	if err != nil {
		return nil, err
	}
	financeRate, ok1 := toNumber(args[1])
	reinvestRate, ok2 := toNumber(args[2])
	if !ok1 || !ok2 || len(cashFlows) < 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "MIRR requires numeric rates and at least 2 cash flows")
	}

	n := len(cashFlows) - 1
	var pvNegative, fvPositive float64
	for i, cf := range cashFlows {
		if cf < 0 {
			pvNegative += cf / math.Pow(1+financeRate, float64(i))
		} else if cf > 0 {
			fvPositive += cf * math.Pow(1+reinvestRate, float64(n-i))
		}
	}
	if pvNegative == 0 || fvPositive == 0 {
		return nil, NewSpreadsheetError(ErrorCodeDiv0, "MIRR requires both positive and negative cash flows")
	}
	return math.Pow(-fvPositive/pvNegative, 1.0/float64(n)) - 1, nil
}

// CUMIPMT returns the cumulative interest paid between two periods of a
// loan.
func (bf *BuiltInFunctions) CUMIPMT(args ...any) (Primitive, error) {
	if len(args) != 6 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "CUMIPMT requires exactly 6 arguments")
	}
	rate, ok1 := toNumber(args[0])
	nper, ok2 := toNumber(args[1])
	pv, ok3 := toNumber(args[2])
	startPeriod, ok4 := toNumber(args[3])
	endPeriod, ok5 := toNumber(args[4])
	dueAtStart, dueErr := parseDueFlag(args[5])
	if dueErr != nil {
		return nil, dueErr
	}
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || startPeriod < 1 || startPeriod > endPeriod {
		return nil, NewSpreadsheetError(ErrorCodeValue, "CUMIPMT requires valid numeric arguments")
	}

	sum := 0.0
	for per := startPeriod; per <= endPeriod; per++ {
		ipmtArgs := []any{rate, per, nper, pv, 0.0, dueAtStart}
		ipmt, err := bf.IPMT(ipmtArgs...)
		if err != nil {
			return nil, err
		}
		sum += ipmt.(float64)
	}
	return sum, nil
}

// CUMPRINC returns the cumulative principal paid between two periods of a
// loan.
func (bf *BuiltInFunctions) CUMPRINC(args ...any) (Primitive, error) {
	if len(args) != 6 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "CUMPRINC requires exactly 6 arguments")
	}
	rate, ok1 := toNumber(args[0])
	nper, ok2 := toNumber(args[1])
	pv, ok3 := toNumber(args[2])
	startPeriod, ok4 := toNumber(args[3])
	endPeriod, ok5 := toNumber(args[4])
	dueAtStart, dueErr := parseDueFlag(args[5])
	if dueErr != nil {
		return nil, dueErr
	}
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || startPeriod < 1 || startPeriod > endPeriod {
		return nil, NewSpreadsheetError(ErrorCodeValue, "CUMPRINC requires valid numeric arguments")
	}

	sum := 0.0
	for per := startPeriod; per <= endPeriod; per++ {
		ppmtArgs := []any{rate, per, nper, pv, 0.0, dueAtStart}
		ppmt, err := bf.PPMT(ppmtArgs...)
		if err != nil {
			return nil, err
		}
		sum += ppmt.(float64)
	}
	return sum, nil
}
