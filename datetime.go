package ssengine

import (
	"fmt"
	"time"
)

// serialEpoch is the day the spreadsheet serial-date scheme counts from:
// serial 1 is 1900-01-01. Like the spreadsheet products this mirrors, the
// scheme also carries the historical 1900 leap-year bug - serial 60 is a
// fictitious 1900-02-29 - so from serial 61 on, date math runs one day
// ahead of a true proleptic Gregorian count. dateFromSerial and
// serialFromDate both apply the same adjustment, so round-tripping a date
// through a serial number is exact; only the mapping to the *true*
// calendar is off by one day for dates on or after March 1900.
var serialEpoch = time.Date(1899, time.December, 31, 0, 0, 0, 0, time.UTC)

func serialFromDate(t time.Time) float64 {
	realDays := int(t.Sub(serialEpoch).Hours()/24 + 0.5)
	if realDays >= 60 {
		return float64(realDays + 1)
	}
	return float64(realDays)
}

func dateFromSerial(serial float64) time.Time {
	s := int(serial)
	if s >= 61 {
		s--
	}
	return serialEpoch.AddDate(0, 0, s)
}

func toDate(value Primitive) (time.Time, bool) {
	num, ok := toNumber(value)
	if !ok {
		return time.Time{}, false
	}
	return dateFromSerial(num), true
}

// DATE builds a serial date number from year, month, and day components.
func (bf *BuiltInFunctions) DATE(args ...any) (Primitive, error) {
	if len(args) != 3 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "DATE requires exactly 3 arguments")
	}
	year, ok1 := toNumber(args[0])
	month, ok2 := toNumber(args[1])
	day, ok3 := toNumber(args[2])
	if !ok1 || !ok2 || !ok3 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "DATE arguments must be numeric")
	}
	t := time.Date(int(year), time.Month(1), 1, 0, 0, 0, 0, time.UTC)
	t = t.AddDate(0, int(month)-1, int(day)-1)
	return serialFromDate(t), nil
}

// YEAR returns the calendar year component of a serial date.
func (bf *BuiltInFunctions) YEAR(args ...any) (Primitive, error) {
	if len(args) != 1 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "YEAR requires exactly 1 argument")
	}
	t, ok := toDate(args[0])
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "YEAR requires a date serial number")
	}
	return float64(t.Year()), nil
}

// MONTH returns the month component (1-12) of a serial date.
func (bf *BuiltInFunctions) MONTH(args ...any) (Primitive, error) {
	if len(args) != 1 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "MONTH requires exactly 1 argument")
	}
	t, ok := toDate(args[0])
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "MONTH requires a date serial number")
	}
	return float64(t.Month()), nil
}

// DAY returns the day-of-month component of a serial date.
func (bf *BuiltInFunctions) DAY(args ...any) (Primitive, error) {
	if len(args) != 1 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "DAY requires exactly 1 argument")
	}
	t, ok := toDate(args[0])
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "DAY requires a date serial number")
	}
	return float64(t.Day()), nil
}

// WEEKDAY returns the day of the week for a serial date, 1 (Sunday)
// through 7 (Saturday) by default.
func (bf *BuiltInFunctions) WEEKDAY(args ...any) (Primitive, error) {
	if len(args) < 1 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "WEEKDAY requires at least 1 argument")
	}
	t, ok := toDate(args[0])
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "WEEKDAY requires a date serial number")
	}
	return float64(int(t.Weekday()) + 1), nil
}

// EDATE returns the serial date that is months before or after start_date.
func (bf *BuiltInFunctions) EDATE(args ...any) (Primitive, error) {
	if len(args) != 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "EDATE requires exactly 2 arguments")
	}
	t, ok := toDate(args[0])
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "EDATE requires a date serial number")
	}
	months, ok := toNumber(args[1])
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "EDATE months must be numeric")
	}
	return serialFromDate(t.AddDate(0, int(months), 0)), nil
}

// EOMONTH returns the serial date of the last day of the month that is
// months before or after start_date.
func (bf *BuiltInFunctions) EOMONTH(args ...any) (Primitive, error) {
	if len(args) != 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "EOMONTH requires exactly 2 arguments")
	}
	t, ok := toDate(args[0])
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "EOMONTH requires a date serial number")
	}
	months, ok := toNumber(args[1])
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "EOMONTH months must be numeric")
	}
	firstOfTargetMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, int(months), 0)
	lastDay := firstOfTargetMonth.AddDate(0, 1, -1)
	return serialFromDate(lastDay), nil
}

// DATEDIF returns the difference between two dates in the given unit
// ("Y", "M", "D", "MD", "YM", "YD").
func (bf *BuiltInFunctions) DATEDIF(args ...any) (Primitive, error) {
	if len(args) != 3 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "DATEDIF requires exactly 3 arguments")
	}
	start, ok1 := toDate(args[0])
	end, ok2 := toDate(args[1])
	if !ok1 || !ok2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "DATEDIF requires date serial numbers")
	}
	unit := toString(args[2])

	switch unit {
	case "Y":
		years := end.Year() - start.Year()
		if end.Month() < start.Month() || (end.Month() == start.Month() && end.Day() < start.Day()) {
			years--
		}
		if years < 0 {
			return nil, NewSpreadsheetError(ErrorCodeNum, "DATEDIF end date precedes start date")
		}
		return float64(years), nil
	case "D":
		return float64(int(end.Sub(start).Hours() / 24)), nil
	case "M":
		months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
		if end.Day() < start.Day() {
			months--
		}
		if months < 0 {
			return nil, NewSpreadsheetError(ErrorCodeNum, "DATEDIF end date precedes start date")
		}
		return float64(months), nil
	case "MD":
		day := end.Day() - start.Day()
		if day < 0 {
			prevMonth := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
			day += prevMonth.Day()
		}
		return float64(day), nil
	case "YM":
		months := int(end.Month()) - int(start.Month())
		if months < 0 {
			months += 12
		}
		return float64(months), nil
	case "YD":
		sameYearStart := time.Date(end.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
		if sameYearStart.After(end) {
			sameYearStart = sameYearStart.AddDate(-1, 0, 0)
		}
		return float64(int(end.Sub(sameYearStart).Hours() / 24)), nil
	}
	return nil, NewSpreadsheetError(ErrorCodeNum, fmt.Sprintf("DATEDIF unrecognized unit: %s", unit))
}

// NETWORKDAYS counts whole working days (Monday-Friday) between two dates,
// inclusive, excluding any dates present in an optional holidays range.
func (bf *BuiltInFunctions) NETWORKDAYS(args ...any) (Primitive, error) {
	if len(args) < 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "NETWORKDAYS requires at least 2 arguments")
	}
	start, ok1 := toDate(args[0])
	end, ok2 := toDate(args[1])
	if !ok1 || !ok2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "NETWORKDAYS requires date serial numbers")
	}

	holidays := map[string]bool{}
	if len(args) >= 3 {
		if cr, ok := args[2].(*CellRange); ok {
			for _, v := range rangeValues(cr) {
				if t, ok := toDate(v); ok {
					holidays[t.Format("2006-01-02")] = true
				}
			}
		}
	}

	ascending := true
	if end.Before(start) {
		start, end = end, start
		ascending = false
	}

	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		if holidays[d.Format("2006-01-02")] {
			continue
		}
		count++
	}
	if !ascending {
		count = -count
	}
	return float64(count), nil
}

// WORKDAY returns the serial date that is days working days after (or
// before, if negative) start_date, skipping weekends and an optional
// holidays range.
func (bf *BuiltInFunctions) WORKDAY(args ...any) (Primitive, error) {
	if len(args) < 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "WORKDAY requires at least 2 arguments")
	}
	start, ok := toDate(args[0])
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "WORKDAY requires a date serial number")
	}
	days, ok := toNumber(args[1])
	if !ok {
		return nil, NewSpreadsheetError(ErrorCodeValue, "WORKDAY days must be numeric")
	}

	holidays := map[string]bool{}
	if len(args) >= 3 {
		if cr, ok := args[2].(*CellRange); ok {
			for _, v := range rangeValues(cr) {
				if t, ok := toDate(v); ok {
					holidays[t.Format("2006-01-02")] = true
				}
			}
		}
	}

	step := 1
	remaining := int(days)
	if remaining < 0 {
		step = -1
		remaining = -remaining
	}

	current := start
	for remaining > 0 {
		current = current.AddDate(0, 0, step)
		if current.Weekday() == time.Saturday || current.Weekday() == time.Sunday {
			continue
		}
		if holidays[current.Format("2006-01-02")] {
			continue
		}
		remaining--
	}
	return serialFromDate(current), nil
}

// YEARFRAC returns the fraction of a year between two dates using the
// 30/360 US convention (basis 0, the default basis this implements).
func (bf *BuiltInFunctions) YEARFRAC(args ...any) (Primitive, error) {
	if len(args) < 2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "YEARFRAC requires at least 2 arguments")
	}
	start, ok1 := toDate(args[0])
	end, ok2 := toDate(args[1])
	if !ok1 || !ok2 {
		return nil, NewSpreadsheetError(ErrorCodeValue, "YEARFRAC requires date serial numbers")
	}
	if end.Before(start) {
		start, end = end, start
	}

	d1, m1, y1 := start.Day(), int(start.Month()), start.Year()
	d2, m2, y2 := end.Day(), int(end.Month()), end.Year()
	if d1 == 31 {
		d1 = 30
	}
	if d2 == 31 && d1 == 30 {
		d2 = 30
	}

	days := float64((y2-y1)*360 + (m2-m1)*30 + (d2 - d1))
	return days / 360.0, nil
}
