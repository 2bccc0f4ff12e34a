// Package calendar holds proleptic Gregorian calendar arithmetic shared by the
// datetime and rrule packages. Weekdays are numbered Monday = 0 .. Sunday = 6.
package calendar

const (
	// MinYear and MaxYear bound the years the engine generates.
	MinYear = 1
	MaxYear = 9999
)

var monthDays = [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// IsLeap reports whether year is a Gregorian leap year.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInYear returns 365 or 366.
func DaysInYear(year int) int {
	if IsLeap(year) {
		return 366
	}
	return 365
}

// DaysInMonth returns the length of month (1-12) in year, or 0 for an invalid month.
func DaysInMonth(year, month int) int {
	if month < 1 || month > 12 {
		return 0
	}
	if month == 2 && IsLeap(year) {
		return 29
	}
	return monthDays[month]
}

// MonthStarts returns, for the given year, the 0-based year-day at which each month
// starts. Index 12 holds the year length, so month m spans [s[m-1], s[m]).
func MonthStarts(year int) [13]int {
	var s [13]int
	for m := 1; m <= 12; m++ {
		s[m] = s[m-1] + DaysInMonth(year, m)
	}
	return s
}

// YearDay returns the 1-based day of the year.
func YearDay(year, month, day int) int {
	return MonthStarts(year)[month-1] + day
}

// Ordinal returns the number of days since 1970-01-01 for the civil date.
func Ordinal(year, month, day int) int {
	y := year
	if month <= 2 {
		y--
	}
	era := floorDiv(y, 400)
	yoe := y - era*400
	mp := (month + 9) % 12
	doy := (153*mp+2)/5 + day - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

// FromOrdinal is the inverse of Ordinal.
func FromOrdinal(n int) (year, month, day int) {
	z := n + 719468
	era := floorDiv(z, 146097)
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	day = doy - (153*mp+2)/5 + 1
	month = mp + 3
	if month > 12 {
		month -= 12
	}
	if month <= 2 {
		y++
	}
	return y, month, day
}

// Weekday returns the weekday of the civil date, Monday = 0.
func Weekday(year, month, day int) int {
	// 1970-01-01 was a Thursday.
	return Mod(Ordinal(year, month, day)+3, 7)
}

// Mod is the non-negative remainder of a / b for b > 0.
func Mod(a, b int) int {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}

// DivMod is floor division returning quotient and non-negative remainder.
func DivMod(a, b int) (int, int) {
	return floorDiv(a, b), Mod(a, b)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
