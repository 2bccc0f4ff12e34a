// Package datetime provides the floating local date-time, duration and period values
// the recurrence engine computes with. A DateTime carries no zone; callers that need
// absolute instants supply an OffsetFunc.
package datetime

import (
	"fmt"
	"time"

	"github.com/cyp0633/librecur/internal/calendar"
)

// DateTime is a local calendar point. When HasTime is false it is a DATE value and
// the clock fields are zero.
type DateTime struct {
	Year    int
	Month   int
	Day     int
	Hour    int
	Minute  int
	Second  int
	HasTime bool
}

// New returns a validated date-time. Second may be 60 to tolerate leap seconds.
func New(year, month, day, hour, minute, second int) (DateTime, error) {
	dt := DateTime{year, month, day, hour, minute, second, true}
	if err := dt.Validate(); err != nil {
		return DateTime{}, err
	}
	return dt, nil
}

// NewDate returns a validated DATE value.
func NewDate(year, month, day int) (DateTime, error) {
	dt := DateTime{Year: year, Month: month, Day: day}
	if err := dt.Validate(); err != nil {
		return DateTime{}, err
	}
	return dt, nil
}

// MustNew is like New but panics on invalid input. Intended for tests and constants.
func MustNew(year, month, day, hour, minute, second int) DateTime {
	dt, err := New(year, month, day, hour, minute, second)
	if err != nil {
		panic(err)
	}
	return dt
}

// MustDate is like NewDate but panics on invalid input.
func MustDate(year, month, day int) DateTime {
	dt, err := NewDate(year, month, day)
	if err != nil {
		panic(err)
	}
	return dt
}

// Validate checks every field against the proleptic Gregorian calendar.
func (dt DateTime) Validate() error {
	switch {
	case dt.Year < calendar.MinYear || dt.Year > calendar.MaxYear:
		return rangeError("year", dt.Year, "must be between 1 and 9999")
	case dt.Month < 1 || dt.Month > 12:
		return rangeError("month", dt.Month, "must be between 1 and 12")
	case dt.Day < 1 || dt.Day > calendar.DaysInMonth(dt.Year, dt.Month):
		return rangeError("day", dt.Day, fmt.Sprintf("not valid for %04d-%02d", dt.Year, dt.Month))
	}
	if !dt.HasTime {
		if dt.Hour != 0 || dt.Minute != 0 || dt.Second != 0 {
			return rangeError("time", dt.clock(), "date value carries a time of day")
		}
		return nil
	}
	switch {
	case dt.Hour < 0 || dt.Hour > 23:
		return rangeError("hour", dt.Hour, "must be between 0 and 23")
	case dt.Minute < 0 || dt.Minute > 59:
		return rangeError("minute", dt.Minute, "must be between 0 and 59")
	case dt.Second < 0 || dt.Second > 60:
		return rangeError("second", dt.Second, "must be between 0 and 60")
	}
	return nil
}

// IsZero reports whether dt is the zero value.
func (dt DateTime) IsZero() bool {
	return dt == DateTime{}
}

// Compare orders by the six numeric fields, treating a DATE as midnight. When the
// fields tie, a DATE sorts before a time-bearing midnight.
func (dt DateTime) Compare(o DateTime) int {
	a := [6]int{dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second}
	b := [6]int{o.Year, o.Month, o.Day, o.Hour, o.Minute, o.Second}
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case dt.HasTime == o.HasTime:
		return 0
	case !dt.HasTime:
		return -1
	default:
		return 1
	}
}

// Equal reports exact equality; a DATE never equals a time-bearing value.
func (dt DateTime) Equal(o DateTime) bool { return dt == o }

func (dt DateTime) Before(o DateTime) bool { return dt.Compare(o) < 0 }
func (dt DateTime) After(o DateTime) bool  { return dt.Compare(o) > 0 }

// Date truncates to a DATE value.
func (dt DateTime) Date() DateTime {
	return DateTime{Year: dt.Year, Month: dt.Month, Day: dt.Day}
}

// WithTime returns the same day at the given clock time.
func (dt DateTime) WithTime(hour, minute, second int) DateTime {
	return DateTime{dt.Year, dt.Month, dt.Day, hour, minute, second, true}
}

// Weekday returns the day of the week.
func (dt DateTime) Weekday() time.Weekday {
	return time.Weekday((calendar.Weekday(dt.Year, dt.Month, dt.Day) + 1) % 7)
}

// YearDay returns the 1-based day of the year.
func (dt DateTime) YearDay() int {
	return calendar.YearDay(dt.Year, dt.Month, dt.Day)
}

// AddDays moves the date by n days, keeping the clock time.
func (dt DateTime) AddDays(n int) DateTime {
	y, m, d := calendar.FromOrdinal(calendar.Ordinal(dt.Year, dt.Month, dt.Day) + n)
	dt.Year, dt.Month, dt.Day = y, m, d
	return dt
}

// AddSeconds moves a date-time by n seconds. A leap second (60) normalizes into
// the next minute. On a DATE value only whole days are applied.
func (dt DateTime) AddSeconds(n int) DateTime {
	if !dt.HasTime {
		days, _ := calendar.DivMod(n, 86400)
		return dt.AddDays(days)
	}
	total := dt.Hour*3600 + dt.Minute*60 + dt.Second + n
	days, rem := calendar.DivMod(total, 86400)
	out := dt.AddDays(days)
	out.Hour, out.Minute, out.Second = rem/3600, rem%3600/60, rem%60
	return out
}

// AddDuration applies a signed duration. Adding a duration with a time part to a
// DATE value promotes the result to a date-time at midnight plus that part.
func (dt DateTime) AddDuration(d Duration) DateTime {
	if !dt.HasTime && d.hasTimePart() {
		dt.HasTime = true
	}
	return dt.AddSeconds(d.TotalSeconds())
}

// Sub returns dt - o in seconds, DATE values counting as midnight.
func (dt DateTime) Sub(o DateTime) int {
	days := calendar.Ordinal(dt.Year, dt.Month, dt.Day) - calendar.Ordinal(o.Year, o.Month, o.Day)
	return days*86400 + (dt.Hour-o.Hour)*3600 + (dt.Minute-o.Minute)*60 + (dt.Second - o.Second)
}

// FromTime takes the wall clock of t in its own location.
func FromTime(t time.Time) DateTime {
	return DateTime{t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), true}
}

// DateFromTime takes the calendar date of t in its own location.
func DateFromTime(t time.Time) DateTime {
	return DateTime{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// Time places dt in loc. A nil loc means UTC.
func (dt DateTime) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(dt.Year, time.Month(dt.Month), dt.Day, dt.Hour, dt.Minute, dt.Second, 0, loc)
}

func (dt DateTime) clock() string {
	return fmt.Sprintf("%02d:%02d:%02d", dt.Hour, dt.Minute, dt.Second)
}
