// Package rrule models, parses and expands RFC 5545 recurrence rules.
//
// A Rule is parsed once with Parse and never mutated afterwards. Expansion is lazy:
// an Iterator produces one period of candidates at a time and can be abandoned at any
// point without cleanup.
package rrule

import (
	"fmt"

	"github.com/samber/mo"

	"github.com/cyp0633/librecur/datetime"
)

// Frequency is the unit a rule advances by. Lower values are coarser.
type Frequency int

const (
	Yearly Frequency = iota + 1
	Monthly
	Weekly
	Daily
	Hourly
	Minutely
	Secondly
)

var frequencyNames = map[Frequency]string{
	Yearly:   "YEARLY",
	Monthly:  "MONTHLY",
	Weekly:   "WEEKLY",
	Daily:    "DAILY",
	Hourly:   "HOURLY",
	Minutely: "MINUTELY",
	Secondly: "SECONDLY",
}

func (f Frequency) String() string {
	if s, ok := frequencyNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Frequency(%d)", int(f))
}

// seconds is the length of one unit of a sub-daily frequency.
func (f Frequency) seconds() int {
	switch f {
	case Hourly:
		return 3600
	case Minutely:
		return 60
	}
	return 1
}

// Valid reports whether f is one of the seven defined frequencies.
func (f Frequency) Valid() bool {
	return f >= Yearly && f <= Secondly
}

// ParseFrequency accepts the upper-case RFC names.
func ParseFrequency(s string) (Frequency, bool) {
	for f, name := range frequencyNames {
		if name == s {
			return f, true
		}
	}
	return 0, false
}

// Weekday numbers days Monday = 0 through Sunday = 6.
type Weekday int

const (
	MO Weekday = iota
	TU
	WE
	TH
	FR
	SA
	SU
)

var weekdayCodes = [7]string{"MO", "TU", "WE", "TH", "FR", "SA", "SU"}

func (w Weekday) String() string {
	if w < MO || w > SU {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayCodes[w]
}

// ParseWeekday accepts a two-letter upper-case code.
func ParseWeekday(s string) (Weekday, bool) {
	for i, code := range weekdayCodes {
		if code == s {
			return Weekday(i), true
		}
	}
	return 0, false
}

// WeekdayNum is a BYDAY element: an optional signed ordinal and a weekday.
// N == 0 means every such weekday in the period.
type WeekdayNum struct {
	N   int
	Day Weekday
}

func (w WeekdayNum) String() string {
	if w.N == 0 {
		return w.Day.String()
	}
	return fmt.Sprintf("%d%s", w.N, w.Day)
}

// Rule is one recurrence rule. Count and Until are never both present.
type Rule struct {
	Freq     Frequency
	Interval int // 0 is read as 1
	Count    mo.Option[int]
	Until    mo.Option[datetime.DateTime]
	// UntilUTC records that UNTIL was written with a trailing Z.
	UntilUTC  bool
	WeekStart Weekday

	BySecond   []int
	ByMinute   []int
	ByHour     []int
	ByDay      []WeekdayNum
	ByMonthDay []int
	ByYearDay  []int
	ByWeekNo   []int
	ByMonth    []int
	BySetPos   []int
}

// ByPart names a by-part list.
type ByPart int

const (
	PartBySecond ByPart = iota
	PartByMinute
	PartByHour
	PartByDay
	PartByMonthDay
	PartByYearDay
	PartByWeekNo
	PartByMonth
	PartBySetPos
)

type partSpec struct {
	name   string
	min    int
	max    int
	signed bool // -max..-min is valid too
}

// In RFC 5545 serialization order.
var partSpecs = [...]partSpec{
	PartBySecond:   {"BYSECOND", 0, 60, false},
	PartByMinute:   {"BYMINUTE", 0, 59, false},
	PartByHour:     {"BYHOUR", 0, 23, false},
	PartByDay:      {"BYDAY", 1, 53, true},
	PartByMonthDay: {"BYMONTHDAY", 1, 31, true},
	PartByYearDay:  {"BYYEARDAY", 1, 366, true},
	PartByWeekNo:   {"BYWEEKNO", 1, 53, true},
	PartByMonth:    {"BYMONTH", 1, 12, false},
	PartBySetPos:   {"BYSETPOS", 1, 366, true},
}

func (p ByPart) String() string {
	if p < 0 || int(p) >= len(partSpecs) {
		return fmt.Sprintf("ByPart(%d)", int(p))
	}
	return partSpecs[p].name
}

func (s partSpec) contains(v int) bool {
	if v >= s.min && v <= s.max {
		return true
	}
	return s.signed && v <= -s.min && v >= -s.max
}

// Values returns the integer list for a numeric by-part. BYDAY has no integer list
// and returns nil.
func (r *Rule) Values(p ByPart) []int {
	switch p {
	case PartBySecond:
		return r.BySecond
	case PartByMinute:
		return r.ByMinute
	case PartByHour:
		return r.ByHour
	case PartByMonthDay:
		return r.ByMonthDay
	case PartByYearDay:
		return r.ByYearDay
	case PartByWeekNo:
		return r.ByWeekNo
	case PartByMonth:
		return r.ByMonth
	case PartBySetPos:
		return r.BySetPos
	}
	return nil
}

// Has reports whether the by-part list is present.
func (r *Rule) Has(p ByPart) bool {
	if p == PartByDay {
		return len(r.ByDay) > 0
	}
	return len(r.Values(p)) > 0
}

func (r *Rule) interval() int {
	if r.Interval < 1 {
		return 1
	}
	return r.Interval
}
