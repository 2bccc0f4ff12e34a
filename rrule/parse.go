package rrule

import (
	"strconv"
	"strings"

	"github.com/samber/mo"

	"github.com/cyp0633/librecur/datetime"
)

// Parse reads the value of an RRULE (or EXRULE) property. dateOnly tells the parser
// whether the rule's anchor is a DATE; UNTIL must have the same form and time-of-day
// parts are rejected for DATE anchors.
//
// Parsing is strict: unknown or repeated parts, empty lists and out-of-range values
// fail with a *FormatError.
func Parse(text string, dateOnly bool) (*Rule, error) {
	text = strings.TrimSpace(text)
	if len(text) >= 6 && strings.EqualFold(text[:6], "RRULE:") {
		text = text[6:]
	} else if len(text) >= 7 && strings.EqualFold(text[:7], "EXRULE:") {
		text = text[7:]
	}
	if text == "" {
		return nil, formatError("FREQ", "", "required part is missing")
	}

	r := &Rule{Interval: 1, WeekStart: MO}
	seen := make(map[string]bool)
	for _, part := range strings.Split(text, ";") {
		if strings.TrimSpace(part) == "" {
			return nil, formatError("", part, "empty part")
		}
		name, value, ok := strings.Cut(part, "=")
		name = strings.ToUpper(strings.TrimSpace(name))
		if !ok {
			return nil, formatError(name, "", "expected NAME=value")
		}
		if name == "" {
			return nil, formatError("", part, "empty part name")
		}
		if seen[name] {
			return nil, formatError(name, value, "part appears more than once")
		}
		seen[name] = true
		if value == "" {
			return nil, formatError(name, "", "empty value")
		}
		if err := r.setPart(name, strings.ToUpper(value), dateOnly); err != nil {
			return nil, err
		}
	}
	if !seen["FREQ"] {
		return nil, formatError("FREQ", "", "required part is missing")
	}
	if err := r.Validate(dateOnly); err != nil {
		return nil, err
	}
	return r, nil
}

// MustParse is like Parse but panics on error.
func MustParse(text string, dateOnly bool) *Rule {
	r, err := Parse(text, dateOnly)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Rule) setPart(name, value string, dateOnly bool) error {
	var err error
	switch name {
	case "FREQ":
		f, ok := ParseFrequency(value)
		if !ok {
			return formatError(name, value, "unknown frequency")
		}
		r.Freq = f
	case "INTERVAL":
		r.Interval, err = positiveInt(name, value)
	case "COUNT":
		var n int
		n, err = positiveInt(name, value)
		r.Count = mo.Some(n)
	case "UNTIL":
		dt, utc, perr := datetime.Parse(value)
		if perr != nil {
			return formatError(name, value, "malformed date or date-time")
		}
		if dt.HasTime == dateOnly {
			return formatError(name, value, "form must match the anchor's DATE or DATE-TIME type")
		}
		r.Until = mo.Some(dt)
		r.UntilUTC = utc
	case "WKST":
		wd, ok := ParseWeekday(value)
		if !ok {
			return formatError(name, value, "unknown weekday")
		}
		r.WeekStart = wd
	case "BYDAY":
		r.ByDay, err = parseByDay(value)
	case "BYSECOND":
		r.BySecond, err = parseIntList(PartBySecond, value)
	case "BYMINUTE":
		r.ByMinute, err = parseIntList(PartByMinute, value)
	case "BYHOUR":
		r.ByHour, err = parseIntList(PartByHour, value)
	case "BYMONTHDAY":
		r.ByMonthDay, err = parseIntList(PartByMonthDay, value)
	case "BYYEARDAY":
		r.ByYearDay, err = parseIntList(PartByYearDay, value)
	case "BYWEEKNO":
		r.ByWeekNo, err = parseIntList(PartByWeekNo, value)
	case "BYMONTH":
		r.ByMonth, err = parseIntList(PartByMonth, value)
	case "BYSETPOS":
		r.BySetPos, err = parseIntList(PartBySetPos, value)
	default:
		return formatError(name, value, "unknown part")
	}
	return err
}

func positiveInt(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, formatError(name, value, "must be a positive integer")
	}
	return n, nil
}

func parseIntList(p ByPart, value string) ([]int, error) {
	spec := partSpecs[p]
	items := strings.Split(value, ",")
	out := make([]int, 0, len(items))
	for _, item := range items {
		if item == "" {
			return nil, formatError(spec.name, value, "empty list element")
		}
		n, err := strconv.Atoi(item)
		if err != nil {
			return nil, formatError(spec.name, item, "not an integer")
		}
		if !spec.contains(n) {
			return nil, formatError(spec.name, item, rangeReason(spec))
		}
		out = append(out, n)
	}
	return out, nil
}

func parseByDay(value string) ([]WeekdayNum, error) {
	items := strings.Split(value, ",")
	out := make([]WeekdayNum, 0, len(items))
	for _, item := range items {
		if len(item) < 2 {
			return nil, formatError("BYDAY", item, "expected [+/-ordinal]weekday")
		}
		day, ok := ParseWeekday(item[len(item)-2:])
		if !ok {
			return nil, formatError("BYDAY", item, "unknown weekday")
		}
		wn := WeekdayNum{Day: day}
		if prefix := item[:len(item)-2]; prefix != "" {
			n, err := strconv.Atoi(prefix)
			if err != nil || prefix == "+" || prefix == "-" {
				return nil, formatError("BYDAY", item, "malformed ordinal")
			}
			if n == 0 || !partSpecs[PartByDay].contains(n) {
				return nil, formatError("BYDAY", item, "ordinal must be between -53 and -1 or 1 and 53")
			}
			wn.N = n
		}
		out = append(out, wn)
	}
	return out, nil
}

func rangeReason(s partSpec) string {
	if s.signed {
		return "must be between " + strconv.Itoa(-s.max) + " and " + strconv.Itoa(-s.min) +
			" or " + strconv.Itoa(s.min) + " and " + strconv.Itoa(s.max)
	}
	return "must be between " + strconv.Itoa(s.min) + " and " + strconv.Itoa(s.max)
}
