package datetime

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse reads the RFC 5545 basic forms YYYYMMDD and YYYYMMDDTHHMMSS, the latter
// with an optional trailing Z. utc reports whether the Z was present.
func Parse(s string) (dt DateTime, utc bool, err error) {
	s = strings.TrimSpace(s)
	switch {
	case len(s) == 8:
		y, m, d, err := parseDate(s)
		if err != nil {
			return DateTime{}, false, err
		}
		dt, err = NewDate(y, m, d)
		return dt, false, err
	case len(s) == 15 || (len(s) == 16 && (s[15] == 'Z' || s[15] == 'z')):
		if s[8] != 'T' && s[8] != 't' {
			return DateTime{}, false, rangeError("date-time", s, "missing T separator")
		}
		y, m, d, err := parseDate(s[:8])
		if err != nil {
			return DateTime{}, false, err
		}
		hh, err1 := atoi(s[9:11])
		mm, err2 := atoi(s[11:13])
		ss, err3 := atoi(s[13:15])
		if err1 != nil || err2 != nil || err3 != nil {
			return DateTime{}, false, rangeError("date-time", s, "malformed time")
		}
		dt, err = New(y, m, d, hh, mm, ss)
		return dt, len(s) == 16, err
	}
	return DateTime{}, false, rangeError("date-time", s, "expected YYYYMMDD or YYYYMMDDTHHMMSS[Z]")
}

// MustParse is like Parse but panics on error and ignores the UTC marker.
func MustParse(s string) DateTime {
	dt, _, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return dt
}

func parseDate(s string) (y, m, d int, err error) {
	y, err1 := atoi(s[0:4])
	m, err2 := atoi(s[4:6])
	d, err3 := atoi(s[6:8])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, rangeError("date", s, "malformed date")
	}
	return y, m, d, nil
}

func atoi(s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}

// String formats dt in the basic form without a zone marker.
func (dt DateTime) String() string {
	if !dt.HasTime {
		return fmt.Sprintf("%04d%02d%02d", dt.Year, dt.Month, dt.Day)
	}
	return fmt.Sprintf("%04d%02d%02dT%02d%02d%02d", dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second)
}

// StringUTC formats dt with a trailing Z. DATE values have no zone and are
// formatted as by String.
func (dt DateTime) StringUTC() string {
	if !dt.HasTime {
		return dt.String()
	}
	return dt.String() + "Z"
}
