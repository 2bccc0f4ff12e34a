package datetime

import (
	"strconv"
	"strings"
	"time"
)

// Duration is an RFC 5545 signed duration. Magnitudes are non-negative; Negative
// carries the sign.
type Duration struct {
	Negative bool
	Weeks    int
	Days     int
	Hours    int
	Minutes  int
	Seconds  int
}

// FromSeconds builds a day-time duration from a signed number of seconds.
func FromSeconds(n int) Duration {
	var d Duration
	if n < 0 {
		d.Negative = true
		n = -n
	}
	d.Days, n = n/86400, n%86400
	d.Hours, n = n/3600, n%3600
	d.Minutes, d.Seconds = n/60, n%60
	return d
}

// TotalSeconds returns the signed total length in seconds.
func (d Duration) TotalSeconds() int {
	n := (d.Weeks*7+d.Days)*86400 + d.Hours*3600 + d.Minutes*60 + d.Seconds
	if d.Negative {
		return -n
	}
	return n
}

// Compare orders durations by signed length.
func (d Duration) Compare(o Duration) int {
	a, b := d.TotalSeconds(), o.TotalSeconds()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Neg flips the sign.
func (d Duration) Neg() Duration {
	d.Negative = !d.Negative
	return d
}

// IsZero reports a zero-length duration.
func (d Duration) IsZero() bool { return d.TotalSeconds() == 0 }

func (d Duration) hasTimePart() bool {
	return d.Hours != 0 || d.Minutes != 0 || d.Seconds != 0
}

// String formats d. The weeks form is only used when weeks is the sole component.
func (d Duration) String() string {
	var b strings.Builder
	if d.Negative && !d.IsZero() {
		b.WriteByte('-')
	}
	b.WriteByte('P')
	if d.Weeks != 0 && d.Days == 0 && !d.hasTimePart() {
		b.WriteString(strconv.Itoa(d.Weeks))
		b.WriteByte('W')
		return b.String()
	}
	days := d.Weeks*7 + d.Days
	if days != 0 {
		b.WriteString(strconv.Itoa(days))
		b.WriteByte('D')
	}
	if d.hasTimePart() {
		b.WriteByte('T')
		if d.Hours != 0 {
			b.WriteString(strconv.Itoa(d.Hours))
			b.WriteByte('H')
		}
		if d.Minutes != 0 {
			b.WriteString(strconv.Itoa(d.Minutes))
			b.WriteByte('M')
		}
		if d.Seconds != 0 {
			b.WriteString(strconv.Itoa(d.Seconds))
			b.WriteByte('S')
		}
	} else if days == 0 {
		b.WriteString("T0S")
	}
	return b.String()
}

// ParseDuration reads [+-]P[nW] or [+-]P[nD][T[nH][nM][nS]].
func ParseDuration(s string) (Duration, error) {
	var d Duration
	orig := s
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return d, rangeError("duration", orig, "empty")
	}
	switch s[0] {
	case '-':
		d.Negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") || len(s) < 3 {
		return Duration{}, rangeError("duration", orig, "expected P designator")
	}
	s = s[1:]

	inTime := false
	seen := ""
	num := -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			if num < 0 {
				num = 0
			}
			num = num*10 + int(c-'0')
			continue
		}
		if c == 'T' {
			if inTime || num >= 0 {
				return Duration{}, rangeError("duration", orig, "misplaced T")
			}
			inTime = true
			continue
		}
		if num < 0 || strings.IndexByte(seen, c) >= 0 {
			return Duration{}, rangeError("duration", orig, "malformed component")
		}
		switch {
		case c == 'W' && !inTime && seen == "":
			d.Weeks = num
		case c == 'D' && !inTime:
			d.Days = num
		case c == 'H' && inTime:
			d.Hours = num
		case c == 'M' && inTime:
			d.Minutes = num
		case c == 'S' && inTime:
			d.Seconds = num
		default:
			return Duration{}, rangeError("duration", orig, "unexpected "+string(c))
		}
		seen += string(c)
		num = -1
	}
	if num >= 0 || seen == "" || (inTime && !strings.ContainsAny(seen, "HMS")) {
		return Duration{}, rangeError("duration", orig, "incomplete")
	}
	if strings.Contains(seen, "W") && len(seen) > 1 {
		return Duration{}, rangeError("duration", orig, "weeks cannot be combined with other units")
	}
	return d, nil
}

// Std converts d to a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d.TotalSeconds()) * time.Second
}
