package datetime

import "strings"

// Period is a span of time given either as start/end or start/duration. It always
// exposes an explicit End; Dur is kept only to reproduce the duration form in text.
type Period struct {
	Start DateTime
	End   DateTime
	Dur   *Duration
	// UTC marks Start and an explicit End as UTC values, written with a trailing Z.
	UTC bool
}

// NewPeriod builds a start/end period. End must not precede Start.
func NewPeriod(start, end DateTime) (Period, error) {
	if end.Before(start) {
		return Period{}, rangeError("period", start.String()+"/"+end.String(), "end precedes start")
	}
	return Period{Start: start, End: end}, nil
}

// NewPeriodDuration builds a start/duration period. The duration must not be negative.
func NewPeriodDuration(start DateTime, d Duration) (Period, error) {
	if d.TotalSeconds() < 0 {
		return Period{}, rangeError("period", start.String()+"/"+d.String(), "negative duration")
	}
	return Period{Start: start, End: start.AddDuration(d), Dur: &d}, nil
}

// ParsePeriod reads "start/end" or "start/duration".
func ParsePeriod(s string) (Period, error) {
	left, right, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Period{}, rangeError("period", s, "missing /")
	}
	start, utc, err := Parse(left)
	if err != nil {
		return Period{}, err
	}
	r := strings.TrimLeft(right, "+-")
	if strings.HasPrefix(strings.ToUpper(r), "P") {
		d, err := ParseDuration(right)
		if err != nil {
			return Period{}, err
		}
		p, err := NewPeriodDuration(start, d)
		p.UTC = utc && err == nil
		return p, err
	}
	end, endUTC, err := Parse(right)
	if err != nil {
		return Period{}, err
	}
	if utc != endUTC {
		return Period{}, rangeError("period", s, "start and end mix UTC and local time")
	}
	p, err := NewPeriod(start, end)
	p.UTC = utc && err == nil
	return p, err
}

// Duration returns End - Start.
func (p Period) Duration() Duration {
	return FromSeconds(p.End.Sub(p.Start))
}

// Contains reports whether dt lies in [Start, End].
func (p Period) Contains(dt DateTime) bool {
	return !dt.Before(p.Start) && !dt.After(p.End)
}

// Overlaps reports whether the two closed spans intersect.
func (p Period) Overlaps(o Period) bool {
	return !p.End.Before(o.Start) && !o.End.Before(p.Start)
}

func (p Period) String() string {
	format := DateTime.String
	if p.UTC {
		format = DateTime.StringUTC
	}
	if p.Dur != nil {
		return format(p.Start) + "/" + p.Dur.String()
	}
	return format(p.Start) + "/" + format(p.End)
}
