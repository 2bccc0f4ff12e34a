package rrule

import (
	"slices"

	"github.com/cyp0633/librecur/datetime"
	"github.com/cyp0633/librecur/internal/calendar"
)

type clock struct {
	hour, minute, second int
}

func (c clock) less(o clock) bool {
	if c.hour != o.hour {
		return c.hour < o.hour
	}
	if c.minute != o.minute {
		return c.minute < o.minute
	}
	return c.second < o.second
}

// plan is a rule resolved against its anchor: defaults filled in, lists sorted and
// de-duplicated, BYMONTHDAY and BYDAY split by sign and ordinal.
type plan struct {
	freq     Frequency
	interval int
	count    int
	until    *datetime.DateTime
	wkst     int
	dateOnly bool

	bymonth     []int
	byweekno    []int
	byyearday   []int
	bymonthday  []int
	bynmonthday []int
	byweekday   []int
	bynweekday  []WeekdayNum
	byhour      []int
	byminute    []int
	bysecond    []int
	bysetpos    []int

	// timeset is the sorted time-of-day product for frequencies coarser than HOURLY.
	timeset []clock
}

func newPlan(r *Rule, anchor datetime.DateTime, offset datetime.OffsetFunc) *plan {
	p := &plan{
		freq:     r.Freq,
		interval: r.interval(),
		wkst:     int(r.WeekStart),
		dateOnly: !anchor.HasTime,
		bymonth:  normalize(r.ByMonth),
		byweekno: normalize(r.ByWeekNo),
		bysetpos: normalize(r.BySetPos),

		byyearday: normalize(r.ByYearDay),
	}
	if n, ok := r.Count.Get(); ok {
		p.count = n
	}
	if until, ok := r.Until.Get(); ok {
		if r.UntilUTC {
			until = until.FromUTC(offset)
		}
		p.until = &until
	}

	bymonthday := r.ByMonthDay
	byday := r.ByDay
	if len(r.ByWeekNo) == 0 && len(r.ByYearDay) == 0 && len(r.ByMonthDay) == 0 && len(r.ByDay) == 0 {
		switch p.freq {
		case Yearly:
			if len(p.bymonth) == 0 {
				p.bymonth = []int{anchor.Month}
			}
			bymonthday = []int{anchor.Day}
		case Monthly:
			bymonthday = []int{anchor.Day}
		case Weekly:
			byday = []WeekdayNum{{Day: Weekday(calendar.Weekday(anchor.Year, anchor.Month, anchor.Day))}}
		}
	}
	for _, d := range bymonthday {
		if d > 0 {
			p.bymonthday = append(p.bymonthday, d)
		} else {
			p.bynmonthday = append(p.bynmonthday, d)
		}
	}
	p.bymonthday = normalize(p.bymonthday)
	p.bynmonthday = normalize(p.bynmonthday)
	for _, wd := range byday {
		if wd.N == 0 || p.freq > Monthly {
			p.byweekday = append(p.byweekday, int(wd.Day))
		} else {
			p.bynweekday = append(p.bynweekday, wd)
		}
	}
	p.byweekday = normalize(p.byweekday)

	if p.dateOnly {
		p.timeset = []clock{{}}
		return p
	}
	p.byhour = defaulted(r.ByHour, anchor.Hour, p.freq < Hourly)
	p.byminute = defaulted(r.ByMinute, anchor.Minute, p.freq < Minutely)
	p.bysecond = defaulted(r.BySecond, anchor.Second, p.freq < Secondly)
	if p.freq < Hourly {
		for _, h := range p.byhour {
			for _, m := range p.byminute {
				for _, s := range p.bysecond {
					p.timeset = append(p.timeset, clock{h, m, s})
				}
			}
		}
		slices.SortFunc(p.timeset, compareClock)
	}
	return p
}

func compareClock(a, b clock) int {
	switch {
	case a.less(b):
		return -1
	case b.less(a):
		return 1
	}
	return 0
}

func normalize(vs []int) []int {
	if len(vs) == 0 {
		return nil
	}
	out := slices.Clone(vs)
	slices.Sort(out)
	return slices.Compact(out)
}

func defaulted(vs []int, anchor int, useAnchor bool) []int {
	if len(vs) == 0 {
		if useAnchor {
			return []int{anchor}
		}
		return nil
	}
	return normalize(vs)
}

// gettimeset returns the time-of-day candidates for one period of a sub-daily rule.
func (p *plan) gettimeset(hour, minute, second int) []clock {
	var out []clock
	switch p.freq {
	case Hourly:
		for _, m := range p.byminute {
			for _, s := range p.bysecond {
				out = append(out, clock{hour, m, s})
			}
		}
	case Minutely:
		for _, s := range p.bysecond {
			out = append(out, clock{hour, minute, s})
		}
	case Secondly:
		out = []clock{{hour, minute, second}}
	default:
		return p.timeset
	}
	return out
}

// clockMatches reports whether a sub-daily period starting at the given clock
// passes the BYHOUR, BYMINUTE and BYSECOND filters that apply at its frequency.
func (p *plan) clockMatches(hour, minute, second int) bool {
	if len(p.byhour) > 0 && !slices.Contains(p.byhour, hour) {
		return false
	}
	if p.freq >= Minutely && len(p.byminute) > 0 && !slices.Contains(p.byminute, minute) {
		return false
	}
	if p.freq >= Secondly && len(p.bysecond) > 0 && !slices.Contains(p.bysecond, second) {
		return false
	}
	return true
}

// provablyEmpty spots BYMONTH x BYMONTHDAY combinations no calendar year satisfies,
// such as BYMONTH=4,6;BYMONTHDAY=31.
func (p *plan) provablyEmpty() bool {
	if len(p.bymonth) == 0 || len(p.bymonthday)+len(p.bynmonthday) == 0 {
		return false
	}
	for _, m := range p.bymonth {
		n := calendar.DaysInMonth(2000, m)
		for _, d := range p.bymonthday {
			if d <= n {
				return false
			}
		}
		for _, d := range p.bynmonthday {
			if -d <= n {
				return false
			}
		}
	}
	return true
}

// defaultMaxEmptyPeriods covers one 400-year Gregorian cycle. Sub-daily rules count
// empty days rather than empty steps.
func defaultMaxEmptyPeriods(f Frequency) int {
	switch f {
	case Yearly:
		return 400
	case Monthly:
		return 400 * 12
	case Weekly:
		return 146097 / 7
	}
	return 146097
}

// nextClock returns the first step of the grid base + k*step, at or after from and
// within the day, whose clock passes the BY* parts for the frequency. Failing
// hours, minutes and seconds are skipped whole.
func (p *plan) nextClock(base, from, step int) (int, bool) {
	t := alignUp(base, from, step)
	for t < secondsPerDay {
		h, m, s := t/3600, t/60%60, t%60
		var skipTo int
		switch {
		case len(p.byhour) > 0 && !slices.Contains(p.byhour, h):
			next, ok := nextIn(p.byhour, h)
			if !ok {
				return 0, false
			}
			skipTo = next * 3600
		case p.freq >= Minutely && len(p.byminute) > 0 && !slices.Contains(p.byminute, m):
			skipTo = (h + 1) * 3600
			if next, ok := nextIn(p.byminute, m); ok {
				skipTo = h*3600 + next*60
			}
		case p.freq >= Secondly && len(p.bysecond) > 0 && !slices.Contains(p.bysecond, s):
			skipTo = (h*60 + m + 1) * 60
			if next, ok := nextIn(p.bysecond, s); ok {
				skipTo = h*3600 + m*60 + next
			}
		default:
			return t, true
		}
		t = alignUp(base, skipTo, step)
	}
	return 0, false
}

// nextIn returns the first value of the sorted list greater than v.
func nextIn(vs []int, v int) (int, bool) {
	for _, x := range vs {
		if x > v {
			return x, true
		}
	}
	return 0, false
}
