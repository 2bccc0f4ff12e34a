package rrule

import (
	"slices"

	"github.com/cyp0633/librecur/datetime"
	"github.com/cyp0633/librecur/internal/calendar"
)

// StopReason tells why an Iterator ended.
type StopReason int

const (
	// StopNone means the iterator has not ended.
	StopNone StopReason = iota
	// StopCount means COUNT occurrences were produced.
	StopCount
	// StopUntil means the next occurrence would pass UNTIL.
	StopUntil
	// StopWindow means the next occurrence would pass Options.End.
	StopWindow
	// StopLimit means Options.Limit occurrences were returned and more exist.
	StopLimit
	// StopExhausted means the rule cannot produce anything more: the last supported
	// year was passed or the rule is provably empty.
	StopExhausted
	// StopCapped means Options.MaxEmptyPeriods consecutive periods yielded nothing
	// and generation gave up.
	StopCapped
)

var stopNames = [...]string{"none", "count", "until", "window", "limit", "exhausted", "capped"}

func (s StopReason) String() string {
	if s < 0 || int(s) >= len(stopNames) {
		return "unknown"
	}
	return stopNames[s]
}

// Options bounds an expansion.
type Options struct {
	// Start and End are the inclusive window. Occurrences before Start still count
	// toward COUNT.
	Start *datetime.DateTime
	End   *datetime.DateTime
	// Limit caps the number of occurrences returned; 0 means no limit.
	Limit int
	// MaxEmptyPeriods is the safety cap on consecutive periods without a candidate;
	// 0 selects a default spanning one 400-year Gregorian cycle.
	MaxEmptyPeriods int
	// Offset resolves the anchor zone's UTC offset. It is used to bring a UTC UNTIL
	// into anchor-local time; nil treats UNTIL as floating.
	Offset datetime.OffsetFunc
}

// Iterator produces a rule's occurrences in ascending order, one period at a time.
// It is not safe for concurrent use; create one per goroutine.
type Iterator struct {
	plan   *plan
	anchor datetime.DateTime
	opts   Options
	info   yearInfo

	year, month, day     int
	hour, minute, second int
	weekday              int
	timeset              []clock

	remain    []datetime.DateTime
	remaining int // COUNT budget left, 0 when the rule has no COUNT
	emitted   int
	empty     int
	maxEmpty  int
	forwarded bool
	finished  bool
	reason    StopReason
}

// Iterator validates the rule against the anchor and returns a fresh iterator.
func (r *Rule) Iterator(anchor datetime.DateTime, opts Options) (*Iterator, error) {
	if err := anchor.Validate(); err != nil {
		return nil, err
	}
	if err := r.Validate(!anchor.HasTime); err != nil {
		return nil, err
	}

	p := newPlan(r, anchor, opts.Offset)
	it := &Iterator{
		plan:      p,
		anchor:    anchor,
		opts:      opts,
		remaining: p.count,
		maxEmpty:  opts.MaxEmptyPeriods,
	}
	if it.maxEmpty <= 0 {
		it.maxEmpty = defaultMaxEmptyPeriods(p.freq)
	}
	it.info.plan = p
	it.year, it.month, it.day = anchor.Year, anchor.Month, anchor.Day
	it.hour, it.minute, it.second = anchor.Hour, anchor.Minute, anchor.Second
	it.weekday = calendar.Weekday(anchor.Year, anchor.Month, anchor.Day)
	if p.freq == Weekly {
		// The first period is the whole week holding the anchor, so BYSETPOS counts
		// the days before it; those candidates are dropped after selection.
		back := calendar.Mod(it.weekday-p.wkst, 7)
		if calendar.Ordinal(it.year, it.month, it.day)-back >= calendar.Ordinal(calendar.MinYear, 1, 1) {
			it.day -= back
			it.weekday = p.wkst
			it.normalizeDay()
		}
	}
	it.info.rebuild(it.year, it.month)
	it.resetTimeset()

	if p.provablyEmpty() {
		it.finish(StopExhausted)
	}
	return it, nil
}

// Next returns the next occurrence. After it returns false, Stop tells why.
func (it *Iterator) Next() (datetime.DateTime, bool) {
	for {
		for len(it.remain) == 0 {
			if it.finished {
				return datetime.DateTime{}, false
			}
			it.generate()
		}
		dt := it.remain[0]
		it.remain = it.remain[1:]

		if it.opts.Start != nil && dt.Before(*it.opts.Start) {
			continue
		}
		if it.opts.End != nil && dt.After(*it.opts.End) {
			it.halt(StopWindow)
			return datetime.DateTime{}, false
		}
		if it.opts.Limit > 0 && it.emitted >= it.opts.Limit {
			it.halt(StopLimit)
			return datetime.DateTime{}, false
		}
		it.emitted++
		return dt, true
	}
}

// Stop returns why the iterator ended, or StopNone while it can still produce.
func (it *Iterator) Stop() StopReason {
	if len(it.remain) > 0 {
		return StopNone
	}
	return it.reason
}

func (it *Iterator) finish(reason StopReason) {
	it.finished = true
	it.reason = reason
}

func (it *Iterator) halt(reason StopReason) {
	it.finish(reason)
	it.remain = nil
}

// resetTimeset computes the time set of the current period. A sub-daily period
// whose own clock fails BYHOUR/BYMINUTE/BYSECOND contributes nothing.
func (it *Iterator) resetTimeset() {
	p := it.plan
	if p.freq < Hourly {
		it.timeset = p.timeset
		return
	}
	if !p.clockMatches(it.hour, it.minute, it.second) {
		it.timeset = nil
		return
	}
	it.timeset = p.gettimeset(it.hour, it.minute, it.second)
}

func (it *Iterator) candidate(dayIndex int, c clock) datetime.DateTime {
	y, m, d := it.info.date(dayIndex)
	if it.plan.dateOnly {
		return datetime.DateTime{Year: y, Month: m, Day: d}
	}
	return datetime.DateTime{Year: y, Month: m, Day: d, Hour: c.hour, Minute: c.minute, Second: c.second, HasTime: true}
}

// generate expands periods until one yields output or the iterator finishes.
func (it *Iterator) generate() {
	p := it.plan
	for len(it.remain) == 0 && !it.finished {
		if it.opts.End != nil && it.periodAfter(*it.opts.End) {
			it.finish(StopWindow)
			return
		}
		start, end := it.info.dayset(it.year, it.month, it.day)
		days := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			if it.info.keep(i) {
				days = append(days, i)
			}
		}

		var candidates []datetime.DateTime
		if len(p.bysetpos) > 0 && len(it.timeset) > 0 {
			candidates = it.setPositions(days)
		} else {
			for _, i := range days {
				for _, c := range it.timeset {
					candidates = append(candidates, it.candidate(i, c))
				}
			}
		}

		if len(candidates) == 0 {
			it.empty++
		} else {
			it.empty = 0
		}
		for _, dt := range candidates {
			if dt.Year > calendar.MaxYear {
				it.finish(StopExhausted)
				return
			}
			if p.until != nil && dt.After(*p.until) {
				it.finish(StopUntil)
				return
			}
			if dt.Before(it.anchor) {
				continue
			}
			it.remain = append(it.remain, dt)
			if it.remaining > 0 {
				it.remaining--
				if it.remaining == 0 {
					it.finish(StopCount)
					return
				}
			}
		}
		if it.empty > it.maxEmpty {
			it.finish(StopCapped)
			return
		}
		if !it.advance() {
			return
		}
		if !it.forwarded {
			it.forwarded = true
			it.fastForward()
		}
	}
}

// setPositions applies BYSETPOS to the sorted candidates of one period. Positions
// out of range for the period are skipped.
func (it *Iterator) setPositions(days []int) []datetime.DateTime {
	n := len(it.timeset)
	var out []datetime.DateTime
	for _, pos := range it.plan.bysetpos {
		var daypos, timepos int
		if pos < 0 {
			daypos, timepos = calendar.DivMod(pos, n)
		} else {
			daypos, timepos = calendar.DivMod(pos-1, n)
		}
		if daypos < 0 {
			daypos += len(days)
		}
		if daypos < 0 || daypos >= len(days) {
			continue
		}
		dt := it.candidate(days[daypos], it.timeset[timepos])
		if !slices.Contains(out, dt) {
			out = append(out, dt)
		}
	}
	slices.SortFunc(out, datetime.DateTime.Compare)
	return out
}

// advance moves the period anchor forward by one interval. It returns false when the
// iterator finished while advancing.
func (it *Iterator) advance() bool {
	p := it.plan
	fixday := false
	switch p.freq {
	case Yearly:
		it.year += p.interval
	case Monthly:
		m := it.month - 1 + p.interval
		it.year += m / 12
		it.month = m%12 + 1
	case Weekly:
		it.day += p.interval*7 - calendar.Mod(it.weekday-p.wkst, 7)
		it.weekday = p.wkst
		fixday = true
	case Daily:
		it.day += p.interval
		fixday = true
	case Hourly, Minutely, Secondly:
		if !it.advanceClock() {
			return false
		}
	}
	if fixday {
		it.normalizeDay()
	}
	if it.year > calendar.MaxYear {
		it.finish(StopExhausted)
		return false
	}
	it.info.rebuild(it.year, it.month)
	return true
}

// advanceClock moves a sub-daily rule to the next step whose day passes the
// day-level parts and whose clock passes BYHOUR, BYMINUTE and BYSECOND. Every day
// without such a step counts as one empty period.
func (it *Iterator) advanceClock() bool {
	p := it.plan
	step := p.interval * p.freq.seconds()
	ord := calendar.Ordinal(it.year, it.month, it.day)
	// base is the current step and from the earliest next one, in seconds since the
	// start of day ord.
	base := it.hour*3600 + it.minute*60 + it.second
	from := base + step
	for {
		days, _ := calendar.DivMod(from, secondsPerDay)
		ord += days
		base -= days * secondsPerDay
		from -= days * secondsPerDay

		y, m, d := calendar.FromOrdinal(ord)
		if y > calendar.MaxYear {
			it.finish(StopExhausted)
			return false
		}
		if p.until != nil && ord > calendar.Ordinal(p.until.Year, p.until.Month, p.until.Day) {
			it.finish(StopUntil)
			return false
		}
		pastWindow := it.opts.End != nil && ord > calendar.Ordinal(it.opts.End.Year, it.opts.End.Month, it.opts.End.Day)

		it.info.rebuild(y, m)
		if pastWindow || it.info.keep(calendar.YearDay(y, m, d)-1) {
			t, ok := from, true
			if !pastWindow {
				t, ok = p.nextClock(base, from, step)
			}
			if ok {
				it.year, it.month, it.day = y, m, d
				it.hour, it.minute, it.second = t/3600, t/60%60, t%60
				it.timeset = p.gettimeset(it.hour, it.minute, it.second)
				return true
			}
		}

		it.empty++
		if it.empty > it.maxEmpty {
			it.finish(StopCapped)
			return false
		}
		from = alignUp(base, secondsPerDay, step)
	}
}

const secondsPerDay = 86400

// alignUp returns the first point of the grid base + k*step at or after t.
func alignUp(base, t, step int) int {
	if t <= base {
		return base
	}
	return base + (t-base+step-1)/step*step
}

func (it *Iterator) normalizeDay() {
	if it.day >= 1 && it.day <= 28 {
		return
	}
	ord := calendar.Ordinal(it.year, it.month, 1) + it.day - 1
	it.year, it.month, it.day = calendar.FromOrdinal(ord)
}

// fastForward skips whole intervals that end before the window start. It only runs
// without COUNT, since skipped periods would otherwise have to be counted.
func (it *Iterator) fastForward() {
	p := it.plan
	if it.finished || p.count > 0 || it.opts.Start == nil {
		return
	}
	target := *it.opts.Start
	if !it.currentBefore(target) {
		return
	}
	switch p.freq {
	case Yearly:
		if k := (target.Year-it.year)/p.interval - 1; k > 0 {
			it.year += k * p.interval
		}
	case Monthly:
		diff := (target.Year*12 + target.Month) - (it.year*12 + it.month)
		if k := diff/p.interval - 1; k > 0 {
			m := it.month - 1 + k*p.interval
			it.year += m / 12
			it.month = m%12 + 1
		}
	case Weekly, Daily:
		unit := p.interval
		if p.freq == Weekly {
			unit *= 7
		}
		diff := calendar.Ordinal(target.Year, target.Month, target.Day) - calendar.Ordinal(it.year, it.month, it.day)
		if k := diff/unit - 1; k > 0 {
			it.day += k * unit
			it.normalizeDay()
		}
	default:
		unit := p.interval
		switch p.freq {
		case Hourly:
			unit *= 3600
		case Minutely:
			unit *= 60
		}
		current := datetime.DateTime{Year: it.year, Month: it.month, Day: it.day,
			Hour: it.hour, Minute: it.minute, Second: it.second, HasTime: true}
		if k := target.Sub(current)/unit - 1; k > 0 {
			next := current.AddSeconds(k * unit)
			it.year, it.month, it.day = next.Year, next.Month, next.Day
			it.hour, it.minute, it.second = next.Hour, next.Minute, next.Second
			it.resetTimeset()
		}
	}
	if it.year > calendar.MaxYear {
		it.finish(StopExhausted)
		return
	}
	it.weekday = calendar.Weekday(it.year, it.month, it.day)
	it.info.rebuild(it.year, it.month)
}

// periodAfter reports whether the current period starts on a later date than dt,
// so none of its candidates can fall on or before dt.
func (it *Iterator) periodAfter(dt datetime.DateTime) bool {
	month, day := it.month, it.day
	switch it.plan.freq {
	case Yearly:
		month, day = 1, 1
	case Monthly:
		day = 1
	}
	return calendar.Ordinal(it.year, month, day) > calendar.Ordinal(dt.Year, dt.Month, dt.Day)
}

func (it *Iterator) currentBefore(dt datetime.DateTime) bool {
	if it.year != dt.Year {
		return it.year < dt.Year
	}
	if it.month != dt.Month {
		return it.month < dt.Month
	}
	return it.day < dt.Day
}
