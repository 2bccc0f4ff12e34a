package rrule

import (
	"slices"

	"github.com/cyp0633/librecur/internal/calendar"
)

// yearInfo holds the per-year masks the generator filters day indexes with. Day
// index i is the 0-based day of the year; every mask runs 7 days past the year end
// so weekly periods may cross into January.
type yearInfo struct {
	plan *plan

	year        int
	month       int
	yearLen     int
	nextYearLen int
	firstOrd    int // ordinal of January 1
	firstWday   int
	mrange      [13]int

	mmask     []int
	mdaymask  []int
	nmdaymask []int
	wnomask   []bool
	nwdaymask []bool
}

func (yi *yearInfo) wday(i int) int {
	return (yi.firstWday + i) % 7
}

func (yi *yearInfo) rebuild(year, month int) {
	p := yi.plan
	if year != yi.year {
		yi.yearLen = calendar.DaysInYear(year)
		yi.nextYearLen = calendar.DaysInYear(year + 1)
		yi.firstOrd = calendar.Ordinal(year, 1, 1)
		yi.firstWday = calendar.Weekday(year, 1, 1)
		yi.mrange = calendar.MonthStarts(year)

		n := yi.yearLen + 7
		yi.mmask = make([]int, n)
		yi.mdaymask = make([]int, n)
		yi.nmdaymask = make([]int, n)
		for m := 1; m <= 12; m++ {
			days := yi.mrange[m] - yi.mrange[m-1]
			for d := 1; d <= days; d++ {
				i := yi.mrange[m-1] + d - 1
				yi.mmask[i] = m
				yi.mdaymask[i] = d
				yi.nmdaymask[i] = d - days - 1
			}
		}
		for i := yi.yearLen; i < n; i++ {
			d := i - yi.yearLen + 1
			yi.mmask[i] = 1
			yi.mdaymask[i] = d
			yi.nmdaymask[i] = d - 32
		}

		yi.wnomask = nil
		if len(p.byweekno) > 0 {
			yi.buildWeekNoMask(year)
		}
	}

	if len(p.bynweekday) > 0 && (month != yi.month || year != yi.year) {
		yi.buildNthWeekdayMask(month)
	}
	yi.year = year
	yi.month = month
}

// buildWeekNoMask marks the days of every BYWEEKNO week. Week 1 is the first week
// with at least four days in the year, weeks starting on WKST.
func (yi *yearInfo) buildWeekNoMask(year int) {
	p := yi.plan
	yi.wnomask = make([]bool, yi.yearLen+7)

	firstwkst := calendar.Mod(7-yi.firstWday+p.wkst, 7)
	no1wkst := firstwkst
	var wyearlen int
	if no1wkst >= 4 {
		no1wkst = 0
		wyearlen = yi.yearLen + calendar.Mod(yi.firstWday-p.wkst, 7)
	} else {
		wyearlen = yi.yearLen - no1wkst
	}
	div, mod := calendar.DivMod(wyearlen, 7)
	numweeks := div + mod/4

	markWeek := func(i int) {
		for j := 0; j < 7; j++ {
			yi.wnomask[i] = true
			i++
			if yi.wday(i) == p.wkst {
				break
			}
		}
	}
	for _, n := range p.byweekno {
		if n < 0 {
			n += numweeks + 1
		}
		if n <= 0 || n > numweeks {
			continue
		}
		i := no1wkst
		if n > 1 {
			i = no1wkst + (n-1)*7
			if no1wkst != firstwkst {
				i -= 7 - firstwkst
			}
		}
		markWeek(i)
	}

	if slices.Contains(p.byweekno, 1) {
		// Week 1 of next year may start in this one.
		i := no1wkst + numweeks*7
		if no1wkst != firstwkst {
			i -= 7 - firstwkst
		}
		if i < yi.yearLen {
			markWeek(i)
		}
	}

	if no1wkst != 0 {
		// Days before week 1 belong to the last week of the previous year.
		lnumweeks := -1
		if !slices.Contains(p.byweekno, -1) {
			lyearweekday := calendar.Weekday(year-1, 1, 1)
			lno1wkst := calendar.Mod(7-lyearweekday+p.wkst, 7)
			lyearlen := calendar.DaysInYear(year - 1)
			if lno1wkst >= 4 {
				lnumweeks = 52 + calendar.Mod(lyearlen+calendar.Mod(lyearweekday-p.wkst, 7), 7)/4
			} else {
				lnumweeks = 52 + calendar.Mod(yi.yearLen-no1wkst, 7)/4
			}
		}
		if slices.Contains(p.byweekno, lnumweeks) {
			for i := 0; i < no1wkst; i++ {
				yi.wnomask[i] = true
			}
		}
	}
}

// buildNthWeekdayMask marks ordinal BYDAY matches (such as -1FR) within the month
// for MONTHLY rules, or within the year or each BYMONTH month for YEARLY rules.
func (yi *yearInfo) buildNthWeekdayMask(month int) {
	p := yi.plan
	var ranges [][2]int
	switch p.freq {
	case Yearly:
		if len(p.bymonth) > 0 {
			for _, m := range p.bymonth {
				ranges = append(ranges, [2]int{yi.mrange[m-1], yi.mrange[m]})
			}
		} else {
			ranges = [][2]int{{0, yi.yearLen}}
		}
	case Monthly:
		ranges = [][2]int{{yi.mrange[month-1], yi.mrange[month]}}
	default:
		yi.nwdaymask = nil
		return
	}

	yi.nwdaymask = make([]bool, yi.yearLen)
	for _, rg := range ranges {
		first, last := rg[0], rg[1]-1
		for _, wd := range p.bynweekday {
			var i int
			if wd.N < 0 {
				i = last + (wd.N+1)*7
				i -= calendar.Mod(yi.wday(i)-int(wd.Day), 7)
			} else {
				i = first + (wd.N-1)*7
				i += calendar.Mod(7-yi.wday(i)+int(wd.Day), 7)
			}
			if first <= i && i <= last {
				yi.nwdaymask[i] = true
			}
		}
	}
}

// dayset returns the day indexes [start, end) that make up the current period.
func (yi *yearInfo) dayset(year, month, day int) (start, end int) {
	switch yi.plan.freq {
	case Yearly:
		return 0, yi.yearLen
	case Monthly:
		return yi.mrange[month-1], yi.mrange[month]
	case Weekly:
		i := calendar.YearDay(year, month, day) - 1
		start = i
		for j := 0; j < 7; j++ {
			i++
			if yi.wday(i) == yi.plan.wkst {
				break
			}
		}
		return start, i
	}
	i := calendar.YearDay(year, month, day) - 1
	return i, i + 1
}

// keep reports whether day index i survives every day-level by-part.
func (yi *yearInfo) keep(i int) bool {
	p := yi.plan
	if len(p.bymonth) > 0 && !slices.Contains(p.bymonth, yi.mmask[i]) {
		return false
	}
	if yi.wnomask != nil && !yi.wnomask[i] {
		return false
	}
	if len(p.byweekday) > 0 && !slices.Contains(p.byweekday, yi.wday(i)) {
		return false
	}
	if yi.nwdaymask != nil && (i >= len(yi.nwdaymask) || !yi.nwdaymask[i]) {
		return false
	}
	if len(p.bymonthday)+len(p.bynmonthday) > 0 &&
		!slices.Contains(p.bymonthday, yi.mdaymask[i]) &&
		!slices.Contains(p.bynmonthday, yi.nmdaymask[i]) {
		return false
	}
	if len(p.byyearday) > 0 {
		if i < yi.yearLen {
			if !slices.Contains(p.byyearday, i+1) && !slices.Contains(p.byyearday, i-yi.yearLen) {
				return false
			}
		} else if !slices.Contains(p.byyearday, i+1-yi.yearLen) &&
			!slices.Contains(p.byyearday, i-yi.yearLen-yi.nextYearLen) {
			return false
		}
	}
	return true
}

// date converts a day index of the current year into a civil date.
func (yi *yearInfo) date(i int) (year, month, day int) {
	return calendar.FromOrdinal(yi.firstOrd + i)
}
