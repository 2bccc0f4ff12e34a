package rrule

import (
	"strconv"
)

// Validate checks value ranges and part combinations. Parse calls it; rules built in
// code should call it before expansion. dateOnly is the anchor's type.
func (r *Rule) Validate(dateOnly bool) error {
	if !r.Freq.Valid() {
		return formatError("FREQ", r.Freq.String(), "unknown frequency")
	}
	if r.Interval < 0 {
		return formatError("INTERVAL", strconv.Itoa(r.Interval), "must be a positive integer")
	}
	if r.WeekStart < MO || r.WeekStart > SU {
		return formatError("WKST", r.WeekStart.String(), "unknown weekday")
	}
	if n, ok := r.Count.Get(); ok && n < 1 {
		return formatError("COUNT", strconv.Itoa(n), "must be a positive integer")
	}
	if until, ok := r.Until.Get(); ok {
		if r.Count.IsPresent() {
			return formatError("UNTIL", until.String(), "COUNT and UNTIL are mutually exclusive")
		}
		if err := until.Validate(); err != nil {
			return formatError("UNTIL", until.String(), err.Error())
		}
		if until.HasTime == dateOnly {
			return formatError("UNTIL", until.String(), "form must match the anchor's DATE or DATE-TIME type")
		}
	}

	for p := range partSpecs {
		part := ByPart(p)
		spec := partSpecs[part]
		for _, v := range r.Values(part) {
			if !spec.contains(v) {
				return formatError(spec.name, strconv.Itoa(v), rangeReason(spec))
			}
		}
	}
	for _, wd := range r.ByDay {
		if wd.Day < MO || wd.Day > SU {
			return formatError("BYDAY", wd.String(), "unknown weekday")
		}
		if wd.N == 0 {
			continue
		}
		if !partSpecs[PartByDay].contains(wd.N) {
			return formatError("BYDAY", wd.String(), "ordinal must be between -53 and -1 or 1 and 53")
		}
		if r.Freq != Monthly && r.Freq != Yearly {
			return formatError("BYDAY", wd.String(), "ordinals are only allowed with MONTHLY or YEARLY")
		}
		if r.Freq == Yearly && len(r.ByWeekNo) > 0 {
			return formatError("BYDAY", wd.String(), "ordinals are not allowed together with BYWEEKNO")
		}
	}

	if len(r.ByMonthDay) > 0 && r.Freq == Weekly {
		return formatError("BYMONTHDAY", joinInts(r.ByMonthDay), "not allowed with WEEKLY")
	}
	if len(r.ByYearDay) > 0 && (r.Freq == Daily || r.Freq == Weekly || r.Freq == Monthly) {
		return formatError("BYYEARDAY", joinInts(r.ByYearDay), "not allowed with "+r.Freq.String())
	}
	if len(r.ByWeekNo) > 0 && r.Freq != Yearly {
		return formatError("BYWEEKNO", joinInts(r.ByWeekNo), "only allowed with YEARLY")
	}
	if len(r.BySetPos) > 0 && !r.hasCandidatePart() {
		return formatError("BYSETPOS", joinInts(r.BySetPos), "requires another BYxxx part")
	}

	if dateOnly {
		if r.Freq > Daily {
			return formatError("FREQ", r.Freq.String(), "sub-daily frequency requires a DATE-TIME anchor")
		}
		for _, p := range []ByPart{PartByHour, PartByMinute, PartBySecond} {
			if r.Has(p) {
				return formatError(p.String(), joinInts(r.Values(p)), "not allowed with a DATE anchor")
			}
		}
	}
	return nil
}

func (r *Rule) hasCandidatePart() bool {
	for p := range partSpecs {
		if part := ByPart(p); part != PartBySetPos && r.Has(part) {
			return true
		}
	}
	return false
}

func joinInts(vs []int) string {
	b := make([]byte, 0, len(vs)*3)
	for i, v := range vs {
		if i > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendInt(b, int64(v), 10)
	}
	return string(b)
}
