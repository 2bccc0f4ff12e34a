package rrule

import (
	"strconv"
	"strings"
)

// String serializes the rule in canonical part order. Parsing the result with the
// same anchor type yields an equal Rule.
func (r *Rule) String() string {
	parts := []string{"FREQ=" + r.Freq.String()}
	if until, ok := r.Until.Get(); ok {
		if r.UntilUTC {
			parts = append(parts, "UNTIL="+until.StringUTC())
		} else {
			parts = append(parts, "UNTIL="+until.String())
		}
	}
	if n, ok := r.Count.Get(); ok {
		parts = append(parts, "COUNT="+strconv.Itoa(n))
	}
	if r.interval() != 1 {
		parts = append(parts, "INTERVAL="+strconv.Itoa(r.Interval))
	}
	for p := range partSpecs {
		part := ByPart(p)
		if part == PartByDay {
			if len(r.ByDay) > 0 {
				days := make([]string, len(r.ByDay))
				for i, wd := range r.ByDay {
					days[i] = wd.String()
				}
				parts = append(parts, "BYDAY="+strings.Join(days, ","))
			}
			continue
		}
		if vs := r.Values(part); len(vs) > 0 {
			parts = append(parts, part.String()+"="+joinInts(vs))
		}
	}
	if r.WeekStart != MO {
		parts = append(parts, "WKST="+r.WeekStart.String())
	}
	return strings.Join(parts, ";")
}
