package recurrence

import (
	"fmt"
	"slices"

	"github.com/cyp0633/librecur/datetime"
	"github.com/cyp0633/librecur/rrule"
)

// Set is the recurrence data of one component: its anchor (DTSTART), additive rules
// and dates, and subtractive rules and dates. All date-times are anchor-local.
type Set struct {
	Anchor  datetime.DateTime
	RRules  []*rrule.Rule
	ExRules []*rrule.Rule
	RDates  []datetime.DateTime
	ExDates []datetime.DateTime
}

// Window bounds a resolution. Both ends are inclusive and optional.
type Window struct {
	Start *datetime.DateTime
	End   *datetime.DateTime
	// Offset resolves the anchor zone's UTC offset for rules with a UTC UNTIL.
	Offset datetime.OffsetFunc
	// MaxEmptyPeriods overrides the per-rule safety cap; 0 keeps the default.
	MaxEmptyPeriods int
}

func (w Window) contains(dt datetime.DateTime) bool {
	if w.Start != nil && dt.Before(*w.Start) {
		return false
	}
	if w.End != nil && dt.After(*w.End) {
		return false
	}
	return true
}

func (w Window) options() rrule.Options {
	return rrule.Options{
		Start:           w.Start,
		End:             w.End,
		Offset:          w.Offset,
		MaxEmptyPeriods: w.MaxEmptyPeriods,
	}
}

// Resolution is the final occurrence set of a Set within a Window.
type Resolution struct {
	Occurrences []datetime.DateTime
	// Capped is set when some rule hit its empty-period cap, so the set may be
	// missing occurrences a sparser search would have found.
	Capped bool
}

// Resolve computes the anchor plus every rule expansion and explicit date, minus
// every exception rule expansion and exception date, within w. An occurrence that
// is both added and excluded is excluded. The result is ascending and free of
// duplicates; with a DATE anchor duplicates and exclusions compare by date only.
//
// Resolve keeps no state between calls and may run concurrently on shared rules.
func Resolve(set Set, w Window) (Resolution, error) {
	if err := set.Anchor.Validate(); err != nil {
		return Resolution{}, fmt.Errorf("invalid anchor: %w", err)
	}
	if w.End == nil {
		for _, r := range set.RRules {
			if r.Count.IsAbsent() && r.Until.IsAbsent() {
				return Resolution{}, rrule.ErrUnbounded
			}
		}
	}

	dateOnly := !set.Anchor.HasTime
	key := func(dt datetime.DateTime) datetime.DateTime {
		if dateOnly {
			return dt.Date()
		}
		return dt
	}

	var res Resolution
	added := make(map[datetime.DateTime]datetime.DateTime)
	add := func(dt datetime.DateTime) {
		k := key(dt)
		if _, ok := added[k]; !ok {
			added[k] = dt
		}
	}

	if w.contains(set.Anchor) {
		add(set.Anchor)
	}
	for _, r := range set.RRules {
		out, err := r.Expand(set.Anchor, w.options())
		if err != nil {
			return Resolution{}, err
		}
		res.Capped = res.Capped || out.Capped()
		for _, dt := range out.Occurrences {
			add(dt)
		}
	}
	for _, dt := range set.RDates {
		if err := dt.Validate(); err != nil {
			return Resolution{}, fmt.Errorf("invalid RDATE: %w", err)
		}
		if w.contains(dt) {
			add(dt)
		}
	}
	if len(added) == 0 {
		return res, nil
	}

	occurrences := make([]datetime.DateTime, 0, len(added))
	for _, dt := range added {
		occurrences = append(occurrences, dt)
	}
	slices.SortFunc(occurrences, datetime.DateTime.Compare)

	excluded := make(map[datetime.DateTime]bool)
	for _, dt := range set.ExDates {
		excluded[key(dt)] = true
	}
	if len(set.ExRules) > 0 {
		// Exception rules only need to reach the last additive occurrence.
		exWindow := w
		last := occurrences[len(occurrences)-1]
		if exWindow.End == nil || last.Before(*exWindow.End) {
			exWindow.End = &last
		}
		for _, r := range set.ExRules {
			out, err := r.Expand(set.Anchor, exWindow.options())
			if err != nil {
				return Resolution{}, err
			}
			res.Capped = res.Capped || out.Capped()
			for _, dt := range out.Occurrences {
				excluded[key(dt)] = true
			}
		}
	}

	res.Occurrences = occurrences[:0]
	for _, dt := range occurrences {
		if !excluded[key(dt)] {
			res.Occurrences = append(res.Occurrences, dt)
		}
	}
	return res, nil
}
