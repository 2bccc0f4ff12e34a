package recurrence

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/emersion/go-ical"

	"github.com/cyp0633/librecur/datetime"
	"github.com/cyp0633/librecur/rrule"
)

// Engine expands recurring events given as time.Time values and go-ical components.
// It is safe for concurrent use.
type Engine struct {
	cache  *RecurrenceCache
	config EngineConfig
	logger *slog.Logger
}

// NewEngine creates a new recurrence engine with DefaultEngineConfig
func NewEngine(opts ...Option) *Engine {
	return NewEngineWithConfig(DefaultEngineConfig, opts...)
}

// Close releases the engine's cache.
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

// CacheStats returns the cache statistics, or zero stats when caching is disabled.
func (e *Engine) CacheStats() CacheStats {
	if e.cache == nil {
		return CacheStats{}
	}
	return e.cache.Stats()
}

// BuildSet converts recurrence info into a resolver Set anchored at masterStart.
// DATE-TIME values are moved into masterStart's zone; with an all-day master every
// value is reduced to its date.
func BuildSet(masterStart time.Time, info RecurrenceInfo) (Set, error) {
	loc := masterStart.Location()
	local := func(t time.Time) datetime.DateTime {
		if info.AllDay {
			return datetime.DateFromTime(t)
		}
		return datetime.FromTime(t.In(loc))
	}

	set := Set{Anchor: local(masterStart)}
	for _, text := range info.RRULE {
		r, err := rrule.Parse(text, info.AllDay)
		if err != nil {
			return Set{}, fmt.Errorf("failed to parse RRULE %q: %w", text, err)
		}
		set.RRules = append(set.RRules, r)
	}
	for _, text := range info.EXRULE {
		r, err := rrule.Parse(text, info.AllDay)
		if err != nil {
			return Set{}, fmt.Errorf("failed to parse EXRULE %q: %w", text, err)
		}
		set.ExRules = append(set.ExRules, r)
	}
	for _, t := range info.RDATE {
		set.RDates = append(set.RDates, local(t))
	}
	for _, p := range info.RDATEPeriods {
		set.RDates = append(set.RDates, local(p.Start))
	}
	for _, t := range info.EXDATE {
		set.ExDates = append(set.ExDates, local(t))
	}
	return set, nil
}

// Expand returns every occurrence of a master event that overlaps
// [rangeStart, rangeEnd]. An occurrence overlaps when it starts no later than
// rangeEnd and ends no earlier than rangeStart.
func (e *Engine) Expand(
	masterStart, masterEnd time.Time,
	recurrence RecurrenceInfo,
	rangeStart, rangeEnd time.Time,
) (*Expansion, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get("expand", masterStart, masterEnd, recurrence, rangeStart, rangeEnd); ok {
			e.logger.Debug("recurrence cache hit", "operation", "expand")
			return cloneExpansion(cached.(*Expansion)), nil
		}
	}

	result, err := e.expand(masterStart, masterEnd, recurrence, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		e.cache.Set("expand", masterStart, masterEnd, recurrence, rangeStart, rangeEnd, cloneExpansion(result))
	}
	return result, nil
}

func (e *Engine) expand(
	masterStart, masterEnd time.Time,
	recurrence RecurrenceInfo,
	rangeStart, rangeEnd time.Time,
) (*Expansion, error) {
	if rangeEnd.Before(rangeStart) {
		return nil, fmt.Errorf("invalid range: end %s before start %s", rangeEnd, rangeStart)
	}
	set, err := BuildSet(masterStart, recurrence)
	if err != nil {
		return nil, err
	}

	loc := masterStart.Location()
	duration := masterEnd.Sub(masterStart)
	if duration < 0 {
		duration = 0
	}
	// RDATE periods keep their own length.
	lengths := make(map[datetime.DateTime]time.Duration)
	longest := duration
	for i, p := range recurrence.RDATEPeriods {
		d := p.End.Sub(p.Start)
		lengths[set.RDates[len(recurrence.RDATE)+i]] = d
		longest = max(longest, d)
	}

	// Anything starting before rangeStart minus the longest duration cannot overlap.
	start := datetime.FromTime(rangeStart.Add(-longest).In(loc))
	if recurrence.AllDay {
		start = start.Date()
	}
	end := datetime.FromTime(rangeEnd.In(loc))
	res, err := Resolve(set, Window{
		Start:           &start,
		End:             &end,
		Offset:          datetime.LocationOffset(loc),
		MaxEmptyPeriods: e.config.MaxEmptyPeriods,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recurrence set: %w", err)
	}
	if res.Capped {
		e.logger.Warn("recurrence expansion capped", "rrule", recurrence.RRULE, "anchor", set.Anchor.String())
	}

	result := &Expansion{Capped: res.Capped}
	for _, dt := range res.Occurrences {
		occStart := dt.Time(loc)
		d, ok := lengths[dt]
		if !ok {
			d = duration
		}
		occEnd := occStart.Add(d)
		if occStart.After(rangeEnd) || occEnd.Before(rangeStart) {
			continue
		}
		if limit := e.config.MaxExpansionOccurrences; limit > 0 && len(result.Occurrences) == limit {
			result.Truncated = true
			e.logger.Warn("recurrence expansion truncated", "limit", limit, "anchor", set.Anchor.String())
			break
		}
		result.Occurrences = append(result.Occurrences, TimeOccurrence{Start: occStart, End: occEnd})
	}
	return result, nil
}

// HasOccurrenceInRange checks if a recurring event has any occurrence in the time range
func (e *Engine) HasOccurrenceInRange(
	masterStart, masterEnd time.Time,
	recurrence RecurrenceInfo,
	rangeStart, rangeEnd time.Time,
) (bool, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get("has", masterStart, masterEnd, recurrence, rangeStart, rangeEnd); ok {
			e.logger.Debug("recurrence cache hit", "operation", "has")
			return cached.(bool), nil
		}
	}

	// Fast path: the master occurrence itself, unless an EXDATE removes it. An EXRULE
	// may remove it too, so those always go through the full expansion.
	has := false
	if len(recurrence.EXRULE) == 0 && !masterStart.After(rangeEnd) && !masterEnd.Before(rangeStart) && !e.isExcluded(masterStart, recurrence) {
		has = true
	}
	if !has && (recurrence.IsRecurring() || len(recurrence.EXRULE) > 0) {
		exp, err := e.expand(masterStart, masterEnd, recurrence, rangeStart, rangeEnd)
		if err != nil {
			return false, fmt.Errorf("failed to check occurrences: %w", err)
		}
		has = len(exp.Occurrences) > 0
	}

	if e.cache != nil {
		e.cache.Set("has", masterStart, masterEnd, recurrence, rangeStart, rangeEnd, has)
	}
	return has, nil
}

// isExcluded checks if a given time is in the EXDATE list
func (e *Engine) isExcluded(t time.Time, recurrence RecurrenceInfo) bool {
	for _, exdate := range recurrence.EXDATE {
		if t.Equal(exdate) {
			return true
		}
		if recurrence.AllDay && datetime.DateFromTime(t) == datetime.DateFromTime(exdate) {
			return true
		}
	}
	return false
}

// ExpandComponent expands a VEVENT or VTODO over [rangeStart, rangeEnd].
func (e *Engine) ExpandComponent(comp *ical.Component, rangeStart, rangeEnd time.Time) (*Expansion, error) {
	start, end, ok := ExtractBasicTimeInfoFromComponent(comp)
	if !ok {
		return nil, fmt.Errorf("%s has no usable start time", comp.Name)
	}
	info, err := ExtractRecurrenceInfoFromComponent(comp)
	if err != nil {
		return nil, err
	}
	return e.Expand(start, end, info, rangeStart, rangeEnd)
}

// ExpandWithOverrides expands a master component and applies its overridden
// instances: each override (a component carrying RECURRENCE-ID) replaces the
// master occurrence it names and is listed at its own time when that overlaps the
// range.
func (e *Engine) ExpandWithOverrides(master *ical.Component, overrides []*ical.Component, rangeStart, rangeEnd time.Time) (*Expansion, error) {
	exp, err := e.ExpandComponent(master, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}
	if len(overrides) == 0 {
		return exp, nil
	}

	var replaced []time.Time
	var extra []TimeOccurrence
	for _, o := range overrides {
		info, err := ExtractRecurrenceInfoFromComponent(o)
		if err != nil {
			return nil, err
		}
		if info.RecurrenceID == nil {
			e.logger.Debug("override without RECURRENCE-ID ignored")
			continue
		}
		replaced = append(replaced, *info.RecurrenceID)

		start, end, ok := ExtractBasicTimeInfoFromComponent(o)
		if !ok || start.After(rangeEnd) || end.Before(rangeStart) {
			continue
		}
		extra = append(extra, TimeOccurrence{
			Start:        start,
			End:          end,
			IsException:  true,
			RecurrenceID: info.RecurrenceID,
		})
	}

	out := &Expansion{Capped: exp.Capped, Truncated: exp.Truncated}
	for _, occ := range exp.Occurrences {
		if !slices.ContainsFunc(replaced, occ.Start.Equal) {
			out.Occurrences = append(out.Occurrences, occ)
		}
	}
	out.Occurrences = append(out.Occurrences, extra...)
	slices.SortStableFunc(out.Occurrences, func(a, b TimeOccurrence) int {
		return a.Start.Compare(b.Start)
	})
	return out, nil
}

func cloneExpansion(exp *Expansion) *Expansion {
	return &Expansion{
		Occurrences: slices.Clone(exp.Occurrences),
		Capped:      exp.Capped,
		Truncated:   exp.Truncated,
	}
}
