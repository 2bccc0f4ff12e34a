package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/cyp0633/librecur/datetime"
)

const (
	propExceptionRule = "EXRULE"
	propRecurrenceID  = "RECURRENCE-ID"
)

// ExtractRecurrenceInfoFromComponent extracts recurrence information from an iCal component.
// Date-times without TZID or a trailing Z are read in the zone of DTSTART. Repeated
// RRULE, EXRULE, RDATE and EXDATE properties are merged.
func ExtractRecurrenceInfoFromComponent(comp *ical.Component) (RecurrenceInfo, error) {
	info := RecurrenceInfo{}
	loc := time.UTC
	if prop := comp.Props.Get(ical.PropDateTimeStart); prop != nil {
		info.AllDay = isDateValue(prop)
		if start, err := prop.DateTime(nil); err == nil {
			loc = start.Location()
		}
	}

	for _, prop := range comp.Props[ical.PropRecurrenceRule] {
		if prop.Value != "" {
			info.RRULE = append(info.RRULE, prop.Value)
		}
	}
	for _, prop := range comp.Props[propExceptionRule] {
		if prop.Value != "" {
			info.EXRULE = append(info.EXRULE, prop.Value)
		}
	}

	for _, prop := range comp.Props[ical.PropRecurrenceDates] {
		dates, periods, err := parseDateList(&prop, loc, true)
		if err != nil {
			return RecurrenceInfo{}, fmt.Errorf("failed to parse RDATE: %w", err)
		}
		info.RDATE = append(info.RDATE, dates...)
		info.RDATEPeriods = append(info.RDATEPeriods, periods...)
	}
	for _, prop := range comp.Props[ical.PropExceptionDates] {
		dates, _, err := parseDateList(&prop, loc, false)
		if err != nil {
			return RecurrenceInfo{}, fmt.Errorf("failed to parse EXDATE: %w", err)
		}
		info.EXDATE = append(info.EXDATE, dates...)
	}

	if prop := comp.Props.Get(propRecurrenceID); prop != nil && prop.Value != "" {
		dates, _, err := parseDateList(prop, loc, false)
		if err != nil || len(dates) != 1 {
			return RecurrenceInfo{}, fmt.Errorf("failed to parse RECURRENCE-ID %q", prop.Value)
		}
		info.RecurrenceID = &dates[0]
	}

	return info, nil
}

// ExtractBasicTimeInfoFromComponent extracts start and end times from an iCal component
func ExtractBasicTimeInfoFromComponent(comp *ical.Component) (start, end time.Time, hasTime bool) {
	allDay := false
	if prop := comp.Props.Get(ical.PropDateTimeStart); prop != nil {
		allDay = isDateValue(prop)
	}

	// Get start time
	if dtstart, err := comp.Props.DateTime(ical.PropDateTimeStart, nil); err == nil {
		start = dtstart
		hasTime = true

		// Get end time - either from DTEND or DURATION or default
		if dtend, err := comp.Props.DateTime(ical.PropDateTimeEnd, start.Location()); err == nil {
			end = dtend

			// An all-day event whose DTEND repeats DTSTART still lasts the day.
			if allDay && !end.After(start) {
				end = start.AddDate(0, 0, 1)
			}
		} else if durationProp := comp.Props.Get(ical.PropDuration); durationProp != nil {
			if duration, err := datetime.ParseDuration(durationProp.Value); err == nil {
				end = datetime.FromTime(start).AddDuration(duration).Time(start.Location())
			} else {
				// Invalid duration
				hasTime = false
				return
			}
		} else {
			// Default duration:
			// For all-day events (date values), duration is 1 day.
			// For timed events, it's an instantaneous event (end == start).
			if allDay {
				end = start.AddDate(0, 0, 1)
			} else {
				end = start
			}
		}
	}

	// For VTODO, also check DUE property
	if comp.Name == ical.CompToDo {
		if due, err := comp.Props.DateTime(ical.PropDue, nil); err == nil {
			if !hasTime {
				start = due
				end = due
				hasTime = true
			} else if due.After(end) {
				// If DUE is later than calculated end, use DUE as the end
				end = due
			}
		}
	}

	return start, end, hasTime
}

// parseDateList reads the comma-separated DATE, DATE-TIME or PERIOD values of an
// RDATE, EXDATE or RECURRENCE-ID property.
func parseDateList(prop *ical.Prop, defaultLoc *time.Location, allowPeriods bool) ([]time.Time, []RDatePeriod, error) {
	loc := defaultLoc
	if tzid := prop.Params.Get(ical.ParamTimezoneID); tzid != "" {
		var err error
		if loc, err = time.LoadLocation(tzid); err != nil {
			return nil, nil, fmt.Errorf("unknown TZID %q: %w", tzid, err)
		}
	}
	valueType := strings.ToUpper(prop.Params.Get(ical.ParamValue))

	var dates []time.Time
	var periods []RDatePeriod
	for _, item := range strings.Split(prop.Value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		if valueType == string(ical.ValuePeriod) || strings.Contains(item, "/") {
			if !allowPeriods {
				return nil, nil, fmt.Errorf("period %q not allowed here", item)
			}
			p, err := datetime.ParsePeriod(item)
			if err != nil {
				return nil, nil, err
			}
			start := toTime(p.Start, p.UTC, loc)
			periods = append(periods, RDatePeriod{
				Start: start,
				End:   start.Add(time.Duration(p.End.Sub(p.Start)) * time.Second),
			})
			continue
		}

		dt, utc, err := datetime.Parse(item)
		if err != nil {
			return nil, nil, err
		}
		if valueType == string(ical.ValueDate) && dt.HasTime {
			return nil, nil, fmt.Errorf("value %q is not a DATE", item)
		}
		dates = append(dates, toTime(dt, utc, loc))
	}
	return dates, periods, nil
}

func toTime(dt datetime.DateTime, utc bool, loc *time.Location) time.Time {
	if utc {
		return dt.Time(time.UTC)
	}
	return dt.Time(loc)
}

func isDateValue(prop *ical.Prop) bool {
	if strings.EqualFold(prop.Params.Get(ical.ParamValue), string(ical.ValueDate)) {
		return true
	}
	return len(strings.TrimSpace(prop.Value)) == 8
}

// SafeTimeDeref safely dereferences a time pointer, returning zero time if nil
func SafeTimeDeref(t *time.Time, defaultTime time.Time) time.Time {
	if t == nil {
		return defaultTime
	}
	return *t
}
