package recurrence

import (
	"time"
)

// RecurrenceInfo contains all recurrence-related information for an event
type RecurrenceInfo struct {
	RRULE        []string      // RRULE values (without "RRULE:" prefix)
	EXRULE       []string      // EXRULE values
	RDATE        []time.Time   // Additional recurrence dates
	RDATEPeriods []RDatePeriod // RDATE;VALUE=PERIOD entries, each with its own length
	EXDATE       []time.Time   // Exception dates (excluded occurrences)
	RecurrenceID *time.Time    // For exception instances - which occurrence this overrides
	AllDay       bool          // DTSTART is a DATE value
}

// RDatePeriod is an explicit occurrence that carries its own end.
type RDatePeriod struct {
	Start time.Time
	End   time.Time
}

// IsRecurring reports whether the info adds any occurrence beyond DTSTART.
func (r RecurrenceInfo) IsRecurring() bool {
	return len(r.RRULE) > 0 || len(r.RDATE) > 0 || len(r.RDATEPeriods) > 0
}

// TimeOccurrence represents a single occurrence of an event in time
type TimeOccurrence struct {
	Start        time.Time  // Start time of this occurrence
	End          time.Time  // End time of this occurrence
	IsException  bool       // True if this is an exception/override instance
	RecurrenceID *time.Time // If this is an exception, the original occurrence time
}

// Expansion is the result of expanding one master event over a range.
type Expansion struct {
	Occurrences []TimeOccurrence
	// Capped means a rule gave up after too many empty periods; Occurrences may be
	// incomplete.
	Capped bool
	// Truncated means more occurrences overlapped the range than
	// MaxExpansionOccurrences allows; Occurrences holds the first ones.
	Truncated bool
}
