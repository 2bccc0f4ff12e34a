package datetime

import "time"

// OffsetFunc resolves the UTC offset in effect at a local date-time in some zone.
// It is how callers plug their own timezone handling into the engine.
type OffsetFunc func(local DateTime) time.Duration

// UTC is the OffsetFunc of a zone that is always at UTC.
func UTC(DateTime) time.Duration { return 0 }

// LocationOffset adapts a *time.Location.
func LocationOffset(loc *time.Location) OffsetFunc {
	if loc == nil {
		return UTC
	}
	return func(local DateTime) time.Duration {
		_, off := local.Time(loc).Zone()
		return time.Duration(off) * time.Second
	}
}

// ToUTC converts a local date-time to UTC.
func (dt DateTime) ToUTC(offset OffsetFunc) DateTime {
	if offset == nil || !dt.HasTime {
		return dt
	}
	return dt.AddSeconds(-int(offset(dt) / time.Second))
}

// FromUTC converts a UTC date-time to local time. The offset is probed at the
// UTC wall clock first and then at the resulting local time, which settles every
// case but the skipped hour of a forward transition.
func (dt DateTime) FromUTC(offset OffsetFunc) DateTime {
	if offset == nil || !dt.HasTime {
		return dt
	}
	guess := dt.AddSeconds(int(offset(dt) / time.Second))
	return dt.AddSeconds(int(offset(guess) / time.Second))
}
