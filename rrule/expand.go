package rrule

import (
	"iter"

	"github.com/cyp0633/librecur/datetime"
)

// Result is a materialized expansion.
type Result struct {
	Occurrences []datetime.DateTime
	Stop        StopReason
}

// Capped reports whether the expansion was cut short by the empty-period cap rather
// than by the rule or the caller's bounds.
func (r Result) Capped() bool {
	return r.Stop == StopCapped
}

// Bounded reports whether an expansion with these options terminates without relying
// on the empty-period cap.
func (r *Rule) Bounded(opts Options) bool {
	return r.Count.IsPresent() || r.Until.IsPresent() || opts.End != nil || opts.Limit > 0
}

// All returns the occurrences as a sequence. Breaking out of the range loop early
// is allowed.
func (r *Rule) All(anchor datetime.DateTime, opts Options) (iter.Seq[datetime.DateTime], error) {
	it, err := r.Iterator(anchor, opts)
	if err != nil {
		return nil, err
	}
	return func(yield func(datetime.DateTime) bool) {
		for {
			dt, ok := it.Next()
			if !ok || !yield(dt) {
				return
			}
		}
	}, nil
}

// Expand materializes every occurrence. It returns ErrUnbounded when nothing but the
// empty-period cap would end the expansion.
func (r *Rule) Expand(anchor datetime.DateTime, opts Options) (Result, error) {
	if !r.Bounded(opts) {
		return Result{}, ErrUnbounded
	}
	it, err := r.Iterator(anchor, opts)
	if err != nil {
		return Result{}, err
	}
	var res Result
	for {
		dt, ok := it.Next()
		if !ok {
			break
		}
		res.Occurrences = append(res.Occurrences, dt)
	}
	res.Stop = it.Stop()
	return res, nil
}
