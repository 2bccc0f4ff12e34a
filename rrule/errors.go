package rrule

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is matched by every *FormatError.
	ErrFormat = errors.New("invalid recurrence rule")
	// ErrUnbounded is returned when a materializing call has nothing to stop it:
	// no COUNT, no UNTIL, no window end and no limit.
	ErrUnbounded = errors.New("unbounded recurrence expansion")
)

// FormatError names the rule part and the token that made a rule invalid.
type FormatError struct {
	Part   string
	Value  string
	Reason string
}

func (e *FormatError) Error() string {
	switch {
	case e.Part == "":
		return fmt.Sprintf("%s: %s", ErrFormat, e.Reason)
	case e.Value == "":
		return fmt.Sprintf("%s: %s: %s", ErrFormat, e.Part, e.Reason)
	}
	return fmt.Sprintf("%s: %s=%s: %s", ErrFormat, e.Part, e.Value, e.Reason)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func formatError(part, value, reason string) error {
	return &FormatError{Part: part, Value: value, Reason: reason}
}
