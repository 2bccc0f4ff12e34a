package datetime

import (
	"errors"
	"fmt"
)

// ErrRange is matched by every *RangeError.
var ErrRange = errors.New("value out of range")

// RangeError reports an invalid calendar value at construction time.
type RangeError struct {
	Field string // "year", "month", "day", "hour", "minute", "second", "period", ...
	Value string // offending token
	Msg   string
}

func (e *RangeError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s %s: %s", ErrRange, e.Field, e.Value, e.Msg)
	}
	return fmt.Sprintf("%s: %s %s", ErrRange, e.Field, e.Value)
}

func (e *RangeError) Is(target error) bool {
	return target == ErrRange
}

func rangeError(field string, value any, msg string) error {
	return &RangeError{Field: field, Value: fmt.Sprint(value), Msg: msg}
}
