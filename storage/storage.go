// Package storage defines calendar object storage whose time-range queries understand
// recurring events.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
)

// Error types
type ErrorType string

const (
	ErrNotFound      ErrorType = "not_found"
	ErrAlreadyExists ErrorType = "already_exists"
	ErrInvalidInput  ErrorType = "invalid_input"
)

// Error represents a storage-related error
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsType reports whether err is a storage *Error of the given type.
func IsType(err error, t ErrorType) bool {
	for err != nil {
		if se, ok := err.(*Error); ok && se.Type == t {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Calendar represents a calendar collection
type Calendar struct {
	ID       string
	UserID   string
	Name     string
	TimeZone string
	Created  time.Time
	Modified time.Time
	// Embedded go-ical calendar for iCalendar properties
	*ical.Calendar
}

// CalendarObject represents a calendar object (event, todo, etc.)
type CalendarObject struct {
	ID         string
	CalendarID string
	UserID     string
	ETag       string
	ObjectType string // VEVENT, VTODO, etc.
	Created    time.Time
	Modified   time.Time
	// Use go-ical Event type for calendar object properties
	*ical.Event
}

// ListOptions provides options for listing calendar objects
type ListOptions struct {
	// Time range filter. A recurring object matches when any of its occurrences
	// overlaps the range.
	Start *time.Time
	End   *time.Time

	// Component filter
	ComponentTypes []string // VEVENT, VTODO, etc.
}

// Instance is one occurrence of a calendar object.
type Instance struct {
	Object       *CalendarObject
	Start        time.Time
	End          time.Time
	IsException  bool       // the occurrence comes from an override object
	RecurrenceID *time.Time // the master occurrence an override replaces
}

// Storage is the interface that must be implemented by storage backends
type Storage interface {
	// Calendar operations
	GetCalendar(ctx context.Context, userID, calendarID string) (*Calendar, error)
	ListCalendars(ctx context.Context, userID string) ([]*Calendar, error)
	CreateCalendar(ctx context.Context, cal *Calendar) error
	UpdateCalendar(ctx context.Context, cal *Calendar) error
	DeleteCalendar(ctx context.Context, userID, calendarID string) error

	// Calendar object operations
	GetObject(ctx context.Context, userID, objectID string) (*CalendarObject, error)
	ListObjects(ctx context.Context, userID, calendarID string, opts *ListOptions) ([]*CalendarObject, error)
	CreateObject(ctx context.Context, obj *CalendarObject) error
	UpdateObject(ctx context.Context, obj *CalendarObject) error
	DeleteObject(ctx context.Context, userID, objectID string) error

	// Instances expands every object of a calendar into its occurrences in
	// [start, end], applying overridden instances, ordered by start time.
	Instances(ctx context.Context, userID, calendarID string, start, end time.Time) ([]Instance, error)
}
