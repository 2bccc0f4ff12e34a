// Package memory is an in-memory storage.Storage whose time-range queries expand
// recurring events. It is meant for tests and small tools.
package memory

import (
	"cmp"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/cyp0633/librecur/rrule"
	"github.com/cyp0633/librecur/storage"
	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

// Store implements storage.Storage interface using in-memory maps
type Store struct {
	mu        sync.RWMutex
	calendars map[string]*storage.Calendar       // key: userID/calendarID
	objects   map[string]*storage.CalendarObject // key: userID/objectID

	engine     *recurrence.Engine
	ownsEngine bool
	logger     *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used by the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithEngine sets the recurrence engine used for time-range queries. The store
// does not close an engine passed in this way.
func WithEngine(engine *recurrence.Engine) Option {
	return func(s *Store) {
		s.engine = engine
	}
}

// New creates a new in-memory storage
func New(opts ...Option) *Store {
	s := &Store{
		calendars: make(map[string]*storage.Calendar),
		objects:   make(map[string]*storage.CalendarObject),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.engine == nil {
		s.engine = recurrence.NewEngine(recurrence.WithLogger(s.logger))
		s.ownsEngine = true
	}
	return s
}

// Close stops the recurrence engine the store created for itself.
func (s *Store) Close() {
	if s.ownsEngine {
		s.engine.Close()
	}
}

func (s *Store) calendarKey(userID, calendarID string) string {
	return fmt.Sprintf("%s/%s", userID, calendarID)
}

func (s *Store) objectKey(userID, objectID string) string {
	return fmt.Sprintf("%s/%s", userID, objectID)
}

func generateETag(data []byte) string {
	hash := sha1.Sum(data)
	return `"` + hex.EncodeToString(hash[:]) + `"`
}

// Calendar operations

func (s *Store) GetCalendar(_ context.Context, userID, calendarID string) (*storage.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cal, ok := s.calendars[s.calendarKey(userID, calendarID)]
	if !ok {
		return nil, &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "calendar not found",
		}
	}

	return cal, nil
}

func (s *Store) ListCalendars(_ context.Context, userID string) ([]*storage.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var calendars []*storage.Calendar
	for _, cal := range s.calendars {
		if cal.UserID == userID {
			calendars = append(calendars, cal)
		}
	}
	slices.SortFunc(calendars, func(a, b *storage.Calendar) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return calendars, nil
}

func (s *Store) CreateCalendar(_ context.Context, cal *storage.Calendar) error {
	if cal.ID == "" {
		cal.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.calendarKey(cal.UserID, cal.ID)
	if _, exists := s.calendars[key]; exists {
		return &storage.Error{
			Type:    storage.ErrAlreadyExists,
			Message: "calendar already exists",
		}
	}

	now := time.Now()
	cal.Created = now
	cal.Modified = now
	s.calendars[key] = cal

	return nil
}

func (s *Store) UpdateCalendar(_ context.Context, cal *storage.Calendar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.calendarKey(cal.UserID, cal.ID)
	if _, exists := s.calendars[key]; !exists {
		return &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "calendar not found",
		}
	}

	cal.Modified = time.Now()
	s.calendars[key] = cal

	return nil
}

func (s *Store) DeleteCalendar(_ context.Context, userID, calendarID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.calendarKey(userID, calendarID)
	if _, exists := s.calendars[key]; !exists {
		return &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "calendar not found",
		}
	}

	delete(s.calendars, key)

	// Delete all objects in this calendar
	for objKey, obj := range s.objects {
		if obj.CalendarID == calendarID && obj.UserID == userID {
			delete(s.objects, objKey)
		}
	}

	return nil
}

// Calendar object operations

func (s *Store) GetObject(_ context.Context, userID, objectID string) (*storage.CalendarObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[s.objectKey(userID, objectID)]
	if !ok {
		return nil, &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "object not found",
		}
	}

	return obj, nil
}

// ListObjects returns the objects of a calendar ordered by ID. With a time range
// set, a recurring object is returned when any of its occurrences overlaps it.
func (s *Store) ListObjects(ctx context.Context, userID, calendarID string, opts *storage.ListOptions) ([]*storage.CalendarObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var objects []*storage.CalendarObject
	for _, obj := range s.objects {
		if obj.UserID != userID || obj.CalendarID != calendarID {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Apply filters if provided
		if opts != nil {
			if len(opts.ComponentTypes) > 0 && !slices.Contains(opts.ComponentTypes, obj.ObjectType) {
				continue
			}
			if opts.Start != nil || opts.End != nil {
				match, err := s.inRange(obj, opts.Start, opts.End)
				if err != nil {
					s.logger.Warn("skipping object with unusable recurrence",
						"object_id", obj.ID, "error", err)
					continue
				}
				if !match {
					continue
				}
			}
		}

		objects = append(objects, obj)
	}
	slices.SortFunc(objects, func(a, b *storage.CalendarObject) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return objects, nil
}

// inRange reports whether obj has an occurrence overlapping [start, end]. A nil
// bound is open.
func (s *Store) inRange(obj *storage.CalendarObject, start, end *time.Time) (bool, error) {
	masterStart, masterEnd, ok := recurrence.ExtractBasicTimeInfoFromComponent(obj.Component)
	if !ok {
		return false, nil
	}
	info, err := recurrence.ExtractRecurrenceInfoFromComponent(obj.Component)
	if err != nil {
		return false, err
	}

	if !info.IsRecurring() && len(info.EXRULE) == 0 && len(info.EXDATE) == 0 {
		return (start == nil || !masterEnd.Before(*start)) && (end == nil || !masterStart.After(*end)), nil
	}
	if end != nil && end.Before(masterStart) {
		// An open start is taken as DTSTART.
		return false, nil
	}

	rangeStart := recurrence.SafeTimeDeref(start, masterStart)
	rangeEnd := rangeStart.AddDate(openEndedYears, 0, 0)
	if end != nil {
		rangeEnd = *end
	}
	return s.engine.HasOccurrenceInRange(masterStart, masterEnd, info, rangeStart, rangeEnd)
}

// openEndedYears bounds queries without an end.
const openEndedYears = 100

func (s *Store) CreateObject(_ context.Context, obj *storage.CalendarObject) error {
	if err := s.prepare(obj); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.objectKey(obj.UserID, obj.ID)
	if _, exists := s.objects[key]; exists {
		return &storage.Error{
			Type:    storage.ErrAlreadyExists,
			Message: "object already exists",
		}
	}

	// Verify calendar exists
	calKey := s.calendarKey(obj.UserID, obj.CalendarID)
	if _, exists := s.calendars[calKey]; !exists {
		return &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "calendar not found",
		}
	}

	now := time.Now()
	obj.Created = now
	obj.Modified = now
	s.objects[key] = obj
	s.logger.Debug("object created", "object_id", obj.ID, "etag", obj.ETag)

	return nil
}

func (s *Store) UpdateObject(_ context.Context, obj *storage.CalendarObject) error {
	if err := s.prepare(obj); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.objectKey(obj.UserID, obj.ID)
	existing, exists := s.objects[key]
	if !exists {
		return &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "object not found",
		}
	}

	obj.Created = existing.Created
	obj.Modified = time.Now()
	s.objects[key] = obj
	s.logger.Debug("object updated", "object_id", obj.ID, "etag", obj.ETag)

	return nil
}

func (s *Store) DeleteObject(_ context.Context, userID, objectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.objectKey(userID, objectID)
	if _, exists := s.objects[key]; !exists {
		return &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "object not found",
		}
	}

	delete(s.objects, key)
	s.logger.Debug("object deleted", "object_id", objectID)

	return nil
}

// prepare validates obj and fills in its ID, type and ETag.
func (s *Store) prepare(obj *storage.CalendarObject) error {
	if obj.Event == nil || obj.Component == nil {
		return &storage.Error{
			Type:    storage.ErrInvalidInput,
			Message: "object has no component",
		}
	}
	info, err := recurrence.ExtractRecurrenceInfoFromComponent(obj.Component)
	if err == nil {
		for _, text := range slices.Concat(info.RRULE, info.EXRULE) {
			if _, err = rrule.Parse(text, info.AllDay); err != nil {
				break
			}
		}
	}
	if err != nil {
		return &storage.Error{
			Type:    storage.ErrInvalidInput,
			Message: "invalid recurrence",
			Err:     err,
		}
	}

	if obj.ID == "" {
		obj.ID = uuid.NewString()
	}
	if obj.ObjectType == "" {
		obj.ObjectType = obj.Name
	}

	ics, err := storage.IcalEventToICS(*obj.Event)
	if err != nil {
		return &storage.Error{
			Type:    storage.ErrInvalidInput,
			Message: "failed to encode object",
			Err:     err,
		}
	}
	obj.ETag = generateETag([]byte(ics))
	return nil
}

// series is a master object and the objects overriding its instances.
type series struct {
	master    *storage.CalendarObject
	overrides []*storage.CalendarObject
}

// Instances expands the objects of a calendar over [start, end]. Objects sharing
// a UID form one series: the one without RECURRENCE-ID is the master and the
// others replace the instances they name.
func (s *Store) Instances(ctx context.Context, userID, calendarID string, start, end time.Time) ([]storage.Instance, error) {
	if end.Before(start) {
		return nil, &storage.Error{
			Type:    storage.ErrInvalidInput,
			Message: "range end before start",
		}
	}

	s.mu.RLock()
	if _, ok := s.calendars[s.calendarKey(userID, calendarID)]; !ok {
		s.mu.RUnlock()
		return nil, &storage.Error{
			Type:    storage.ErrNotFound,
			Message: "calendar not found",
		}
	}
	groups := make(map[string]*series)
	for _, obj := range s.objects {
		if obj.UserID != userID || obj.CalendarID != calendarID {
			continue
		}
		uid := obj.ID
		if prop := obj.Props.Get(ical.PropUID); prop != nil && prop.Value != "" {
			uid = prop.Value
		}
		g, ok := groups[uid]
		if !ok {
			g = &series{}
			groups[uid] = g
		}
		if obj.Props.Get(recurrenceIDProp) != nil {
			g.overrides = append(g.overrides, obj)
		} else {
			g.master = obj
		}
	}
	s.mu.RUnlock()

	var instances []storage.Instance
	for uid, g := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := s.expandSeries(g, start, end)
		if err != nil {
			return nil, &storage.Error{
				Type:    storage.ErrInvalidInput,
				Message: fmt.Sprintf("failed to expand %s", uid),
				Err:     err,
			}
		}
		instances = append(instances, found...)
	}

	slices.SortFunc(instances, func(a, b storage.Instance) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.Object.ID, b.Object.ID)
	})
	return instances, nil
}

const recurrenceIDProp = "RECURRENCE-ID"

func (s *Store) expandSeries(g *series, start, end time.Time) ([]storage.Instance, error) {
	if g.master == nil {
		// Overrides whose master is gone still stand on their own.
		var out []storage.Instance
		for _, o := range g.overrides {
			exp, err := s.engine.ExpandWithOverrides(o.Component, nil, start, end)
			if err != nil {
				return nil, err
			}
			for _, occ := range exp.Occurrences {
				out = append(out, storage.Instance{Object: o, Start: occ.Start, End: occ.End, IsException: true})
			}
		}
		return out, nil
	}

	comps := make([]*ical.Component, len(g.overrides))
	for i, o := range g.overrides {
		comps[i] = o.Component
	}
	exp, err := s.engine.ExpandWithOverrides(g.master.Component, comps, start, end)
	if err != nil {
		return nil, err
	}
	if exp.Capped {
		s.logger.Warn("series expansion capped", "object_id", g.master.ID)
	}

	out := make([]storage.Instance, 0, len(exp.Occurrences))
	for _, occ := range exp.Occurrences {
		inst := storage.Instance{
			Object:       g.master,
			Start:        occ.Start,
			End:          occ.End,
			IsException:  occ.IsException,
			RecurrenceID: occ.RecurrenceID,
		}
		if occ.IsException {
			inst.Object = s.overrideFor(g.overrides, occ.RecurrenceID)
		}
		out = append(out, inst)
	}
	return out, nil
}

func (s *Store) overrideFor(overrides []*storage.CalendarObject, recurrenceID *time.Time) *storage.CalendarObject {
	for _, o := range overrides {
		info, err := recurrence.ExtractRecurrenceInfoFromComponent(o.Component)
		if err == nil && info.RecurrenceID != nil && recurrenceID != nil && info.RecurrenceID.Equal(*recurrenceID) {
			return o
		}
	}
	return overrides[0]
}
