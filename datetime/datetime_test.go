package datetime

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RangeErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func() (DateTime, error)
		field string
	}{
		{"day 31 in april", func() (DateTime, error) { return NewDate(2024, 4, 31) }, "day"},
		{"feb 29 non-leap", func() (DateTime, error) { return NewDate(2023, 2, 29) }, "day"},
		{"month 13", func() (DateTime, error) { return NewDate(2024, 13, 1) }, "month"},
		{"hour 24", func() (DateTime, error) { return New(2024, 1, 1, 24, 0, 0) }, "hour"},
		{"minute 60", func() (DateTime, error) { return New(2024, 1, 1, 0, 60, 0) }, "minute"},
		{"second 61", func() (DateTime, error) { return New(2024, 1, 1, 0, 0, 61) }, "second"},
		{"year 0", func() (DateTime, error) { return NewDate(0, 1, 1) }, "year"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrRange))
			var re *RangeError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.field, re.Field)
		})
	}
}

func TestNew_LeapSecondAndLeapDay(t *testing.T) {
	_, err := New(2016, 12, 31, 23, 59, 60)
	assert.NoError(t, err)
	_, err = NewDate(2024, 2, 29)
	assert.NoError(t, err)
}

func TestCompareAndEqual(t *testing.T) {
	date := MustDate(2024, 1, 1)
	midnight := MustNew(2024, 1, 1, 0, 0, 0)
	later := MustNew(2024, 1, 1, 0, 0, 1)

	assert.False(t, date.Equal(midnight))
	assert.Equal(t, -1, date.Compare(midnight))
	assert.Equal(t, 1, midnight.Compare(date))
	assert.True(t, date.Before(later))
	assert.True(t, later.After(midnight))
	assert.Equal(t, 0, later.Compare(later))

	list := []DateTime{later, midnight, date, MustDate(2023, 12, 31)}
	sort.Slice(list, func(i, j int) bool { return list[i].Before(list[j]) })
	assert.Equal(t, []DateTime{MustDate(2023, 12, 31), date, midnight, later}, list)
}

func TestArithmetic(t *testing.T) {
	dt := MustNew(2024, 2, 28, 23, 30, 0)
	assert.Equal(t, MustNew(2024, 2, 29, 23, 30, 0), dt.AddDays(1))
	assert.Equal(t, MustNew(2024, 3, 1, 0, 0, 0), dt.AddSeconds(1800+86400))
	assert.Equal(t, MustNew(2023, 12, 31, 23, 30, 0), MustNew(2024, 1, 1, 0, 30, 0).AddSeconds(-3600))
	assert.Equal(t, MustDate(2025, 1, 1), MustDate(2024, 12, 31).AddDays(1))
	assert.Equal(t, 86400+1800, MustNew(2024, 3, 1, 0, 0, 0).Sub(dt))

	leap := MustNew(2016, 12, 31, 23, 59, 60)
	assert.Equal(t, MustNew(2017, 1, 1, 0, 0, 1), leap.AddSeconds(1))

	assert.Equal(t, time.Monday, MustDate(2024, 1, 1).Weekday())
	assert.Equal(t, time.Sunday, MustDate(2024, 3, 31).Weekday())
	assert.Equal(t, 366, MustDate(2024, 12, 31).YearDay())
}

func TestAddDuration(t *testing.T) {
	d, err := ParseDuration("P1DT2H")
	require.NoError(t, err)
	assert.Equal(t, MustNew(2024, 1, 2, 11, 0, 0), MustNew(2024, 1, 1, 9, 0, 0).AddDuration(d))

	w, err := ParseDuration("-P1W")
	require.NoError(t, err)
	assert.Equal(t, MustDate(2023, 12, 25), MustDate(2024, 1, 1).AddDuration(w))

	assert.Equal(t, MustNew(2024, 1, 1, 2, 0, 0), MustDate(2024, 1, 1).AddDuration(Duration{Hours: 2}))
}

func TestParseAndString(t *testing.T) {
	tests := []struct {
		in   string
		want DateTime
		utc  bool
		out  string
	}{
		{"20240101", MustDate(2024, 1, 1), false, "20240101"},
		{"20240101T090000", MustNew(2024, 1, 1, 9, 0, 0), false, "20240101T090000"},
		{"20240101T090000Z", MustNew(2024, 1, 1, 9, 0, 0), true, "20240101T090000"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, utc, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.utc, utc)
			assert.Equal(t, tt.out, got.String())
		})
	}
	assert.Equal(t, "20240101T090000Z", MustNew(2024, 1, 1, 9, 0, 0).StringUTC())

	for _, bad := range []string{"", "2024011", "20240231", "20240101X090000", "20240101T25000", "2024-01-01"} {
		_, _, err := Parse(bad)
		assert.ErrorIs(t, err, ErrRange, bad)
	}
}

func TestTimeBridge(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tz database unavailable")
	}
	local := MustNew(2024, 7, 1, 9, 0, 0)
	off := LocationOffset(loc)
	assert.Equal(t, -4*time.Hour, off(local))
	assert.Equal(t, MustNew(2024, 7, 1, 13, 0, 0), local.ToUTC(off))
	assert.Equal(t, local, MustNew(2024, 7, 1, 13, 0, 0).FromUTC(off))

	winter := MustNew(2024, 1, 15, 9, 0, 0)
	assert.Equal(t, MustNew(2024, 1, 15, 14, 0, 0), winter.ToUTC(off))

	tt := local.Time(loc)
	assert.Equal(t, local, FromTime(tt))
	assert.Equal(t, local.Date(), DateFromTime(tt))
	assert.Equal(t, time.Duration(0), UTC(local))
}
