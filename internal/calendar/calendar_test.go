package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsLeap(t *testing.T) {
	assert.True(t, IsLeap(2024))
	assert.True(t, IsLeap(2000))
	assert.False(t, IsLeap(1900))
	assert.False(t, IsLeap(2023))
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, DaysInMonth(2024, 2))
	assert.Equal(t, 28, DaysInMonth(2100, 2))
	assert.Equal(t, 30, DaysInMonth(2024, 4))
	assert.Equal(t, 31, DaysInMonth(2024, 12))
	assert.Equal(t, 0, DaysInMonth(2024, 13))
}

func TestOrdinalRoundTrip(t *testing.T) {
	// Walk a few centuries and compare against the standard library.
	start := time.Date(1899, 12, 25, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 200*366; i += 37 {
		d := start.AddDate(0, 0, i)
		n := Ordinal(d.Year(), int(d.Month()), d.Day())
		assert.Equal(t, int(d.Unix()/86400), n)

		y, m, day := FromOrdinal(n)
		assert.Equal(t, d.Year(), y)
		assert.Equal(t, int(d.Month()), m)
		assert.Equal(t, d.Day(), day)

		want := (int(d.Weekday()) + 6) % 7
		assert.Equal(t, want, Weekday(y, m, day))
	}
}

func TestYearDay(t *testing.T) {
	assert.Equal(t, 1, YearDay(2024, 1, 1))
	assert.Equal(t, 60, YearDay(2024, 2, 29))
	assert.Equal(t, 366, YearDay(2024, 12, 31))
	assert.Equal(t, 365, YearDay(2023, 12, 31))
	assert.Equal(t, 366, MonthStarts(2024)[12])
}

func TestDivMod(t *testing.T) {
	q, r := DivMod(-1, 7)
	assert.Equal(t, -1, q)
	assert.Equal(t, 6, r)
	q, r = DivMod(15, 7)
	assert.Equal(t, 2, q)
	assert.Equal(t, 1, r)
}
