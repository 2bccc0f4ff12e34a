package recurrence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyp0633/librecur/datetime"
	"github.com/cyp0633/librecur/internal/calendar"
	"github.com/cyp0633/librecur/rrule"
)

func dt(s string) datetime.DateTime {
	return datetime.MustParse(s)
}

func dts(ss ...string) []datetime.DateTime {
	out := make([]datetime.DateTime, len(ss))
	for i, s := range ss {
		out[i] = dt(s)
	}
	return out
}

func ptr(d datetime.DateTime) *datetime.DateTime {
	return &d
}

func rules(dateOnly bool, texts ...string) []*rrule.Rule {
	out := make([]*rrule.Rule, len(texts))
	for i, text := range texts {
		out[i] = rrule.MustParse(text, dateOnly)
	}
	return out
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		set    Set
		window Window
		want   []string
	}{
		{
			name: "exdate removes one daily occurrence",
			set: Set{
				Anchor:  dt("20240101T090000"),
				RRules:  rules(false, "FREQ=DAILY;COUNT=5"),
				ExDates: dts("20240103T090000"),
			},
			want: []string{"20240101T090000", "20240102T090000", "20240104T090000", "20240105T090000"},
		},
		{
			name: "exdate must match exactly",
			set: Set{
				Anchor:  dt("20240101T090000"),
				RRules:  rules(false, "FREQ=DAILY;COUNT=2"),
				ExDates: dts("20240102T100000"),
			},
			want: []string{"20240101T090000", "20240102T090000"},
		},
		{
			name: "exclusion wins over an explicit date",
			set: Set{
				Anchor:  dt("20240101T090000"),
				RDates:  dts("20240201T090000", "20240301T090000"),
				ExDates: dts("20240201T090000"),
			},
			want: []string{"20240101T090000", "20240301T090000"},
		},
		{
			name: "exception rule removes weekends",
			set: Set{
				Anchor:  dt("20240101T090000"),
				RRules:  rules(false, "FREQ=DAILY;COUNT=7"),
				ExRules: rules(false, "FREQ=WEEKLY;BYDAY=SA,SU"),
			},
			want: []string{"20240101T090000", "20240102T090000", "20240103T090000", "20240104T090000", "20240105T090000"},
		},
		{
			name: "exception rule removes an explicit date",
			set: Set{
				Anchor:  dt("20240101T090000"),
				RDates:  dts("20240106T090000", "20240108T090000"),
				ExRules: rules(false, "FREQ=WEEKLY;BYDAY=SA"),
			},
			want: []string{"20240101T090000", "20240108T090000"},
		},
		{
			name: "duplicates are merged",
			set: Set{
				Anchor: dt("20240101T090000"),
				RRules: rules(false, "FREQ=DAILY;COUNT=3", "FREQ=DAILY;INTERVAL=2;COUNT=2"),
				RDates: dts("20240102T090000", "20240102T100000"),
			},
			want: []string{"20240101T090000", "20240102T090000", "20240102T100000", "20240103T090000"},
		},
		{
			name: "anchor is an occurrence even when the rule skips it",
			set: Set{
				Anchor: dt("20240101T090000"),
				RRules: rules(false, "FREQ=WEEKLY;BYDAY=FR;COUNT=2"),
			},
			want: []string{"20240101T090000", "20240105T090000", "20240112T090000"},
		},
		{
			name: "anchor can be excluded",
			set: Set{
				Anchor:  dt("20240101T090000"),
				RRules:  rules(false, "FREQ=DAILY;COUNT=2"),
				ExDates: dts("20240101T090000"),
			},
			want: []string{"20240102T090000"},
		},
		{
			name: "window drops the anchor and later occurrences",
			set: Set{
				Anchor: dt("20240101T090000"),
				RRules: rules(false, "FREQ=DAILY"),
			},
			window: Window{Start: ptr(dt("20240103T000000")), End: ptr(dt("20240104T235959"))},
			want:   []string{"20240103T090000", "20240104T090000"},
		},
		{
			name: "date anchor merges by date",
			set: Set{
				Anchor:  dt("20240101"),
				RRules:  rules(true, "FREQ=DAILY;COUNT=3"),
				RDates:  dts("20240101T120000", "20240110"),
				ExDates: dts("20240102T000000"),
			},
			want: []string{"20240101", "20240103", "20240110"},
		},
		{
			name: "open-ended exception rule",
			set: Set{
				Anchor:  dt("20240101"),
				RRules:  rules(true, "FREQ=MONTHLY;COUNT=4"),
				ExRules: rules(true, "FREQ=MONTHLY;INTERVAL=2"),
			},
			want: []string{"20240201", "20240401"},
		},
		{
			name: "nothing left",
			set: Set{
				Anchor:  dt("20240101"),
				ExDates: dts("20240101"),
			},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Resolve(tt.set, tt.window)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, res.Occurrences)
			} else {
				assert.Equal(t, dts(tt.want...), res.Occurrences)
			}
			assert.False(t, res.Capped)
		})
	}
}

func TestResolve_Unbounded(t *testing.T) {
	set := Set{
		Anchor: dt("20240101T090000"),
		RRules: rules(false, "FREQ=DAILY"),
	}
	_, err := Resolve(set, Window{Start: ptr(dt("20240201T000000"))})
	assert.ErrorIs(t, err, rrule.ErrUnbounded)

	res, err := Resolve(set, Window{End: ptr(dt("20240102T235959"))})
	require.NoError(t, err)
	assert.Equal(t, dts("20240101T090000", "20240102T090000"), res.Occurrences)
}

func TestResolve_InvalidInput(t *testing.T) {
	_, err := Resolve(Set{Anchor: datetime.DateTime{Year: 2023, Month: 2, Day: 29}}, Window{})
	assert.ErrorIs(t, err, datetime.ErrRange)

	_, err = Resolve(Set{
		Anchor: dt("20240101"),
		RDates: []datetime.DateTime{{Year: 2024, Month: 4, Day: 31}},
	}, Window{})
	assert.ErrorIs(t, err, datetime.ErrRange)
}

func TestResolve_Capped(t *testing.T) {
	set := Set{
		Anchor: dt("20240101"),
		RRules: rules(true, "FREQ=MONTHLY;BYMONTHDAY=31;BYDAY=1MO;COUNT=1"),
	}
	res, err := Resolve(set, Window{MaxEmptyPeriods: 10})
	require.NoError(t, err)
	assert.True(t, res.Capped)
	assert.Equal(t, dts("20240101"), res.Occurrences)
}

func TestResolve_AscendingAndUnique(t *testing.T) {
	set := Set{
		Anchor: dt("20240115T083000"),
		RRules: rules(false,
			"FREQ=WEEKLY;BYDAY=MO,TH;COUNT=30",
			"FREQ=MONTHLY;BYMONTHDAY=1,15;COUNT=12",
			"FREQ=DAILY;INTERVAL=3;COUNT=40",
		),
		RDates:  dts("20240120T083000", "20240118T083000", "20240301T083000"),
		ExRules: rules(false, "FREQ=MONTHLY;BYMONTHDAY=-1"),
	}
	res, err := Resolve(set, Window{})
	require.NoError(t, err)
	require.NotEmpty(t, res.Occurrences)
	for i := 1; i < len(res.Occurrences); i++ {
		assert.True(t, res.Occurrences[i-1].Before(res.Occurrences[i]), "not strictly ascending at %d", i)
	}
	for _, o := range res.Occurrences {
		assert.NotEqual(t, calendar.DaysInMonth(o.Year, o.Month), o.Day, "%s is a month end", o)
	}
}

func TestResolve_Concurrent(t *testing.T) {
	set := Set{
		Anchor:  dt("20240101T090000"),
		RRules:  rules(false, "FREQ=DAILY;COUNT=50"),
		ExRules: rules(false, "FREQ=WEEKLY;BYDAY=SU"),
	}
	want, err := Resolve(set, Window{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]Resolution, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := Resolve(set, Window{})
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()
	for _, res := range results {
		assert.Equal(t, want, res)
	}
}
