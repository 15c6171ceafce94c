package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekStart(t *testing.T) {
	// Wednesday 2024-03-06 afternoon.
	wed := time.Date(2024, 3, 6, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-03", WeekStart(wed).Format("2006-01-02"))

	sun := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, sun, WeekStart(sun))

	start, end := GetWeekRange(wed)
	assert.Equal(t, time.Sunday, start.Weekday())
	assert.Equal(t, time.Saturday, end.Weekday())
	assert.Equal(t, "2024-03-09", end.Format("2006-01-02"))
}

func TestGroupKeysAndTitles(t *testing.T) {
	d := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-06", GetGroupKey(d, GroupByDay))
	assert.Equal(t, "2024-03-03", GetGroupKey(d, GroupByWeek))
	assert.Empty(t, GetGroupKey(d, GroupByNone))

	assert.Equal(t, "Wednesday, 06 Mar 2024", GetGroupTitle(d, GroupByDay))
	assert.Equal(t, "Mar 03 - Mar 09, 2024", GetGroupTitle(d, GroupByWeek))

	assert.True(t, ValidGroupBy(GroupByWeek))
	assert.False(t, ValidGroupBy("Monthly"))
}

func TestPeriodRange(t *testing.T) {
	now := time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)
	key := func(t time.Time) string { return t.Format("2006-01-02") }

	tests := []struct {
		period     string
		start, end string
	}{
		{PeriodThisWeek, "2024-03-03", "2024-03-09"},
		{PeriodLastWeek, "2024-02-25", "2024-03-02"},
		{PeriodThisMonth, "2024-03-01", "2024-03-31"},
		{"", "2024-03-01", "2024-03-31"},
		{PeriodLastMonth, "2024-02-01", "2024-02-29"},
		{PeriodCustom, "2024-01-01", "2024-03-06"},
	}
	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			r, err := PeriodRange(tt.period, now, "", "")
			require.NoError(t, err)
			assert.Equal(t, tt.start, key(r.Start))
			assert.Equal(t, tt.end, key(r.End))
		})
	}
}

func TestPeriodRangeLastMonthAcrossYear(t *testing.T) {
	r, err := PeriodRange(PeriodLastMonth, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "", "")
	require.NoError(t, err)
	assert.Equal(t, "2023-12-01", r.Start.Format("2006-01-02"))
	assert.Equal(t, "2023-12-31", r.End.Format("2006-01-02"))
}

func TestPeriodRangeCustom(t *testing.T) {
	now := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)

	r, err := PeriodRange(PeriodCustom, now, "2024-02-10", "2024-02-20")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-10", r.Start.Format("2006-01-02"))
	assert.Equal(t, "2024-02-20", r.End.Format("2006-01-02"))

	_, err = PeriodRange(PeriodCustom, now, "10/02/2024", "")
	assert.Error(t, err)

	_, err = PeriodRange("fortnight", now, "", "")
	assert.ErrorIs(t, err, ErrUnknownPeriod)
}
