package service

import (
	"time"

	"github.com/highercomve/timesheets/internal/models"
)

const (
	GroupByNone = "None"
	GroupByDay  = "Daily"
	GroupByWeek = "Weekly"
)

// Shared helper functions for grouping

// WeekStart returns the Sunday on or before t, at midnight.
func WeekStart(t time.Time) time.Time {
	year, month, day := t.Date()
	d := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// GetWeekRange returns the Sunday..Saturday week containing t.
func GetWeekRange(t time.Time) (time.Time, time.Time) {
	start := WeekStart(t)
	end := start.AddDate(0, 0, 6)
	return start, end
}

// GetGroupKey returns a sortable bucket key for t.
func GetGroupKey(t time.Time, groupBy string) string {
	switch groupBy {
	case GroupByDay:
		return t.Format(models.DateLayout)
	case GroupByWeek:
		return WeekStart(t).Format(models.DateLayout)
	}
	return ""
}

func GetGroupTitle(t time.Time, groupBy string) string {
	switch groupBy {
	case GroupByDay:
		return t.Format("Monday, 02 Jan 2006")
	case GroupByWeek:
		start, end := GetWeekRange(t)
		return start.Format("Jan 02") + " - " + end.Format("Jan 02, 2006")
	}
	return ""
}

// ValidGroupBy reports whether groupBy names a known grouping.
func ValidGroupBy(groupBy string) bool {
	switch groupBy {
	case GroupByNone, GroupByDay, GroupByWeek:
		return true
	}
	return false
}
