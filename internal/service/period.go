package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/highercomve/timesheets/internal/models"
)

const (
	PeriodThisWeek  = "thisWeek"
	PeriodLastWeek  = "lastWeek"
	PeriodThisMonth = "thisMonth"
	PeriodLastMonth = "lastMonth"
	PeriodCustom    = "custom"
)

var ErrUnknownPeriod = errors.New("unknown report period")

// PeriodRange resolves a named reporting period relative to now. For
// PeriodCustom, start and end are YYYY-MM-DD; a missing start means January
// 1st of now's year and a missing end means today. An empty period is
// treated as PeriodThisMonth.
func PeriodRange(period string, now time.Time, start, end string) (DateRange, error) {
	year, month, day := now.Date()
	today := time.Date(year, month, day, 0, 0, 0, 0, now.Location())

	switch period {
	case PeriodThisWeek:
		s, e := GetWeekRange(today)
		return DateRange{Start: s, End: e}, nil
	case PeriodLastWeek:
		s, e := GetWeekRange(today.AddDate(0, 0, -7))
		return DateRange{Start: s, End: e}, nil
	case "", PeriodThisMonth:
		first := time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
		return DateRange{Start: first, End: first.AddDate(0, 1, -1)}, nil
	case PeriodLastMonth:
		first := time.Date(year, month-1, 1, 0, 0, 0, 0, now.Location())
		return DateRange{Start: first, End: first.AddDate(0, 1, -1)}, nil
	case PeriodCustom:
		r := DateRange{
			Start: time.Date(year, time.January, 1, 0, 0, 0, 0, now.Location()),
			End:   today,
		}
		if start != "" {
			t, err := time.ParseInLocation(models.DateLayout, start, now.Location())
			if err != nil {
				return DateRange{}, fmt.Errorf("invalid start date %q: %w", start, err)
			}
			r.Start = t
		}
		if end != "" {
			t, err := time.ParseInLocation(models.DateLayout, end, now.Location())
			if err != nil {
				return DateRange{}, fmt.Errorf("invalid end date %q: %w", end, err)
			}
			r.End = t
		}
		return r, nil
	}
	return DateRange{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, period)
}
