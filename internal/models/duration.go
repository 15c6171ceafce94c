package models

import (
	"time"
)

// clockLayouts are the accepted StartTime/EndTime formats.
var clockLayouts = []string{"15:04:05", "15:04"}

// DurationSource says where an entry's duration comes from. It is one of
// Manual, ClockRange or Unset.
type DurationSource interface {
	Hours() float64
	durationSource()
}

// Manual is a directly entered duration.
type Manual struct {
	Value float64
}

func (m Manual) Hours() float64 { return m.Value }
func (Manual) durationSource()  {}

// ClockRange is a start/end pair on the same calendar day. End before Start
// yields a negative duration; sessions crossing midnight are not corrected.
type ClockRange struct {
	Start string
	End   string
}

func (c ClockRange) Hours() float64 {
	start, ok := parseClock(c.Start)
	if !ok {
		return 0
	}
	end, ok := parseClock(c.End)
	if !ok {
		return 0
	}
	return end.Sub(start).Hours()
}

func (ClockRange) durationSource() {}

// Unset is an entry with no usable duration.
type Unset struct{}

func (Unset) Hours() float64  { return 0 }
func (Unset) durationSource() {}

// Source classifies the entry. ManualHours takes precedence over clock times.
func (e TimeEntry) Source() DurationSource {
	if e.ManualHours != nil {
		return Manual{Value: *e.ManualHours}
	}
	if e.StartTime != "" && e.EndTime != "" {
		return ClockRange{Start: e.StartTime, End: e.EndTime}
	}
	return Unset{}
}

// parseClock places a time of day on a fixed reference day.
func parseClock(s string) (time.Time, bool) {
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ValidClock reports whether s is an accepted time of day.
func ValidClock(s string) bool {
	_, ok := parseClock(s)
	return ok
}
