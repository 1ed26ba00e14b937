package schedule

import (
	"fmt"
	"time"
)

const (
	// SlotStep is the spacing between bookable start times.
	SlotStep = 30 * time.Minute
	// ProximityWindow is how close, inclusive and in either direction, an
	// active booking may be to a start time before that time is unavailable.
	ProximityWindow = 30 * time.Minute
)

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// At combines a calendar date with an "HH:MM" clock time in the date's location.
func At(date time.Time, clock string) (time.Time, error) {
	m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	y, mo, d := date.Date()
	return time.Date(y, mo, d, m/60, m%60, 0, 0, date.Location()), nil
}

// AvailableSlots returns start times in [windowStart, windowEnd) spaced by
// step that are strictly after now and not within window of any busy time.
//
// All times are expected to be in the same location (timezone).
func AvailableSlots(windowStart, windowEnd time.Time, step, window time.Duration, busy []time.Time, now time.Time) []time.Time {
	if step <= 0 || !windowEnd.After(windowStart) {
		return nil
	}

	var slots []time.Time
	for t := windowStart; t.Before(windowEnd); t = t.Add(step) {
		if !t.After(now) {
			continue
		}
		if Conflicts(t, busy, window) {
			continue
		}
		slots = append(slots, t)
	}
	return slots
}

// Conflicts reports whether any busy time lies within window of t, bounds
// included.
func Conflicts(t time.Time, busy []time.Time, window time.Duration) bool {
	for _, b := range busy {
		d := b.Sub(t)
		if d < 0 {
			d = -d
		}
		if d <= window {
			return true
		}
	}
	return false
}

// DaySlots lists the open "HH:MM" start times on date. date must be midnight
// in the business location; booked holds the "HH:MM" times of active
// appointments on that date. The second result is false when the business is
// closed that day.
func DaySlots(date time.Time, hours WeeklyHours, booked []string, now time.Time) ([]string, bool, error) {
	dh, open := hours.On(date)
	if !open {
		return []string{}, false, nil
	}

	start, err := At(date, dh.Start)
	if err != nil {
		return nil, true, err
	}
	end, err := At(date, dh.End)
	if err != nil {
		return nil, true, err
	}
	busy, err := BusyTimes(date, booked)
	if err != nil {
		return nil, true, err
	}

	slots := AvailableSlots(start, end, SlotStep, ProximityWindow, busy, now)
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Format("15:04"))
	}
	return out, true, nil
}

// BusyTimes converts booked "HH:MM" times on date into instants.
func BusyTimes(date time.Time, booked []string) ([]time.Time, error) {
	busy := make([]time.Time, 0, len(booked))
	for _, b := range booked {
		t, err := At(date, b)
		if err != nil {
			return nil, fmt.Errorf("booked time: %w", err)
		}
		busy = append(busy, t)
	}
	return busy, nil
}
