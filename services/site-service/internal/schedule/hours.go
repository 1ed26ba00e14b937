package schedule

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// DayHours is one weekday's opening window. Start and End are 24h "HH:MM"
// clock times; End is exclusive.
type DayHours struct {
	Open  bool   `json:"open"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// WeeklyHours maps lowercase weekday names to opening windows. A missing day
// is closed. Decoding from JSON validates the value, so a WeeklyHours read
// from storage or a request body is always well formed.
type WeeklyHours map[string]DayHours

func (h *WeeklyHours) UnmarshalJSON(b []byte) error {
	var raw map[string]DayHours
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := Normalize(raw)
	if err := out.Validate(); err != nil {
		return err
	}
	*h = out
	return nil
}

// Normalize lowercases and trims weekday keys. It does not validate.
func Normalize(raw map[string]DayHours) WeeklyHours {
	out := make(WeeklyHours, len(raw))
	for day, dh := range raw {
		out[strings.ToLower(strings.TrimSpace(day))] = dh
	}
	return out
}

func (h WeeklyHours) Validate() error {
	days := make([]string, 0, len(h))
	for day := range h {
		days = append(days, day)
	}
	sort.Strings(days)

	for _, day := range days {
		if _, ok := weekdays[day]; !ok {
			return fmt.Errorf("unknown weekday %q", day)
		}
		dh := h[day]
		if !dh.Open {
			continue
		}
		start, err := ParseClock(dh.Start)
		if err != nil {
			return fmt.Errorf("%s start: %w", day, err)
		}
		end, err := ParseClock(dh.End)
		if err != nil {
			return fmt.Errorf("%s end: %w", day, err)
		}
		if end <= start {
			return fmt.Errorf("%s: end %s must be after start %s", day, dh.End, dh.Start)
		}
	}
	return nil
}

// On returns the window for the weekday of date, and false when closed.
func (h WeeklyHours) On(date time.Time) (DayHours, bool) {
	dh, ok := h[strings.ToLower(date.Weekday().String())]
	if !ok || !dh.Open {
		return DayHours{}, false
	}
	return dh, true
}

// ParseClock converts "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
