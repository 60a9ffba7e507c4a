// Package panchang partitions a solar day and night into labeled time
// windows anchored to sunrise and sunset, resolves which window is active for
// a given instant, and projects instants onto a semicircular dial.
//
// Every function in this package is pure. Callers sample "now" once per
// evaluation pass and pass the same value to every function of that pass.
package panchang

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay is the length of a civil day in minutes.
const MinutesPerDay = 24 * 60

// Placeholder is displayed in place of a time that is missing or unparseable.
const Placeholder = "--:--"

// TimeOfDay is a number of minutes since local midnight in [0, 1439].
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from an hour and minute, wrapping values
// outside a single day.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return wrap(hour*60 + minute)
}

// FromTime returns the minute of day of t in t's own location.
func FromTime(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute())
}

// Add returns t shifted by the given number of minutes, modulo one day.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return wrap(int(t) + minutes)
}

// Hour returns the 24-hour clock hour.
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute within the hour.
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// String formats t as 24-hour "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Format12 formats t as 12-hour "hh:mm AM".
func (t TimeOfDay) Format12() string {
	h := t.Hour()
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%02d:%02d %s", h, t.Minute(), suffix)
}

// On returns the instant at t on the calendar date of day, in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc)
}

// FormatOptional formats t, or returns Placeholder when t is nil.
func FormatOptional(t *TimeOfDay) string {
	if t == nil {
		return Placeholder
	}
	return t.String()
}

func wrap(m int) TimeOfDay {
	m %= MinutesPerDay
	if m < 0 {
		m += MinutesPerDay
	}
	return TimeOfDay(m)
}

// FormatError reports a time string that is neither "HH:MM" nor "HH:MM AM/PM".
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("panchang: invalid time %q: %s", e.Input, e.Reason)
}

// Parse converts a 24-hour "HH:MM" or 12-hour "HH:MM AM"/"HH:MM PM" string
// into a TimeOfDay. 12 AM is minute 0 and 12 PM is minute 720.
func Parse(raw string) (TimeOfDay, error) {
	s := strings.TrimSpace(raw)
	twelve, pm := false, false

	upper := strings.ToUpper(s)
	switch {
	case strings.HasSuffix(upper, "AM"):
		twelve = true
	case strings.HasSuffix(upper, "PM"):
		twelve, pm = true, true
	}
	if twelve {
		s = strings.TrimSpace(s[:len(s)-2])
	}

	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, &FormatError{Input: raw, Reason: "missing ':'"}
	}
	hour, err := parseDigits(hh, 1, 2)
	if err != nil {
		return 0, &FormatError{Input: raw, Reason: "hour " + err.Error()}
	}
	minute, err := parseDigits(mm, 2, 2)
	if err != nil {
		return 0, &FormatError{Input: raw, Reason: "minute " + err.Error()}
	}
	if minute > 59 {
		return 0, &FormatError{Input: raw, Reason: "minute out of range"}
	}

	if !twelve {
		if hour > 23 {
			return 0, &FormatError{Input: raw, Reason: "hour out of range for 24-hour time"}
		}
		return TimeOfDay(hour*60 + minute), nil
	}

	if hour < 1 || hour > 12 {
		return 0, &FormatError{Input: raw, Reason: "hour out of range for 12-hour time"}
	}
	hour %= 12
	if pm {
		hour += 12
	}
	return TimeOfDay(hour*60 + minute), nil
}

// ParseRange splits "HH:MM-HH:MM" on the hyphen and parses both sides. The end
// may precede the start; such a range crosses midnight.
func ParseRange(raw string) (TimeOfDay, TimeOfDay, error) {
	left, right, ok := strings.Cut(raw, "-")
	if !ok {
		return 0, 0, &FormatError{Input: raw, Reason: "missing '-' in range"}
	}
	start, err := Parse(left)
	if err != nil {
		return 0, 0, err
	}
	end, err := Parse(right)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseDigits(s string, minLen, maxLen int) (int, error) {
	if len(s) < minLen || len(s) > maxLen {
		return 0, fmt.Errorf("has %d digits", len(s))
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("is not numeric")
		}
	}
	return strconv.Atoi(s)
}
