// Package timefmt converts between the wire formats used for appointments:
// calendar dates as YYYY-MM-DD, booking times as 24-hour "HH:MM" and
// published slots as 12-hour "hh:MM AM".
package timefmt

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DateLayout is the only accepted calendar date format
const DateLayout = "2006-01-02"

var (
	ErrInvalidDate  = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidClock = errors.New("time must be in HH:MM format")
	ErrInvalidSlot  = errors.New("slot must be in hh:MM AM/PM format")

	dateRe    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clock24Re = regexp.MustCompile(`^\d{2}:\d{2}$`)
	clock12Re = regexp.MustCompile(`^(0[1-9]|1[0-2]):[0-5]\d (AM|PM)$`)
)

// ParseDate parses a YYYY-MM-DD string into midnight UTC of that day.
// Impossible days such as 2025-02-30 are rejected.
func ParseDate(s string) (time.Time, error) {
	if !dateRe.MatchString(s) {
		return time.Time{}, ErrInvalidDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// ParseClock splits a 24-hour "HH:MM" value into hour and minute
func ParseClock(s string) (int, int, error) {
	if !clock24Re.MatchString(s) {
		return 0, 0, ErrInvalidClock
	}
	hour, _ := strconv.Atoi(s[:2])
	minute, _ := strconv.Atoi(s[3:])
	if hour > 23 || minute > 59 {
		return 0, 0, ErrInvalidClock
	}
	return hour, minute, nil
}

// To12Hour converts "HH:MM" to the slot form, e.g. "13:05" -> "01:05 PM"
func To12Hour(s string) (string, error) {
	hour, minute, err := ParseClock(s)
	if err != nil {
		return "", err
	}
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%02d:%02d %s", h, minute, period), nil
}

// IsSlot reports whether s is a well-formed 12-hour slot
func IsSlot(s string) bool {
	return clock12Re.MatchString(s)
}

// IsDate reports whether s is a real YYYY-MM-DD date
func IsDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// Today returns the calendar day of now in its own location, as YYYY-MM-DD
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// IsBefore reports whether date a falls before date b. Both must be YYYY-MM-DD.
func IsBefore(a, b string) bool {
	return a < b
}
