package planner

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	minutesPerDay = 24 * 60
	dateLayout    = "2006-01-02"
)

var (
	ErrInvalidTime = errors.New("invalid wake time")
	ErrInvalidDate = errors.New("invalid date")
)

// TimeToMinutes converts a canonical "HH:MM" string into minutes since midnight.
func TimeToMinutes(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' || !isDigits(s[:2]) || !isDigits(s[3:]) {
		return 0, fmt.Errorf("%w %q, expected HH:MM", ErrInvalidTime, s)
	}
	hour, err := strconv.Atoi(s[:2])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: hour in %q", ErrInvalidTime, s)
	}
	minute, err := strconv.Atoi(s[3:])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: minute in %q", ErrInvalidTime, s)
	}
	return hour*60 + minute, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MinutesToTime formats minutes since midnight as "HH:MM". Values outside
// [0,1440) wrap around midnight.
func MinutesToTime(m int) string {
	m = wrapMinutes(m)
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func wrapMinutes(m int) int {
	return ((m % minutesPerDay) + minutesPerDay) % minutesPerDay
}

// ParseDate parses an ISO calendar date into midnight UTC of that day.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrInvalidDate, s, err)
	}
	return d, nil
}

// FormatDate returns the calendar date of t in t's own location.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// daysBetween returns the whole number of calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
