package timeutil

import (
	"strings"
	"time"
)

// DayLayout is the calendar-date format accepted by listing filters
const DayLayout = "2006-01-02"

// Now returns the current time in UTC
func Now() time.Time {
	return time.Now().UTC()
}

// StartOfDay returns midnight UTC of the day containing t
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBefore returns midnight UTC n days before the day containing t
func DaysBefore(t time.Time, n int) time.Time {
	return StartOfDay(t).AddDate(0, 0, -n)
}

// ParseDay parses a YYYY-MM-DD date as midnight UTC
func ParseDay(value string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, strings.TrimSpace(value), time.UTC)
}

// NextDay returns midnight UTC of the day after the day containing t
func NextDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}
