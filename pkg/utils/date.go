package utils

import (
	"time"
)

// StartOfUTCDay truncates t to midnight of its UTC calendar day.
func StartOfUTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDeadline accepts RFC 3339 timestamps and plain dates.
func ParseDeadline(value string) (time.Time, bool) {
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
