// Package booking derives booking, room and violation state from snapshots
// fetched from the backend. Everything here is a pure function of its inputs
// and the supplied current time.
package booking

import (
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTimestamp parses a backend timestamp. Values without a zone are read
// in the local zone. It never fails loudly: ok is false for anything it
// cannot read, and callers treat that as "timing unknown".
func ParseTimestamp(value string) (time.Time, bool) {
	return ParseTimestampIn(value, time.Local)
}

// ParseTimestampIn is ParseTimestamp with an explicit zone for values that
// carry none.
func ParseTimestampIn(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		parsed, err := time.ParseInLocation(layout, value, loc)
		if err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// Window returns the parsed start and end of an interval. ok is false when
// either side is unreadable or the interval is empty or inverted.
func Window(start, end string) (time.Time, time.Time, bool) {
	s, okStart := ParseTimestamp(start)
	e, okEnd := ParseTimestamp(end)
	if !okStart || !okEnd || !e.After(s) {
		return time.Time{}, time.Time{}, false
	}
	return s, e, true
}

func within(now, start, end time.Time) bool {
	return !now.Before(start) && !now.After(end)
}
