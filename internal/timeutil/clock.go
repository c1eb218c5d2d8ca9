package timeutil

import (
	"fmt"
	"time"
)

// Now returns the current time in UTC. Every persisted timestamp goes through it.
func Now() time.Time {
	return time.Now().UTC()
}

// Clock lets services and the store take a fixed time in tests.
type Clock func() time.Time

// Or returns c, or Now when c is nil.
func (c Clock) Or() Clock {
	if c == nil {
		return Now
	}
	return c
}

// MonthLabel returns the three-letter English abbreviation of m ("Jan".."Dec").
func MonthLabel(m time.Month) string {
	return m.String()[:3]
}

// StartOfYear returns 00:00:00 UTC on the first of January of year.
func StartOfYear(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// Common layouts
const (
	DateLayout    = "2006-01-02"
	DisplayLayout = "02 Jan 2006"
	StampLayout   = "20060102T150405Z"
)

// inputLayouts are the date forms clients send, tried in order. Values without
// an offset are read as UTC.
var inputLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	DateLayout,
}

// ParseDate accepts an RFC 3339 timestamp, a naive "2006-01-02T15:04:05"
// timestamp or a bare "2006-01-02" date and returns it in UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
