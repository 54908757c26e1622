// Package dates holds the calendar helpers shared by the workflow and the
// aggregations. Calendar dates travel as zero-padded "YYYY-MM-DD" strings so
// that lexicographic order equals chronological order.
package dates

import (
	"encoding/json"
	"strings"
	"time"
)

// Layouts used across the data model.
const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
	ClockLayout = "15:04"
)

// Today returns the calendar date of now.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// CurrentMonth returns the "YYYY-MM" key of now.
func CurrentMonth(now time.Time) string {
	return now.Format(MonthLayout)
}

// IsDate reports whether s is a valid zero-padded calendar date.
func IsDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// IsMonth reports whether s is a valid "YYYY-MM" key.
func IsMonth(s string) bool {
	if len(s) != len(MonthLayout) {
		return false
	}
	_, err := time.Parse(MonthLayout, s)
	return err == nil
}

// IsClock reports whether s is a valid "HH:MM" time of day.
func IsClock(s string) bool {
	if len(s) != len(ClockLayout) {
		return false
	}
	_, err := time.Parse(ClockLayout, s)
	return err == nil
}

// MonthOf returns the month key of a calendar date, or "" if invalid.
func MonthOf(date string) string {
	if !IsDate(date) {
		return ""
	}
	return date[:len(MonthLayout)]
}

// InRange reports whether date lies within [start, end], inclusive.
func InRange(date, start, end string) bool {
	if date == "" {
		return false
	}
	return date >= start && date <= end
}

// ShiftMonth moves a month key by delta months.
func ShiftMonth(month string, delta int) string {
	t, err := time.Parse(MonthLayout, month)
	if err != nil {
		return month
	}
	return t.AddDate(0, delta, 0).Format(MonthLayout)
}

// RoundToFive rounds t to the nearest 5-minute boundary of its wall clock.
// Exact halves round up.
func RoundToFive(t time.Time) time.Time {
	const step = 5 * time.Minute

	hour := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	offset := t.Sub(hour)
	rounded := ((offset + step/2) / step) * step

	return hour.Add(rounded)
}

// Clock formats the time of day of t as "HH:MM".
func Clock(t time.Time) string {
	return t.Format(ClockLayout)
}

// ParseTimestamp reads a stored instant. It accepts RFC 3339 strings,
// "YYYY-MM-DD" and "YYYY-MM-DDTHH:MM" strings, and epoch milliseconds.
func ParseTimestamp(v interface{}) (time.Time, bool) {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04", DateLayout} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	case float64:
		if val > 0 {
			return time.UnixMilli(int64(val)).UTC(), true
		}
	case json.Number:
		if ms, err := val.Int64(); err == nil && ms > 0 {
			return time.UnixMilli(ms).UTC(), true
		}
	}
	return time.Time{}, false
}

// Combine returns the instant for a calendar date and an optional "HH:MM"
// clock, in UTC.
func Combine(date, clock string) (time.Time, bool) {
	if !IsDate(date) {
		return time.Time{}, false
	}
	if IsClock(clock) {
		t, err := time.Parse("2006-01-02 15:04", date+" "+clock)
		if err == nil {
			return t.UTC(), true
		}
	}
	t, _ := time.Parse(DateLayout, date)
	return t.UTC(), true
}
