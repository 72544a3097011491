// Package datekey converts between timestamps and local calendar days.
//
// Calendar days are always handled in the machine's local time zone. A
// "YYYY-MM-DD" key is decomposed into its year, month and day and rebuilt
// with time.Date, so a key never drifts by a day because of a UTC parse.
package datekey

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layout is the canonical date key layout.
const Layout = "2006-01-02"

// ErrInvalidKey is returned when a string is not a YYYY-MM-DD date key.
var ErrInvalidKey = errors.New("invalid date key")

// ErrInvalidTimestamp is returned when a timestamp cannot be parsed.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// weekdays is the single weekday table shared by the due evaluator and the
// next-occurrence projector. Index matches time.Weekday.
var weekdays = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// WeekdayNames returns the weekday short names, Sunday first.
func WeekdayNames() []string {
	names := make([]string, len(weekdays))
	copy(names, weekdays[:])
	return names
}

// Weekday returns the short weekday name of t in local time.
func Weekday(t time.Time) string {
	return weekdays[t.In(time.Local).Weekday()]
}

// WeekdayIndex maps a short weekday name to its index (Sun=0).
func WeekdayIndex(name string) (int, bool) {
	for i, n := range weekdays {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// StartOfDay returns local midnight of the local calendar day containing t.
func StartOfDay(t time.Time) time.Time {
	local := t.In(time.Local)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
}

// AddDays moves a local midnight by n calendar days.
func AddDays(day time.Time, n int) time.Time {
	return StartOfDay(day).AddDate(0, 0, n)
}

// Format renders t as the local date key.
func Format(t time.Time) string {
	return t.In(time.Local).Format(Layout)
}

// Parse converts a YYYY-MM-DD key to local midnight of that day.
// Day values past the end of the month are normalized by time.Date
// (2025-02-30 becomes 2025-03-02).
func Parse(key string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(key), "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
		nums[i] = n
	}

	year, month, day := nums[0], nums[1], nums[2]
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), nil
}

// localLayouts are accepted without an offset and read as local time.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseTimestamp parses an ISO-8601 timestamp. RFC 3339 values keep their
// offset; offset-less date-times and bare date keys are read as local time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidTimestamp
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	if t, err := Parse(s); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// Timestamp renders t the way completion and creation stamps are stored.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
