// Package schedule decides when tasks are due.
//
// Every rule works on local calendar days and fails closed: a task with a
// missing or malformed scheduling field is never due, never overdue and has
// no next occurrence.
package schedule

import (
	"sort"
	"time"

	"github.com/bryan-cox/choreledger/internal/datekey"
	"github.com/bryan-cox/choreledger/internal/model"
)

// IsDue reports whether the task's rule surfaces it on the local calendar day
// containing day. Completion state is not consulted.
func IsDue(t model.Task, day time.Time) bool {
	day = datekey.StartOfDay(day)

	switch t.Frequency {
	case model.FrequencyDaily:
		return true

	case model.FrequencyWeekly:
		name := datekey.Weekday(day)
		for _, d := range t.FrequencyDays {
			if d == name {
				return true
			}
		}
		return false

	case model.FrequencyMonthly:
		dom, ok := t.FrequencyDate.Int()
		if !ok {
			return false
		}
		// A day past the end of a short month never matches that month.
		return day.Day() == dom

	case model.FrequencyOneTime:
		due, err := datekey.Parse(t.DueDate)
		if err != nil {
			return false
		}
		// Due on the date and every day after it until completed.
		return !day.Before(due)

	default:
		return false
	}
}

// IsOverdue reports whether an incomplete one-time task's due date is before
// today. Recurring tasks are never overdue.
func IsOverdue(t model.Task, now time.Time) bool {
	if t.Frequency != model.FrequencyOneTime || t.Completed {
		return false
	}
	due, err := datekey.Parse(t.DueDate)
	if err != nil {
		return false
	}
	return due.Before(datekey.StartOfDay(now))
}

// NextDueDate returns the date key of the next occurrence strictly after
// today, or false when the task does not recur or its rule is unusable.
func NextDueDate(t model.Task, now time.Time) (string, bool) {
	next, ok := nextOccurrence(t, datekey.StartOfDay(now))
	if !ok {
		return "", false
	}
	return datekey.Format(next), true
}

func nextOccurrence(t model.Task, today time.Time) (time.Time, bool) {
	switch t.Frequency {
	case model.FrequencyDaily:
		return today.AddDate(0, 0, 1), true

	case model.FrequencyWeekly:
		indices := weekdayIndices(t.FrequencyDays)
		if len(indices) == 0 {
			return time.Time{}, false
		}
		cur := int(today.Weekday())
		for _, i := range indices {
			if i > cur {
				return today.AddDate(0, 0, i-cur), true
			}
		}
		return today.AddDate(0, 0, 7-cur+indices[0]), true

	case model.FrequencyMonthly:
		dom, ok := t.FrequencyDate.Int()
		if !ok {
			return time.Time{}, false
		}
		// time.Date normalizes overflow, so day 31 in a 30-day month lands
		// on the 1st of the following month. Kept as is, not clamped.
		candidate := time.Date(today.Year(), today.Month(), dom, 0, 0, 0, 0, time.Local)
		if !candidate.After(today) {
			candidate = candidate.AddDate(0, 1, 0)
		}
		return candidate, true

	default:
		return time.Time{}, false
	}
}

// weekdayIndices converts short names to sorted, de-duplicated indices.
// Unknown names are skipped.
func weekdayIndices(days []string) []int {
	seen := make(map[int]bool, len(days))
	var out []int
	for _, d := range days {
		i, ok := datekey.WeekdayIndex(d)
		if !ok || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
