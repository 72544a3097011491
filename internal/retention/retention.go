// Package retention drops completed and history records that have aged past
// the configured number of days.
package retention

import (
	"errors"
	"fmt"
	"time"

	"github.com/bryan-cox/choreledger/internal/datekey"
	"github.com/bryan-cox/choreledger/internal/model"
)

// ErrInvalidRetention is returned for a non-positive retention window.
var ErrInvalidRetention = errors.New("retention days must be a positive number")

// Policy is a retention window in calendar days.
type Policy struct {
	Days int
}

// FromSettings builds the policy the stored settings describe.
func FromSettings(s model.Settings) Policy {
	return Policy{Days: s.EffectiveRetentionDays()}
}

// NewPolicy validates days and returns a policy.
func NewPolicy(days int) (Policy, error) {
	if days <= 0 {
		return Policy{}, fmt.Errorf("%w: %d", ErrInvalidRetention, days)
	}
	return Policy{Days: days}, nil
}

// Cutoff is now moved back by the window, keeping the time of day. Records
// stamped strictly before the cutoff are dropped.
func (p Policy) Cutoff(now time.Time) time.Time {
	return now.AddDate(0, 0, -p.Days)
}

// Apply returns the items that survive the policy at now. See Filter.
func Apply[T any](p Policy, items []T, date func(T) string, eligible func(T) bool, now time.Time) []T {
	return Filter(items, date, eligible, p.Cutoff(now))
}

// Filter keeps an item when any of these hold:
//   - eligible is non-nil and returns false for it
//   - its date is empty or cannot be parsed
//   - its date is at or after cutoff
//
// Order is preserved and the input slice is not modified.
func Filter[T any](items []T, date func(T) string, eligible func(T) bool, cutoff time.Time) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item, date, eligible, cutoff) {
			out = append(out, item)
		}
	}
	return out
}

func keep[T any](item T, date func(T) string, eligible func(T) bool, cutoff time.Time) bool {
	if eligible != nil && !eligible(item) {
		return true
	}
	raw := date(item)
	if raw == "" {
		return true
	}
	stamp, err := datekey.ParseTimestamp(raw)
	if err != nil {
		return true
	}
	return !stamp.Before(cutoff)
}
