package model

import (
	"fmt"
	"strings"

	"github.com/bryan-cox/choreledger/internal/datekey"
)

// Validate checks the fields the add and edit flows require. Records already
// persisted are never validated; the scheduling rules fail closed on them.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTask)
	}

	switch t.Frequency {
	case FrequencyDaily:
	case FrequencyWeekly:
		if len(t.FrequencyDays) == 0 {
			return fmt.Errorf("%w: weekly task needs at least one day", ErrInvalidTask)
		}
		for _, d := range t.FrequencyDays {
			if _, ok := datekey.WeekdayIndex(d); !ok {
				return fmt.Errorf("%w: unknown weekday %q (use %s)", ErrInvalidTask, d, strings.Join(datekey.WeekdayNames(), ", "))
			}
		}
	case FrequencyMonthly:
		day, ok := t.FrequencyDate.Int()
		if !ok || day < 1 || day > 31 {
			return fmt.Errorf("%w: monthly task needs a day of month between 1 and 31", ErrInvalidTask)
		}
	case FrequencyOneTime:
		if _, err := datekey.Parse(t.DueDate); err != nil {
			return fmt.Errorf("%w: one-time task needs a due date: %w", ErrInvalidTask, err)
		}
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidTask, t.Frequency)
	}

	switch t.Priority {
	case "", PriorityLow, PriorityMedium, PriorityHigh:
	default:
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, t.Priority)
	}

	if t.EstimatedTime != "" {
		if _, ok := t.EstimatedTime.Int(); !ok {
			return fmt.Errorf("%w: estimated time must be whole minutes", ErrInvalidTask)
		}
	}

	if t.Completed != (t.CompletedAt != nil) {
		return fmt.Errorf("%w: completedAt must be set exactly when completed", ErrInvalidTask)
	}

	return nil
}
