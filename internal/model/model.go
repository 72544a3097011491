// Package model defines the core data structures for ChoreLedger.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Frequency selects the scheduling rule for a task.
type Frequency string

// Frequency values as persisted.
const (
	FrequencyDaily   Frequency = "Daily"
	FrequencyWeekly  Frequency = "Weekly"
	FrequencyMonthly Frequency = "Monthly"
	FrequencyOneTime Frequency = "One-time"
)

// Frequencies lists the known frequencies in display order.
var Frequencies = []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyOneTime}

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyOneTime:
		return true
	}
	return false
}

// Recurring is true for every known frequency other than One-time.
func (f Frequency) Recurring() bool {
	return f.Valid() && f != FrequencyOneTime
}

// Priority constants.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// DefaultRetentionDays applies when no retention setting is stored.
const DefaultRetentionDays = 7

// ErrInvalidTask is wrapped by every Task.Validate failure.
var ErrInvalidTask = errors.New("invalid task")

// NumericString holds a number that may have been persisted either as a JSON
// string or as a JSON number. It always marshals as a string.
type NumericString string

func (n *NumericString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumericString(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*n = NumericString(num.String())
	return nil
}

// Int parses the value as an integer.
func (n NumericString) Int() (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(string(n)))
	if err != nil {
		return 0, false
	}
	return v, true
}

// Task represents a single chore or to-do.
type Task struct {
	ID            string        `json:"id" yaml:"id"`
	Title         string        `json:"title" yaml:"title"`
	Category      string        `json:"category,omitempty" yaml:"category"`
	SubCategory   string        `json:"subCategory,omitempty" yaml:"sub_category"`
	Frequency     Frequency     `json:"frequency" yaml:"frequency"`
	FrequencyDays []string      `json:"frequencyDays,omitempty" yaml:"frequency_days"`
	FrequencyDate NumericString `json:"frequencyDate,omitempty" yaml:"frequency_date"`
	DueDate       string        `json:"dueDate,omitempty" yaml:"due_date"`
	Priority      string        `json:"priority,omitempty" yaml:"priority"`
	EstimatedTime NumericString `json:"estimatedTime,omitempty" yaml:"estimated_time"`
	Completed     bool          `json:"completed" yaml:"completed"`
	CompletedAt   *string       `json:"completedAt" yaml:"completed_at"`
	CreatedAt     string        `json:"createdAt,omitempty" yaml:"created_at"`
}

// IsCompleted is the retention eligibility predicate for tasks: only
// completed tasks age out.
func IsCompleted(t Task) bool { return t.Completed }

// CompletedAtValue returns the completion stamp or "" when unset.
func CompletedAtValue(t Task) string {
	if t.CompletedAt == nil {
		return ""
	}
	return *t.CompletedAt
}

// Settings is the persisted settings record.
type Settings struct {
	RetentionDays int `json:"retentionDays"`
}

// EffectiveRetentionDays returns the stored value, or the default when the
// stored value is missing or zero.
func (s Settings) EffectiveRetentionDays() int {
	if s.RetentionDays <= 0 {
		return DefaultRetentionDays
	}
	return s.RetentionDays
}

// CookingEntry records one time a recipe was cooked.
type CookingEntry struct {
	ID          string `json:"id"`
	RecipeID    string `json:"recipeId"`
	RecipeTitle string `json:"recipeTitle"`
	Date        string `json:"date"`
}

// EntryDate returns the date field swept by retention.
func EntryDate(e CookingEntry) string { return e.Date }

// TaskFile is the YAML seed file accepted by the import command.
type TaskFile struct {
	Tasks []Task `yaml:"tasks"`
}

// AgendaEntry is one line of the agenda: a stored task, or a projection of a
// completed recurring task's next occurrence.
type AgendaEntry struct {
	Task       Task
	DueDate    string // date key shown for the entry; "" when there is none
	Overdue    bool
	Projection bool
}

// Agenda holds tasks organized by their report section.
type Agenda struct {
	Date      string // date key the agenda was built for
	Due       []AgendaEntry
	Upcoming  []AgendaEntry
	Completed []AgendaEntry
}
