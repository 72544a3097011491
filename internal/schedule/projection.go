package schedule

import (
	"time"

	"github.com/bryan-cox/choreledger/internal/model"
)

// ProjectionSuffix is appended to a task ID to form its projection ID.
const ProjectionSuffix = "-future"

// Projection is a read-only preview of a completed recurring task's next
// occurrence. It is never persisted.
type Projection struct {
	Task    model.Task
	DueDate string
}

// ID is the task ID with the projection suffix.
func (p Projection) ID() string { return p.Task.ID + ProjectionSuffix }

// Project builds projections for every completed recurring task that has a
// next occurrence. Input order is preserved.
func Project(tasks []model.Task, now time.Time) []Projection {
	var out []Projection
	for _, t := range tasks {
		if !t.Completed || !t.Frequency.Recurring() {
			continue
		}
		next, ok := NextDueDate(t, now)
		if !ok {
			continue
		}
		ghost := t
		ghost.Completed = false
		ghost.CompletedAt = nil
		ghost.DueDate = next
		out = append(out, Projection{Task: ghost, DueDate: next})
	}
	return out
}
