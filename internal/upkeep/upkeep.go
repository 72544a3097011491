// Package upkeep runs the per-load maintenance of the task collection:
// recurring tasks completed on an earlier day go back to pending, then
// completed tasks past the retention window are dropped.
package upkeep

import (
	"time"

	"github.com/bryan-cox/choreledger/internal/datekey"
	"github.com/bryan-cox/choreledger/internal/model"
	"github.com/bryan-cox/choreledger/internal/retention"
)

// ResetRecurring un-completes every task other than a One-time task whose
// completion instant falls before local midnight today. Unknown frequencies
// count as recurring so retention never deletes them. It returns a new slice
// and the number of tasks reset. Tasks with an unparseable completion stamp
// are left alone.
func ResetRecurring(tasks []model.Task, now time.Time) ([]model.Task, int) {
	startOfToday := datekey.StartOfDay(now)

	out := make([]model.Task, len(tasks))
	reset := 0
	for i, t := range tasks {
		out[i] = t
		if !t.Completed || t.Frequency == model.FrequencyOneTime || t.CompletedAt == nil {
			continue
		}
		completedAt, err := datekey.ParseTimestamp(*t.CompletedAt)
		if err != nil {
			continue
		}
		if completedAt.Before(startOfToday) {
			out[i].Completed = false
			out[i].CompletedAt = nil
			reset++
		}
	}
	return out, reset
}

// Sweep drops completed tasks whose completedAt is older than the policy
// allows. Pending tasks are never swept.
func Sweep(tasks []model.Task, p retention.Policy, now time.Time) ([]model.Task, int) {
	kept := retention.Apply(p, tasks, model.CompletedAtValue, model.IsCompleted, now)
	return kept, len(tasks) - len(kept)
}

// Result is the outcome of one Cycle.
type Result struct {
	Tasks []model.Task
	Reset int
	Swept int
	// SweepDeferred is set when the reset changed the collection and the
	// sweep was left for the next cycle.
	SweepDeferred bool
}

// Changed reports whether the cycle altered the collection.
func (r Result) Changed() bool { return r.Reset > 0 || r.Swept > 0 }

// Cycle runs the reset pass and, only when it changed nothing, the retention
// sweep. It never modifies its input.
func Cycle(tasks []model.Task, settings model.Settings, now time.Time) Result {
	reset, n := ResetRecurring(tasks, now)
	if n > 0 {
		return Result{Tasks: reset, Reset: n, SweepDeferred: true}
	}

	kept, swept := Sweep(reset, retention.FromSettings(settings), now)
	return Result{Tasks: kept, Swept: swept}
}

// maxRounds bounds Settle. Reset is idempotent and sweeping never creates
// work for the reset pass, so two productive rounds is the real ceiling.
const maxRounds = 4

// Settle repeats Cycle until a round changes nothing and returns the
// accumulated counts with the final collection.
func Settle(tasks []model.Task, settings model.Settings, now time.Time) Result {
	total := Result{Tasks: tasks}
	for i := 0; i < maxRounds; i++ {
		r := Cycle(total.Tasks, settings, now)
		if !r.Changed() {
			break
		}
		total.Tasks = r.Tasks
		total.Reset += r.Reset
		total.Swept += r.Swept
	}
	return total
}
