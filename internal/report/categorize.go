// Package report builds and prints the daily agenda.
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/bryan-cox/choreledger/internal/datekey"
	"github.com/bryan-cox/choreledger/internal/model"
	"github.com/bryan-cox/choreledger/internal/schedule"
)

// filterAll matches every value.
const filterAll = "All"

// Filter narrows the agenda. Empty or "All" fields match everything.
type Filter struct {
	Category string
	Priority string
}

// Matches reports whether t passes the filter.
func (f Filter) Matches(t model.Task) bool {
	return matchField(f.Category, t.Category) && matchField(f.Priority, t.Priority)
}

func matchField(want, got string) bool {
	if want == "" || strings.EqualFold(want, filterAll) {
		return true
	}
	return strings.EqualFold(want, got)
}

// BuildAgenda groups tasks into today's due list, the upcoming list and the
// completed list.
//
// Pending tasks due today go to Due. Pending tasks not due today go to
// Upcoming with their next date, alongside projections of completed recurring
// tasks. Upcoming is sorted by date with undated entries last.
func BuildAgenda(tasks []model.Task, f Filter, now time.Time) model.Agenda {
	agenda := model.Agenda{Date: datekey.Format(now)}

	for _, t := range tasks {
		if !f.Matches(t) {
			continue
		}

		if t.Completed {
			agenda.Completed = append(agenda.Completed, model.AgendaEntry{Task: t, DueDate: t.DueDate})
			continue
		}

		if schedule.IsDue(t, now) {
			agenda.Due = append(agenda.Due, model.AgendaEntry{
				Task:    t,
				DueDate: t.DueDate,
				Overdue: schedule.IsOverdue(t, now),
			})
			continue
		}

		agenda.Upcoming = append(agenda.Upcoming, model.AgendaEntry{Task: t, DueDate: upcomingDate(t, now)})
	}

	for _, p := range schedule.Project(tasks, now) {
		if !f.Matches(p.Task) {
			continue
		}
		ghost := p.Task
		ghost.ID = p.ID()
		agenda.Upcoming = append(agenda.Upcoming, model.AgendaEntry{Task: ghost, DueDate: p.DueDate, Projection: true})
	}

	sort.SliceStable(agenda.Upcoming, func(i, j int) bool {
		a, b := agenda.Upcoming[i].DueDate, agenda.Upcoming[j].DueDate
		if a == "" || b == "" {
			return a != "" && b == ""
		}
		return a < b
	})

	return agenda
}

// upcomingDate is the date a pending task that is not due today will next
// come up: its due date for one-time tasks, its next occurrence otherwise.
func upcomingDate(t model.Task, now time.Time) string {
	if t.Frequency == model.FrequencyOneTime {
		due, err := datekey.Parse(t.DueDate)
		if err != nil {
			return ""
		}
		return datekey.Format(due)
	}
	next, ok := schedule.NextDueDate(t, now)
	if !ok {
		return ""
	}
	return next
}
