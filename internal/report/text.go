package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/bryan-cox/choreledger/internal/datekey"
	"github.com/bryan-cox/choreledger/internal/model"
)

// Section headers for text output.
const (
	TextHeaderDue       = "\nTasks for Today"
	TextHeaderUpcoming  = "\nUpcoming"
	TextHeaderCompleted = "\nCompleted"
)

// PrintAgenda prints every non-empty agenda section to the writer.
func PrintAgenda(out io.Writer, agenda model.Agenda) {
	fmt.Fprintf(out, "Agenda for %s\n", agenda.Date)

	if len(agenda.Due)+len(agenda.Upcoming)+len(agenda.Completed) == 0 {
		fmt.Fprintln(out, "\nNo tasks match your filters.")
		return
	}

	PrintDue(out, agenda.Due)
	PrintUpcoming(out, agenda.Upcoming)
	PrintCompleted(out, agenda.Completed)
}

// PrintDue prints the tasks due today.
func PrintDue(out io.Writer, entries []model.AgendaEntry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintln(out, TextHeaderDue)
	for _, e := range entries {
		line := e.Task.Title
		if e.Overdue {
			line += " [OVERDUE since " + e.DueDate + "]"
		}
		fmt.Fprintf(out, "    • %s%s\n", line, tags(e.Task))
		printSchedule(out, e.Task)
	}
}

// PrintUpcoming prints pending tasks not due today and projections.
func PrintUpcoming(out io.Writer, entries []model.AgendaEntry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintln(out, TextHeaderUpcoming)
	for _, e := range entries {
		when := e.DueDate
		if when == "" {
			when = "unscheduled"
		}
		line := fmt.Sprintf("%s  %s", when, e.Task.Title)
		if e.Projection {
			line += " (next)"
		}
		fmt.Fprintf(out, "    • %s%s\n", line, tags(e.Task))
	}
}

// PrintCompleted prints completed tasks with their completion time.
func PrintCompleted(out io.Writer, entries []model.AgendaEntry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintln(out, TextHeaderCompleted)
	for _, e := range entries {
		fmt.Fprintf(out, "    • %s%s\n", e.Task.Title, tags(e.Task))
		if at := model.CompletedAtValue(e.Task); at != "" {
			fmt.Fprintf(out, "        ◦ Done: %s\n", formatStamp(at))
		}
	}
}

// PrintTasks prints one block per task with its ID, as the list command shows.
func PrintTasks(out io.Writer, tasks []model.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks.")
		return
	}
	for _, t := range tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(out, "[%s] %s  %s%s\n", mark, t.ID, t.Title, tags(t))
		printSchedule(out, t)
	}
}

// PrintHistory prints cooking history entries, newest first.
func PrintHistory(out io.Writer, history []model.CookingEntry) {
	if len(history) == 0 {
		fmt.Fprintln(out, "No cooking history yet.")
		return
	}
	for _, e := range history {
		fmt.Fprintf(out, "    • %s  %s\n", formatStamp(e.Date), e.RecipeTitle)
	}
}

func printSchedule(out io.Writer, t model.Task) {
	switch t.Frequency {
	case model.FrequencyWeekly:
		fmt.Fprintf(out, "        ◦ Weekly: %s\n", strings.Join(t.FrequencyDays, ", "))
	case model.FrequencyMonthly:
		fmt.Fprintf(out, "        ◦ Monthly on day %s\n", t.FrequencyDate)
	case model.FrequencyOneTime:
		fmt.Fprintf(out, "        ◦ Due: %s\n", t.DueDate)
	case model.FrequencyDaily:
		fmt.Fprintln(out, "        ◦ Daily")
	default:
		fmt.Fprintf(out, "        ◦ Unscheduled (%q)\n", t.Frequency)
	}
}

// tags renders category, priority and estimate as a bracketed suffix.
func tags(t model.Task) string {
	var parts []string
	if t.Category != "" {
		c := t.Category
		if t.SubCategory != "" {
			c += "/" + t.SubCategory
		}
		parts = append(parts, c)
	}
	if t.Priority != "" {
		parts = append(parts, t.Priority)
	}
	if t.EstimatedTime != "" {
		parts = append(parts, string(t.EstimatedTime)+"m")
	}
	if len(parts) == 0 {
		return ""
	}
	return " [" + strings.Join(parts, ", ") + "]"
}

// formatStamp shows a timestamp as local "YYYY-MM-DD at HH:MM".
func formatStamp(s string) string {
	t, err := datekey.ParseTimestamp(s)
	if err != nil {
		return s
	}
	local := t.Local()
	return fmt.Sprintf("%s at %s", datekey.Format(local), local.Format("15:04"))
}
