package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bryan-cox/choreledger/internal/clipboard"
	"github.com/bryan-cox/choreledger/internal/ledger"
	"github.com/bryan-cox/choreledger/internal/model"
	"github.com/bryan-cox/choreledger/internal/report"
	"github.com/bryan-cox/choreledger/internal/schedule"
)

// taskFlags are shared by add and edit.
type taskFlags struct {
	title         string
	category      string
	subCategory   string
	frequency     string
	days          string
	dayOfMonth    string
	dueDate       string
	priority      string
	estimatedTime string
}

var (
	addFlags  taskFlags
	editFlags taskFlags

	agendaCategory string
	agendaPriority string
	agendaCopy     bool

	addCmd = &cobra.Command{
		Use:   "add [title]",
		Short: "Add a task.",
		Long: `Adds a task. The frequency decides which scheduling flag is required:
Weekly needs --days, Monthly needs --day-of-month and One-time needs --due.`,
		Args: cobra.ArbitraryArgs,
		RunE: runAddCommand,
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List every task with its ID.",
		Args:  cobra.NoArgs,
		RunE:  runListCommand,
	}

	toggleCmd = &cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark a task done, or pending again if it is done.",
		Args:  cobra.ExactArgs(1),
		RunE:  runToggleCommand,
	}

	editCmd = &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task. Only the flags given are changed.",
		Args:  cobra.ExactArgs(1),
		RunE:  runEditCommand,
	}

	deleteCmd = &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task.",
		Args:  cobra.ExactArgs(1),
		RunE:  runDeleteCommand,
	}

	agendaCmd = &cobra.Command{
		Use:   "agenda",
		Short: "Show tasks due today, upcoming tasks and completed tasks.",
		Args:  cobra.NoArgs,
		RunE:  runAgendaCommand,
	}

	nextCmd = &cobra.Command{
		Use:   "next <id>",
		Short: "Show when a recurring task comes up next.",
		Args:  cobra.ExactArgs(1),
		RunE:  runNextCommand,
	}

	importCmd = &cobra.Command{
		Use:   "import <file.yml>",
		Short: "Import tasks from a YAML file.",
		Long:  `Imports every entry under the top-level "tasks" key of a YAML file. The import is all or nothing.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCommand,
	}
)

func init() {
	registerTaskFlags(addCmd, &addFlags)
	registerTaskFlags(editCmd, &editFlags)
	addCmd.Flags().Lookup("frequency").DefValue = string(model.FrequencyDaily)
	addFlags.frequency = string(model.FrequencyDaily)
	addCmd.Flags().Lookup("priority").DefValue = model.PriorityMedium
	addFlags.priority = model.PriorityMedium

	agendaCmd.Flags().StringVar(&agendaCategory, "category", "All", "Only show tasks in this category.")
	agendaCmd.Flags().StringVar(&agendaPriority, "priority", "All", "Only show tasks with this priority.")
	agendaCmd.Flags().BoolVar(&agendaCopy, "copy", false, "Also copy the agenda to the clipboard.")

	rootCmd.AddCommand(addCmd, listCmd, toggleCmd, editCmd, deleteCmd, agendaCmd, nextCmd, importCmd)
}

func registerTaskFlags(cmd *cobra.Command, f *taskFlags) {
	cmd.Flags().StringVar(&f.title, "title", "", "Task title.")
	cmd.Flags().StringVar(&f.category, "category", "", "Category, e.g. Kitchen.")
	cmd.Flags().StringVar(&f.subCategory, "sub-category", "", "Sub-category.")
	cmd.Flags().StringVar(&f.frequency, "frequency", "", "Daily, Weekly, Monthly or One-time.")
	cmd.Flags().StringVar(&f.days, "days", "", "Weekly days, comma separated (Sun,Mon,...).")
	cmd.Flags().StringVar(&f.dayOfMonth, "day-of-month", "", "Monthly day of month (1-31).")
	cmd.Flags().StringVar(&f.dueDate, "due", "", "One-time due date (YYYY-MM-DD).")
	cmd.Flags().StringVar(&f.priority, "priority", "", "low, medium or high.")
	cmd.Flags().StringVar(&f.estimatedTime, "estimate", "", "Estimated minutes.")
}

// apply copies the flags the user set onto t. With onlyChanged unset every
// flag is applied.
func (f *taskFlags) apply(cmd *cobra.Command, t *model.Task, onlyChanged bool) {
	set := func(name string) bool { return !onlyChanged || cmd.Flags().Changed(name) }

	if set("title") {
		t.Title = f.title
	}
	if set("category") {
		t.Category = f.category
	}
	if set("sub-category") {
		t.SubCategory = f.subCategory
	}
	if set("frequency") {
		t.Frequency = normalizeFrequency(f.frequency)
	}
	if set("days") {
		t.FrequencyDays = splitDays(f.days)
	}
	if set("day-of-month") {
		t.FrequencyDate = model.NumericString(f.dayOfMonth)
	}
	if set("due") {
		t.DueDate = f.dueDate
	}
	if set("priority") {
		t.Priority = strings.ToLower(f.priority)
	}
	if set("estimate") {
		t.EstimatedTime = model.NumericString(f.estimatedTime)
	}
}

// normalizeFrequency accepts any casing and "onetime"/"once" for One-time.
func normalizeFrequency(s string) model.Frequency {
	key := strings.ToLower(strings.TrimSpace(s))
	switch key {
	case "onetime", "once":
		return model.FrequencyOneTime
	}
	for _, f := range model.Frequencies {
		if strings.ToLower(string(f)) == key {
			return f
		}
	}
	return model.Frequency(s)
}

// splitDays turns "mon, wed" into ["Mon", "Wed"].
func splitDays(s string) []string {
	var days []string
	for _, d := range strings.Split(s, ",") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		days = append(days, strings.ToUpper(d[:1])+strings.ToLower(d[1:]))
	}
	return days
}

// --- Command Execution Logic ---

func runAddCommand(cmd *cobra.Command, args []string) error {
	var draft model.Task
	addFlags.apply(cmd, &draft, false)
	if draft.Title == "" {
		draft.Title = strings.Join(args, " ")
	}

	return withLedger(cmd, func(ctx context.Context, l *ledger.Ledger) error {
		task, err := l.Add(ctx, draft)
		if err != nil {
			return fmt.Errorf("failed to add task: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added task %s: %s\n", task.ID, task.Title)
		return nil
	})
}

func runListCommand(cmd *cobra.Command, args []string) error {
	return withLedger(cmd, func(ctx context.Context, l *ledger.Ledger) error {
		tasks, err := l.Tasks(ctx)
		if err != nil {
			return err
		}
		report.PrintTasks(cmd.OutOrStdout(), tasks)
		return nil
	})
}

func runToggleCommand(cmd *cobra.Command, args []string) error {
	return withLedger(cmd, func(ctx context.Context, l *ledger.Ledger) error {
		task, err := l.Toggle(ctx, args[0])
		if err != nil {
			return err
		}
		if task.Completed {
			fmt.Fprintf(cmd.OutOrStdout(), "Completed: %s\n", task.Title)
			if next, ok := schedule.NextDueDate(task, l.Now()); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Next due: %s\n", next)
			}
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Reopened: %s\n", task.Title)
		}
		return nil
	})
}

func runEditCommand(cmd *cobra.Command, args []string) error {
	return withLedger(cmd, func(ctx context.Context, l *ledger.Ledger) error {
		task, err := l.Get(ctx, args[0])
		if err != nil {
			return err
		}
		editFlags.apply(cmd, &task, true)

		updated, err := l.Update(ctx, task)
		if err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s: %s\n", updated.ID, updated.Title)
		return nil
	})
}

func runDeleteCommand(cmd *cobra.Command, args []string) error {
	return withLedger(cmd, func(ctx context.Context, l *ledger.Ledger) error {
		if err := l.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", args[0])
		return nil
	})
}

func runAgendaCommand(cmd *cobra.Command, args []string) error {
	return withLedger(cmd, func(ctx context.Context, l *ledger.Ledger) error {
		tasks, err := l.Tasks(ctx)
		if err != nil {
			return err
		}

		agenda := report.BuildAgenda(tasks, report.Filter{Category: agendaCategory, Priority: agendaPriority}, l.Now())

		var text strings.Builder
		report.PrintAgenda(&text, agenda)
		fmt.Fprint(cmd.OutOrStdout(), text.String())

		if agendaCopy {
			if err := clipboard.CopyText(text.String()); err != nil {
				return fmt.Errorf("failed to copy agenda: %w", err)
			}
			cmd.PrintErrln("Agenda copied to clipboard.")
		}
		return nil
	})
}

func runNextCommand(cmd *cobra.Command, args []string) error {
	return withLedger(cmd, func(ctx context.Context, l *ledger.Ledger) error {
		task, err := l.Get(ctx, args[0])
		if err != nil {
			return err
		}
		next, ok := schedule.NextDueDate(task, l.Now())
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s has no next occurrence\n", task.Title)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is next due %s\n", task.Title, next)
		return nil
	})
}

func runImportCommand(cmd *cobra.Command, args []string) error {
	file, err := loadTaskFile(args[0])
	if err != nil {
		return err
	}

	return withLedger(cmd, func(ctx context.Context, l *ledger.Ledger) error {
		added, err := l.Import(ctx, file.Tasks)
		if err != nil {
			return fmt.Errorf("failed to import '%s': %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d task(s)\n", len(added))
		return nil
	})
}

func loadTaskFile(path string) (model.TaskFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.TaskFile{}, fmt.Errorf("could not read file '%s': %w", path, err)
	}

	var file model.TaskFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return model.TaskFile{}, fmt.Errorf("could not parse YAML from '%s': %w", path, err)
	}
	for i := range file.Tasks {
		file.Tasks[i].Frequency = normalizeFrequency(string(file.Tasks[i].Frequency))
	}
	return file, nil
}
