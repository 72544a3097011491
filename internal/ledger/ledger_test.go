package ledger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryan-cox/choreledger/internal/datekey"
	"github.com/bryan-cox/choreledger/internal/model"
	"github.com/bryan-cox/choreledger/internal/store"
)

// Monday 2025-06-09 10:00 local.
var monday = time.Date(2025, 6, 9, 10, 0, 0, 0, time.Local)

func newTestLedger(t *testing.T) (*Ledger, *store.MemoryStore, *datekey.FixedClock) {
	t.Helper()
	s := store.NewMemoryStore()
	clock := datekey.NewFixedClock(monday)
	n := 0
	l := New(s,
		WithClock(clock),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("task-%d", n)
		}),
	)
	return l, s, clock
}

func storedTasks(t *testing.T, s store.Store) []model.Task {
	t.Helper()
	var tasks []model.Task
	_, err := s.Load(context.Background(), store.KeyTasks, &tasks)
	require.NoError(t, err)
	return tasks
}

func TestLedger_AddAssignsIdentity(t *testing.T) {
	l, s, _ := newTestLedger(t)
	ctx := context.Background()

	stamp := "2020-01-01T00:00:00.000Z"
	got, err := l.Add(ctx, model.Task{
		ID:            "ignored",
		Title:         "  Take out trash  ",
		Frequency:     model.FrequencyWeekly,
		FrequencyDays: []string{"Mon"},
		Completed:     true,
		CompletedAt:   &stamp,
	})
	require.NoError(t, err)

	assert.Equal(t, "task-1", got.ID)
	assert.Equal(t, "Take out trash", got.Title)
	assert.Equal(t, datekey.Timestamp(monday), got.CreatedAt)
	assert.False(t, got.Completed)
	assert.Nil(t, got.CompletedAt)

	if diff := cmp.Diff([]model.Task{got}, storedTasks(t, s)); diff != "" {
		t.Fatalf("stored tasks mismatch (-want +got):\n%s", diff)
	}
}

func TestLedger_AddRejectsInvalid(t *testing.T) {
	l, s, _ := newTestLedger(t)

	_, err := l.Add(context.Background(), model.Task{Title: "Trash", Frequency: model.FrequencyWeekly})
	assert.ErrorIs(t, err, model.ErrInvalidTask)
	assert.Empty(t, storedTasks(t, s))
}

func TestLedger_ToggleStampsAndClears(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()

	task, err := l.Add(ctx, model.Task{Title: "Dishes", Frequency: model.FrequencyDaily})
	require.NoError(t, err)

	done, err := l.Toggle(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, datekey.Timestamp(monday), *done.CompletedAt)

	undone, err := l.Toggle(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, undone.Completed)
	assert.Nil(t, undone.CompletedAt)

	_, err = l.Toggle(ctx, "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestLedger_RecurringTaskReopensNextDay(t *testing.T) {
	l, s, clock := newTestLedger(t)
	ctx := context.Background()

	task, err := l.Add(ctx, model.Task{Title: "Trash", Frequency: model.FrequencyWeekly, FrequencyDays: []string{"Mon"}})
	require.NoError(t, err)
	_, err = l.Toggle(ctx, task.ID)
	require.NoError(t, err)

	tasks, err := l.Tasks(ctx)
	require.NoError(t, err)
	assert.True(t, tasks[0].Completed, "still done on the day it was completed")

	clock.AdvanceDays(1)
	tasks, err = l.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.False(t, tasks[0].Completed)
	assert.Nil(t, tasks[0].CompletedAt)

	assert.False(t, storedTasks(t, s)[0].Completed, "reset is persisted")
}

func TestLedger_ToggleNextDayWithoutReload(t *testing.T) {
	l, s, clock := newTestLedger(t)
	ctx := context.Background()

	task, err := l.Add(ctx, model.Task{Title: "Dishes", Frequency: model.FrequencyDaily})
	require.NoError(t, err)
	_, err = l.Toggle(ctx, task.ID)
	require.NoError(t, err)

	// Nothing loads the collection between Monday's and Tuesday's toggle.
	clock.AdvanceDays(1)
	got, err := l.Toggle(ctx, task.ID)
	require.NoError(t, err)

	assert.True(t, got.Completed, "tuesday's toggle completes the reopened task")
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, datekey.Timestamp(monday.AddDate(0, 0, 1)), *got.CompletedAt)

	stored := storedTasks(t, s)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Completed)
}

func TestLedger_UpdateNextDayKeepsResetState(t *testing.T) {
	l, _, clock := newTestLedger(t)
	ctx := context.Background()

	task, err := l.Add(ctx, model.Task{Title: "Dishes", Frequency: model.FrequencyDaily})
	require.NoError(t, err)
	_, err = l.Toggle(ctx, task.ID)
	require.NoError(t, err)

	clock.AdvanceDays(1)
	edited := task
	edited.Title = "Wash dishes"
	got, err := l.Update(ctx, edited)
	require.NoError(t, err)

	assert.Equal(t, "Wash dishes", got.Title)
	assert.False(t, got.Completed)
	assert.Nil(t, got.CompletedAt)
}

func TestLedger_OldRecurringTaskIsResetNotDeleted(t *testing.T) {
	l, s, clock := newTestLedger(t)
	ctx := context.Background()

	task, err := l.Add(ctx, model.Task{Title: "Water plants", Frequency: model.FrequencyDaily})
	require.NoError(t, err)
	_, err = l.Toggle(ctx, task.ID)
	require.NoError(t, err)

	// Far past the retention window.
	clock.AdvanceDays(30)

	tasks, err := l.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.False(t, tasks[0].Completed)
	assert.Len(t, storedTasks(t, s), 1)
}

func TestLedger_CompletedOneTimeTaskAgesOut(t *testing.T) {
	l, s, clock := newTestLedger(t)
	ctx := context.Background()

	pending, err := l.Add(ctx, model.Task{Title: "Call plumber", Frequency: model.FrequencyOneTime, DueDate: "2025-06-01"})
	require.NoError(t, err)
	done, err := l.Add(ctx, model.Task{Title: "Renew passport", Frequency: model.FrequencyOneTime, DueDate: "2025-06-05"})
	require.NoError(t, err)
	_, err = l.Toggle(ctx, done.ID)
	require.NoError(t, err)

	clock.AdvanceDays(10)

	tasks, err := l.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, pending.ID, tasks[0].ID)
	assert.Len(t, storedTasks(t, s), 1)
}

func TestLedger_RetentionSettingIsHonored(t *testing.T) {
	l, _, clock := newTestLedger(t)
	ctx := context.Background()

	task, err := l.Add(ctx, model.Task{Title: "Fix gate", Frequency: model.FrequencyOneTime, DueDate: "2025-06-09"})
	require.NoError(t, err)
	_, err = l.Toggle(ctx, task.ID)
	require.NoError(t, err)

	_, err = l.SetRetentionDays(ctx, 14)
	require.NoError(t, err)

	clock.AdvanceDays(10)
	tasks, err := l.Tasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1, "kept inside a 14 day window")

	_, err = l.SetRetentionDays(ctx, 3)
	require.NoError(t, err)
	tasks, err = l.Tasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestLedger_SettingsDefault(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()

	s, err := l.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, s.RetentionDays)

	_, err = l.SetRetentionDays(ctx, 0)
	assert.Error(t, err)
}

func TestLedger_UpdateKeepsIdentityAndCompletion(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()

	task, err := l.Add(ctx, model.Task{Title: "Vacuum", Frequency: model.FrequencyDaily, Priority: model.PriorityLow})
	require.NoError(t, err)
	_, err = l.Toggle(ctx, task.ID)
	require.NoError(t, err)

	edited := model.Task{
		ID:            task.ID,
		Title:         "Vacuum upstairs",
		Frequency:     model.FrequencyWeekly,
		FrequencyDays: []string{"Sat"},
		Priority:      model.PriorityHigh,
		CreatedAt:     "1999-01-01T00:00:00.000Z",
	}
	got, err := l.Update(ctx, edited)
	require.NoError(t, err)

	assert.Equal(t, "Vacuum upstairs", got.Title)
	assert.Equal(t, model.FrequencyWeekly, got.Frequency)
	assert.Equal(t, task.CreatedAt, got.CreatedAt)
	assert.True(t, got.Completed)
	assert.NotNil(t, got.CompletedAt)

	_, err = l.Update(ctx, model.Task{ID: task.ID, Title: "", Frequency: model.FrequencyDaily})
	assert.ErrorIs(t, err, model.ErrInvalidTask)

	_, err = l.Update(ctx, model.Task{ID: "missing", Title: "x", Frequency: model.FrequencyDaily})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestLedger_Delete(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()

	a, err := l.Add(ctx, model.Task{Title: "A", Frequency: model.FrequencyDaily})
	require.NoError(t, err)
	b, err := l.Add(ctx, model.Task{Title: "B", Frequency: model.FrequencyDaily})
	require.NoError(t, err)

	require.NoError(t, l.Delete(ctx, a.ID))
	tasks, err := l.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, b.ID, tasks[0].ID)

	assert.ErrorIs(t, l.Delete(ctx, a.ID), ErrTaskNotFound)
}

func TestLedger_Import(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()

	added, err := l.Import(ctx, []model.Task{
		{ID: "rent", Title: "Pay rent", Frequency: model.FrequencyMonthly, FrequencyDate: "1"},
		{Title: "Dishes", Frequency: model.FrequencyDaily, Completed: true},
	})
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, "rent", added[0].ID)
	assert.Equal(t, "task-1", added[1].ID)
	require.NotNil(t, added[1].CompletedAt)

	_, err = l.Import(ctx, []model.Task{{ID: "rent", Title: "Again", Frequency: model.FrequencyDaily}})
	assert.ErrorIs(t, err, ErrDuplicateID)

	_, err = l.Import(ctx, []model.Task{{Title: "Broken", Frequency: model.FrequencyMonthly}})
	assert.ErrorIs(t, err, model.ErrInvalidTask)

	tasks, err := l.Tasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 2, "failed imports add nothing")
}

func TestLedger_HistoryRetention(t *testing.T) {
	l, _, clock := newTestLedger(t)
	ctx := context.Background()

	_, err := l.LogCooked(ctx, "r1", "Dal")
	require.NoError(t, err)
	clock.AdvanceDays(5)
	_, err = l.LogCooked(ctx, "r2", "Pasta")
	require.NoError(t, err)

	history, err := l.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Pasta", history[0].RecipeTitle, "newest first")

	clock.AdvanceDays(4)
	history, err = l.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Pasta", history[0].RecipeTitle)

	_, err = l.LogCooked(ctx, "r3", "   ")
	assert.ErrorIs(t, err, ErrRecipeTitleRequired)
}

func TestLedger_Maintain(t *testing.T) {
	l, _, clock := newTestLedger(t)
	ctx := context.Background()

	daily, err := l.Add(ctx, model.Task{Title: "Dishes", Frequency: model.FrequencyDaily})
	require.NoError(t, err)
	once, err := l.Add(ctx, model.Task{Title: "Dentist", Frequency: model.FrequencyOneTime, DueDate: "2025-06-09"})
	require.NoError(t, err)
	for _, id := range []string{daily.ID, once.ID} {
		_, err = l.Toggle(ctx, id)
		require.NoError(t, err)
	}
	_, err = l.LogCooked(ctx, "r1", "Soup")
	require.NoError(t, err)

	clock.AdvanceDays(9)
	report, err := l.Maintain(ctx)
	require.NoError(t, err)
	assert.Equal(t, MaintenanceReport{Reset: 1, Swept: 1, HistorySwept: 1}, report)

	report, err = l.Maintain(ctx)
	require.NoError(t, err)
	assert.Equal(t, MaintenanceReport{}, report)
}
