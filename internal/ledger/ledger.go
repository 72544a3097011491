// Package ledger owns the persisted task, settings and cooking-history
// collections. Every operation loads the collection, applies its change, runs
// the reset-then-sweep upkeep until it settles and saves once.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bryan-cox/choreledger/internal/datekey"
	"github.com/bryan-cox/choreledger/internal/model"
	"github.com/bryan-cox/choreledger/internal/retention"
	"github.com/bryan-cox/choreledger/internal/store"
	"github.com/bryan-cox/choreledger/internal/upkeep"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrDuplicateID  = errors.New("task id already exists")

	ErrRecipeTitleRequired = errors.New("recipe title is required")
)

// Ledger is the single writer of the persisted collections. It is safe for
// concurrent use; operations are serialized.
type Ledger struct {
	mu     sync.Mutex
	store  store.Store
	clock  datekey.Clock
	logger *slog.Logger
	newID  func() string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock replaces the system clock.
func WithClock(c datekey.Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// WithLogger replaces slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(l *Ledger) { l.newID = fn }
}

// New creates a Ledger backed by s.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:  s,
		clock:  datekey.SystemClock{},
		logger: slog.Default(),
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Now is the ledger clock's current instant.
func (l *Ledger) Now() time.Time { return l.clock.Now() }

func (l *Ledger) loadTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if _, err := l.store.Load(ctx, store.KeyTasks, &tasks); err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	return tasks, nil
}

func (l *Ledger) loadSettings(ctx context.Context) (model.Settings, error) {
	var s model.Settings
	ok, err := l.store.Load(ctx, store.KeySettings, &s)
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	if !ok {
		s = model.Settings{RetentionDays: model.DefaultRetentionDays}
	}
	return s, nil
}

// settle runs upkeep over tasks and logs what it changed.
func (l *Ledger) settle(tasks []model.Task, settings model.Settings) upkeep.Result {
	res := upkeep.Settle(tasks, settings, l.clock.Now())
	if res.Reset > 0 {
		l.logger.Info("reset recurring tasks", "count", res.Reset)
	}
	if res.Swept > 0 {
		l.logger.Info("cleaned up old tasks", "count", res.Swept, "retention_days", settings.EffectiveRetentionDays())
	}
	return res
}

// loadSettled loads tasks with upkeep already applied, so callers mutate the
// collection as it stands today and never a stale completion.
func (l *Ledger) loadSettled(ctx context.Context) ([]model.Task, error) {
	tasks, err := l.loadTasks(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := l.loadSettings(ctx)
	if err != nil {
		return nil, err
	}
	return l.settle(tasks, settings).Tasks, nil
}

// commit settles tasks and saves them when they changed. dirty marks a
// caller-side mutation that must be saved even if upkeep changed nothing.
func (l *Ledger) commit(ctx context.Context, tasks []model.Task, dirty bool) ([]model.Task, upkeep.Result, error) {
	settings, err := l.loadSettings(ctx)
	if err != nil {
		return nil, upkeep.Result{}, err
	}

	res := l.settle(tasks, settings)
	if dirty || res.Changed() {
		if res.Tasks == nil {
			res.Tasks = []model.Task{}
		}
		if err := l.store.Save(ctx, store.KeyTasks, res.Tasks); err != nil {
			return nil, upkeep.Result{}, fmt.Errorf("failed to save tasks: %w", err)
		}
	}
	return res.Tasks, res, nil
}

// Tasks returns the settled task collection.
func (l *Ledger) Tasks(ctx context.Context) ([]model.Task, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tasks, err := l.loadTasks(ctx)
	if err != nil {
		return nil, err
	}
	tasks, _, err = l.commit(ctx, tasks, false)
	return tasks, err
}

// Get returns one task by ID from the settled collection.
func (l *Ledger) Get(ctx context.Context, id string) (model.Task, error) {
	tasks, err := l.Tasks(ctx)
	if err != nil {
		return model.Task{}, err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return tasks[i], nil
}

// Add validates draft, assigns its ID and creation stamp and appends it as a
// pending task.
func (l *Ledger) Add(ctx context.Context, draft model.Task) (model.Task, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	task := l.prepareNew(draft)
	if err := task.Validate(); err != nil {
		return model.Task{}, err
	}

	tasks, err := l.loadSettled(ctx)
	if err != nil {
		return model.Task{}, err
	}
	if indexOf(tasks, task.ID) >= 0 {
		return model.Task{}, fmt.Errorf("%w: %s", ErrDuplicateID, task.ID)
	}

	tasks = append(tasks, task)
	if _, _, err := l.commit(ctx, tasks, true); err != nil {
		return model.Task{}, err
	}

	l.logger.Info("added task", "id", task.ID, "title", task.Title, "frequency", task.Frequency)
	return task, nil
}

// Import appends every task in drafts. Drafts keep a supplied ID and
// completion state; the whole batch is rejected if any draft is invalid.
func (l *Ledger) Import(ctx context.Context, drafts []model.Task) ([]model.Task, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tasks, err := l.loadSettled(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(tasks)+len(drafts))
	for _, t := range tasks {
		seen[t.ID] = true
	}

	added := make([]model.Task, 0, len(drafts))
	for i, d := range drafts {
		task := l.prepareImport(d)
		if err := task.Validate(); err != nil {
			return nil, fmt.Errorf("task %d (%q): %w", i+1, d.Title, err)
		}
		if seen[task.ID] {
			return nil, fmt.Errorf("task %d (%q): %w: %s", i+1, d.Title, ErrDuplicateID, task.ID)
		}
		seen[task.ID] = true
		added = append(added, task)
	}

	if _, _, err := l.commit(ctx, append(tasks, added...), true); err != nil {
		return nil, err
	}
	l.logger.Info("imported tasks", "count", len(added))
	return added, nil
}

// Toggle flips a task's completion, stamping or clearing completedAt.
func (l *Ledger) Toggle(ctx context.Context, id string) (model.Task, error) {
	return l.mutate(ctx, id, func(t *model.Task) error {
		t.Completed = !t.Completed
		if t.Completed {
			stamp := datekey.Timestamp(l.clock.Now())
			t.CompletedAt = &stamp
		} else {
			t.CompletedAt = nil
		}
		return nil
	})
}

// Update replaces the editable fields of the task with the same ID. The
// creation stamp and completion state are kept from the stored task.
func (l *Ledger) Update(ctx context.Context, edited model.Task) (model.Task, error) {
	return l.mutate(ctx, edited.ID, func(t *model.Task) error {
		next := edited
		next.Title = strings.TrimSpace(next.Title)
		next.CreatedAt = t.CreatedAt
		next.Completed = t.Completed
		next.CompletedAt = t.CompletedAt
		if err := next.Validate(); err != nil {
			return err
		}
		*t = next
		return nil
	})
}

// mutate applies fn to the task with id after upkeep has run on the loaded
// collection, then commits. The returned task is the post-upkeep version when
// it survived upkeep.
func (l *Ledger) mutate(ctx context.Context, id string, fn func(*model.Task) error) (model.Task, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tasks, err := l.loadSettled(ctx)
	if err != nil {
		return model.Task{}, err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	updated := make([]model.Task, len(tasks))
	copy(updated, tasks)
	if err := fn(&updated[i]); err != nil {
		return model.Task{}, err
	}
	result := updated[i]

	settled, _, err := l.commit(ctx, updated, true)
	if err != nil {
		return model.Task{}, err
	}
	if j := indexOf(settled, id); j >= 0 {
		result = settled[j]
	}
	return result, nil
}

// Delete removes the task with id.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tasks, err := l.loadSettled(ctx)
	if err != nil {
		return err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	kept := make([]model.Task, 0, len(tasks)-1)
	kept = append(kept, tasks[:i]...)
	kept = append(kept, tasks[i+1:]...)

	if _, _, err := l.commit(ctx, kept, true); err != nil {
		return err
	}
	l.logger.Info("deleted task", "id", id)
	return nil
}

func (l *Ledger) prepareNew(draft model.Task) model.Task {
	t := draft
	t.ID = l.newID()
	t.Title = strings.TrimSpace(t.Title)
	t.CreatedAt = datekey.Timestamp(l.clock.Now())
	t.Completed = false
	t.CompletedAt = nil
	return t
}

func (l *Ledger) prepareImport(draft model.Task) model.Task {
	t := draft
	t.Title = strings.TrimSpace(t.Title)
	if strings.TrimSpace(t.ID) == "" {
		t.ID = l.newID()
	}
	if t.CreatedAt == "" {
		t.CreatedAt = datekey.Timestamp(l.clock.Now())
	}
	if t.Completed && t.CompletedAt == nil {
		stamp := datekey.Timestamp(l.clock.Now())
		t.CompletedAt = &stamp
	}
	if !t.Completed {
		t.CompletedAt = nil
	}
	return t
}

func indexOf(tasks []model.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Settings returns the stored settings, defaulting retention to seven days.
func (l *Ledger) Settings(ctx context.Context) (model.Settings, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadSettings(ctx)
}

// SetRetentionDays stores a new retention window. The next load applies it.
func (l *Ledger) SetRetentionDays(ctx context.Context, days int) (model.Settings, error) {
	p, err := retention.NewPolicy(days)
	if err != nil {
		return model.Settings{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := l.loadSettings(ctx)
	if err != nil {
		return model.Settings{}, err
	}
	s.RetentionDays = p.Days
	if err := l.store.Save(ctx, store.KeySettings, s); err != nil {
		return model.Settings{}, fmt.Errorf("failed to save settings: %w", err)
	}
	l.logger.Info("updated retention", "retention_days", s.RetentionDays)
	return s, nil
}
