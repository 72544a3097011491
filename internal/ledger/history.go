package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/bryan-cox/choreledger/internal/datekey"
	"github.com/bryan-cox/choreledger/internal/model"
	"github.com/bryan-cox/choreledger/internal/retention"
	"github.com/bryan-cox/choreledger/internal/store"
)

func (l *Ledger) loadHistory(ctx context.Context) ([]model.CookingEntry, error) {
	var history []model.CookingEntry
	if _, err := l.store.Load(ctx, store.KeyCookingHistory, &history); err != nil {
		return nil, fmt.Errorf("failed to load cooking history: %w", err)
	}
	return history, nil
}

// sweepHistory applies retention on the entry date and saves when entries
// were dropped or dirty is set.
func (l *Ledger) sweepHistory(ctx context.Context, history []model.CookingEntry, dirty bool) ([]model.CookingEntry, int, error) {
	settings, err := l.loadSettings(ctx)
	if err != nil {
		return nil, 0, err
	}

	kept := retention.Apply(retention.FromSettings(settings), history, model.EntryDate, nil, l.clock.Now())
	swept := len(history) - len(kept)
	if swept > 0 {
		l.logger.Info("cleaned up old cooking history", "count", swept, "retention_days", settings.EffectiveRetentionDays())
	}

	if dirty || swept > 0 {
		if err := l.store.Save(ctx, store.KeyCookingHistory, kept); err != nil {
			return nil, 0, fmt.Errorf("failed to save cooking history: %w", err)
		}
	}
	return kept, swept, nil
}

// History returns the cooking history, newest first, after retention.
func (l *Ledger) History(ctx context.Context) ([]model.CookingEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	history, err := l.loadHistory(ctx)
	if err != nil {
		return nil, err
	}
	kept, _, err := l.sweepHistory(ctx, history, false)
	return kept, err
}

// LogCooked records that a recipe was cooked now.
func (l *Ledger) LogCooked(ctx context.Context, recipeID, title string) (model.CookingEntry, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.CookingEntry{}, ErrRecipeTitleRequired
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	history, err := l.loadHistory(ctx)
	if err != nil {
		return model.CookingEntry{}, err
	}

	entry := model.CookingEntry{
		ID:          l.newID(),
		RecipeID:    strings.TrimSpace(recipeID),
		RecipeTitle: title,
		Date:        datekey.Timestamp(l.clock.Now()),
	}
	history = append([]model.CookingEntry{entry}, history...)

	if _, _, err := l.sweepHistory(ctx, history, true); err != nil {
		return model.CookingEntry{}, err
	}
	return entry, nil
}

// MaintenanceReport counts what one Maintain call changed.
type MaintenanceReport struct {
	Reset        int
	Swept        int
	HistorySwept int
}

// Maintain runs upkeep over every collection and saves what changed.
func (l *Ledger) Maintain(ctx context.Context) (MaintenanceReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tasks, err := l.loadTasks(ctx)
	if err != nil {
		return MaintenanceReport{}, err
	}
	_, res, err := l.commit(ctx, tasks, false)
	if err != nil {
		return MaintenanceReport{}, err
	}

	history, err := l.loadHistory(ctx)
	if err != nil {
		return MaintenanceReport{}, err
	}
	_, historySwept, err := l.sweepHistory(ctx, history, false)
	if err != nil {
		return MaintenanceReport{}, err
	}

	return MaintenanceReport{Reset: res.Reset, Swept: res.Swept, HistorySwept: historySwept}, nil
}
