package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryan-cox/choreledger/internal/model"
)

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		BackendFile: func(t *testing.T) Store {
			s, err := NewFileStore(t.TempDir())
			require.NoError(t, err)
			return s
		},
		BackendSQLite: func(t *testing.T) Store {
			s, err := NewSQLiteStore(t.TempDir())
			require.NoError(t, err)
			return s
		},
		BackendMemory: func(t *testing.T) Store {
			return NewMemoryStore()
		},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	stamp := "2025-06-01T10:00:00.000Z"

	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { s.Close() })

			var missing []model.Task
			ok, err := s.Load(ctx, KeyTasks, &missing)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, missing)

			tasks := []model.Task{
				{ID: "a", Title: "Dishes", Frequency: model.FrequencyDaily, Completed: true, CompletedAt: &stamp},
				{ID: "b", Title: "Trash", Frequency: model.FrequencyWeekly, FrequencyDays: []string{"Mon"}},
			}
			require.NoError(t, s.Save(ctx, KeyTasks, tasks))

			var got []model.Task
			ok, err = s.Load(ctx, KeyTasks, &got)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tasks, got)

			// Overwrite: last writer wins.
			require.NoError(t, s.Save(ctx, KeyTasks, tasks[:1]))
			got = nil
			_, err = s.Load(ctx, KeyTasks, &got)
			require.NoError(t, err)
			assert.Len(t, got, 1)

			require.NoError(t, s.Save(ctx, KeySettings, model.Settings{RetentionDays: 3}))
			var settings model.Settings
			ok, err = s.Load(ctx, KeySettings, &settings)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, 3, settings.RetentionDays)
		})
	}
}

func TestStore_RejectsPathLikeKeys(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { s.Close() })

			assert.ErrorIs(t, s.Save(ctx, "../escape", 1), ErrInvalidKey)
			_, err := s.Load(ctx, "a/b", new(int))
			assert.ErrorIs(t, err, ErrInvalidKey)
			assert.ErrorIs(t, s.Save(ctx, "", 1), ErrInvalidKey)
		})
	}
}

func TestFileStore_WritesReadableJSON(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), KeySettings, model.Settings{RetentionDays: 7}))

	data, err := os.ReadFile(filepath.Join(dir, KeySettings+".json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"retentionDays":7}`, string(data))
}

func TestFileStore_EmptyFileIsMissing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, KeyTasks+".json"), []byte("\n"), 0o644))

	s, err := NewFileStore(dir)
	require.NoError(t, err)

	var tasks []model.Task
	ok, err := s.Load(context.Background(), KeyTasks, &tasks)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore_CorruptFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, KeyTasks+".json"), []byte("{not json"), 0o644))

	s, err := NewFileStore(dir)
	require.NoError(t, err)

	var tasks []model.Task
	_, err = s.Load(context.Background(), KeyTasks, &tasks)
	assert.Error(t, err)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewSQLiteStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, KeyCookingHistory, []model.CookingEntry{{ID: "h1", RecipeTitle: "Dal"}}))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(dir)
	require.NoError(t, err)
	defer s.Close()

	var history []model.CookingEntry
	ok, err := s.Load(ctx, KeyCookingHistory, &history)
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, history, 1)
	assert.Equal(t, "Dal", history[0].RecipeTitle)
}

func TestSQLiteStore_UnusableDatabasePathFails(t *testing.T) {
	dir := t.TempDir()
	// A directory where the database file should be.
	require.NoError(t, os.Mkdir(filepath.Join(dir, SQLiteFileName), 0o755))

	s, err := NewSQLiteStore(dir)
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestOpen(t *testing.T) {
	s, err := Open(BackendMemory, "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open("", t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open("redis", t.TempDir())
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
