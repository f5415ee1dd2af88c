package state

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/eachof/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenMigrates(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	for _, table := range []string{"runs", "run_results"} {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		require.NoError(t, err, "table %s should exist", table)
		_ = rows.Close()
	}
}

func TestSQLiteStore_OpenFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".eachof", "state.db")

	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(path))
	assert.Equal(t, path, store.Path())
	require.NoError(t, store.Close())

	// Reopening an existing database is a no-op migration.
	store = NewSQLiteStore(nil)
	require.NoError(t, store.Open(path))
	require.NoError(t, store.Close())
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)
	ctx := context.Background()

	assert.Error(t, store.CreateRun(ctx, &Run{ID: "x"}))
	_, err := store.GetRun(ctx, "x")
	assert.Error(t, err)
	_, err = store.ListRuns(ctx, 0)
	assert.Error(t, err)
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	tests := []struct {
		name    string
		results []EntryResult
		status  RunStatus
		errMsg  string
		entries int
		skipped int
	}{
		{
			name: "success",
			results: []EntryResult{
				{Position: 0, Key: "aaa", Value: "Alpha"},
				{Position: 1, Key: "bbb", Skipped: true},
				{Position: 2, Key: "ccc", Value: map[string]any{"n": 3}},
			},
			status:  RunStatusSuccess,
			entries: 3,
			skipped: 1,
		},
		{
			name:    "failed",
			results: []EntryResult{{Position: 0, Key: "aaa", Value: true}},
			status:  RunStatusFailed,
			errMsg:  "each(\"bbb\"): boom",
			entries: 1,
		},
		{
			name:   "empty",
			status: RunStatusSuccess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestStore(t)
			ctx := context.Background()

			run := &Run{ID: "run-" + tt.name, Collection: "pages", Method: "app.pages.eachOf", Script: "titles.star", Env: "dev"}
			require.NoError(t, store.CreateRun(ctx, run))
			assert.Equal(t, RunStatusRunning, run.Status)
			assert.False(t, run.StartedAt.IsZero())

			for _, r := range tt.results {
				require.NoError(t, store.RecordResult(ctx, run.ID, r))
			}
			require.NoError(t, store.CompleteRun(ctx, run.ID, tt.status, tt.errMsg))

			got, err := store.GetRun(ctx, run.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.errMsg, got.Error)
			assert.Equal(t, tt.entries, got.Entries)
			assert.Equal(t, tt.skipped, got.Skipped)
			assert.Equal(t, "pages", got.Collection)
			assert.Equal(t, "app.pages.eachOf", got.Method)
			require.NotNil(t, got.CompletedAt)
			assert.GreaterOrEqual(t, got.Duration(), time.Duration(0))

			results, err := store.GetResults(ctx, run.ID)
			require.NoError(t, err)
			require.Len(t, results, len(tt.results))
			for i, r := range results {
				assert.Equal(t, tt.results[i].Key, r.Key)
				assert.Equal(t, tt.results[i].Skipped, r.Skipped)
				assert.Equal(t, i, r.Position)
			}
		})
	}
}

func TestSQLiteStore_ResultValuesRoundTripAsJSON(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateRun(ctx, &Run{ID: "r1", Collection: "pages", Method: "collection.eachOf"}))
	require.NoError(t, store.RecordResult(ctx, "r1", EntryResult{Position: 0, Key: "a", Value: []any{"x", int64(2)}}))
	require.NoError(t, store.RecordResult(ctx, "r1", EntryResult{Position: 1, Key: "b", Skipped: true}))

	results, err := store.GetResults(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	// JSON numbers decode as float64.
	assert.Equal(t, []any{"x", float64(2)}, results[0].Value)
	assert.Nil(t, results[1].Value)
}

func TestSQLiteStore_GetRunNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetRun(context.Background(), "missing")
	require.ErrorIs(t, err, ErrRunNotFound)
	assert.Contains(t, err.Error(), "missing")

	err = store.CompleteRun(context.Background(), "missing", RunStatusSuccess, "")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		require.NoError(t, store.CreateRun(ctx, &Run{
			ID: id, Collection: "pages", Method: "collection.eachOf",
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "third", runs[0].ID)
	assert.Equal(t, "first", runs[2].ID)
	assert.Nil(t, runs[0].CompletedAt)
	assert.Equal(t, time.Duration(0), runs[0].Duration())

	runs, err = store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, []string{"third", "second"}, []string{runs[0].ID, runs[1].ID})
}

func TestSQLiteStore_ListCollectionRuns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	// One old "nav" run buried under newer "pages" runs.
	require.NoError(t, store.CreateRun(ctx, &Run{ID: "nav-1", Collection: "nav", StartedAt: base}))
	for i := 1; i <= 5; i++ {
		require.NoError(t, store.CreateRun(ctx, &Run{
			ID: fmt.Sprintf("pages-%d", i), Collection: "pages",
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	latest, err := store.ListRuns(ctx, 3)
	require.NoError(t, err)
	for _, run := range latest {
		assert.Equal(t, "pages", run.Collection)
	}

	nav, err := store.ListCollectionRuns(ctx, "nav", 3)
	require.NoError(t, err)
	require.Len(t, nav, 1)
	assert.Equal(t, "nav-1", nav[0].ID)

	pages, err := store.ListCollectionRuns(ctx, "pages", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"pages-5", "pages-4"}, []string{pages[0].ID, pages[1].ID})

	none, err := store.ListCollectionRuns(ctx, "missing", 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	collections, err := store.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"pages", "nav"}, collections)
}
