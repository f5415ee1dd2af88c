package commands

import (
	"context"
	"errors"
	"testing"

	starctx "github.com/leapstack-labs/eachof/internal/starlark"
	"github.com/leapstack-labs/eachof/internal/state"
	logutil "github.com/leapstack-labs/eachof/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingResults wraps a store and rejects every result write.
type failingResults struct {
	state.Store
	attempts int
}

func (f *failingResults) RecordResult(_ context.Context, _ string, _ state.EntryResult) error {
	f.attempts++
	return errors.New("disk full")
}

func TestRecorder_CompletesRunAfterResultFailure(t *testing.T) {
	ctx := context.Background()
	store := state.NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	defer func() { _ = store.Close() }()

	run := &state.Run{ID: "run-1", Collection: "pages", Method: "app.eachOf"}
	require.NoError(t, store.CreateRun(ctx, run))

	logs := logutil.NewLogCapture(t)
	wrapped := &failingResults{Store: store}
	rec := &recorder{ctx: ctx, store: wrapped, runID: run.ID, logger: logs.Logger}

	rec.record(0, starctx.Result{Key: "a", Value: "x"})
	rec.record(1, starctx.Result{Key: "b", Value: "y"})
	rec.complete(state.RunStatusSuccess, "")

	assert.Equal(t, 1, wrapped.attempts, "recording stops after the first failure")
	assert.True(t, logs.Contains("failed to record result"))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, state.RunStatusSuccess, got.Status)
	assert.NotNil(t, got.CompletedAt)
}

func TestRecorder_DisabledStoreIsNoop(t *testing.T) {
	rec := &recorder{ctx: context.Background(), logger: logutil.NewTestLogger(t)}

	assert.NotPanics(t, func() {
		rec.record(0, starctx.Result{Key: "a"})
		rec.complete(state.RunStatusFailed, "boom")
		rec.close()
	})
}
