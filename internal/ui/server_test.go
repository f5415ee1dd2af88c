package ui

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leapstack-labs/eachof/internal/state"
	"github.com/leapstack-labs/eachof/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *state.SQLiteStore {
	t.Helper()
	store := state.NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestServer_Handler(t *testing.T) {
	s := NewServer(Config{Store: newTestStore(t), SessionSecret: "secret", Logger: testutil.NewTestLogger(t)})
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/runs", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No runs recorded yet.")
}

func TestServer_Fingerprint(t *testing.T) {
	store := newTestStore(t)
	s := NewServer(Config{Store: store})
	ctx := context.Background()

	empty, err := s.fingerprint(ctx)
	require.NoError(t, err)

	require.NoError(t, store.CreateRun(ctx, &state.Run{ID: "r1", Collection: "pages", Method: "collection.eachOf"}))
	started, err := s.fingerprint(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, empty, started)

	require.NoError(t, store.RecordResult(ctx, "r1", state.EntryResult{Key: "a", Value: 1}))
	recorded, err := s.fingerprint(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, started, recorded)

	require.NoError(t, store.CompleteRun(ctx, "r1", state.RunStatusSuccess, ""))
	completed, err := s.fingerprint(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, recorded, completed)

	again, err := s.fingerprint(ctx)
	require.NoError(t, err)
	assert.Equal(t, completed, again)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	s := NewServer(Config{
		Store:        newTestStore(t),
		Addr:         "127.0.0.1:0",
		PollInterval: 10 * time.Millisecond,
		Logger:       testutil.NewTestLogger(t),
	})

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ready) }()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_ListenError(t *testing.T) {
	s := NewServer(Config{Store: newTestStore(t), Addr: "256.0.0.1:bad"})
	err := s.Serve(context.Background(), nil)
	assert.ErrorContains(t, err, "failed to listen")
}
