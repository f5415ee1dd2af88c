// Package runs provides run history handlers for the UI.
package runs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/eachof/internal/state"
	"github.com/leapstack-labs/eachof/internal/ui/notifier"
	"github.com/starfederation/datastar-go/datastar"
)

const (
	defaultLimit  = 50
	sessionName   = "eachof-ui"
	collectionKey = "collection"
)

// Reader is the part of the history store the UI needs.
type Reader interface {
	GetRun(ctx context.Context, id string) (*state.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*state.Run, error)
	ListCollectionRuns(ctx context.Context, collection string, limit int) ([]*state.Run, error)
	ListCollections(ctx context.Context) ([]string, error)
	GetResults(ctx context.Context, runID string) ([]state.EntryResult, error)
}

// Handlers provides HTTP handlers for the runs history feature.
type Handlers struct {
	store        Reader
	sessionStore sessions.Store
	notifier     *notifier.Notifier
	logger       *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store Reader, sessionStore sessions.Store, notify *notifier.Notifier, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		store:        store,
		sessionStore: sessionStore,
		notifier:     notify,
		logger:       logger,
	}
}

// RunsPage renders the run history page. A ?collection= filter is
// remembered in the session; "all" clears it.
func (h *Handlers) RunsPage(w http.ResponseWriter, r *http.Request) {
	collection := h.collectionFilter(w, r)

	data, err := h.buildRunsData(r, collection)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := Page("Run History", "/runs/updates", RunsTable(data)).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// RunsPageUpdates is the long-lived SSE endpoint for the runs page. It does
// not send an initial state; RunsPage already rendered it.
func (h *Handlers) RunsPageUpdates(w http.ResponseWriter, r *http.Request) {
	collection := h.sessionCollection(r)
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			data, err := h.buildRunsData(r, collection)
			if err != nil {
				_ = sse.ConsoleError(err)
				continue
			}
			if err := sse.PatchElementTempl(RunsTable(data)); err != nil {
				h.logger.Debug("sse client gone", "error", err)
				return
			}
		}
	}
}

// RunDetailPage renders one run with its results.
func (h *Handlers) RunDetailPage(w http.ResponseWriter, r *http.Request) {
	data, status, err := h.buildDetailData(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	if err := Page("Run "+truncateID(data.Run.ID), "", RunDetail(data)).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// RunResponse is the JSON form of a run.
type RunResponse struct {
	*state.Run
	DurationMS int64               `json:"duration_ms"`
	Results    []state.EntryResult `json:"results,omitempty"`
}

// RunsListJSON returns recent runs as JSON. Supports ?limit= and
// ?collection=.
func (h *Handlers) RunsListJSON(w http.ResponseWriter, r *http.Request) {
	data, err := h.buildRunsData(r, r.URL.Query().Get("collection"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	out := make([]RunResponse, len(data.Runs))
	for i, run := range data.Runs {
		out[i] = RunResponse{Run: run, DurationMS: run.Duration().Milliseconds()}
	}
	writeJSON(w, http.StatusOK, out)
}

// RunDetailJSON returns one run with its results as JSON.
func (h *Handlers) RunDetailJSON(w http.ResponseWriter, r *http.Request) {
	data, status, err := h.buildDetailData(r)
	if err != nil {
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, RunResponse{
		Run:        data.Run,
		DurationMS: data.Run.Duration().Milliseconds(),
		Results:    data.Results,
	})
}

func (h *Handlers) buildRunsData(r *http.Request, collection string) (RunsViewData, error) {
	limit := defaultLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	var (
		runs []*state.Run
		err  error
	)
	if collection == "" {
		runs, err = h.store.ListRuns(r.Context(), limit)
	} else {
		runs, err = h.store.ListCollectionRuns(r.Context(), collection, limit)
	}
	if err != nil {
		return RunsViewData{}, fmt.Errorf("failed to list runs: %w", err)
	}
	collections, err := h.store.ListCollections(r.Context())
	if err != nil {
		return RunsViewData{}, fmt.Errorf("failed to list collections: %w", err)
	}
	return RunsViewData{
		Runs:        runs,
		Collections: collections,
		Collection:  collection,
	}, nil
}

func (h *Handlers) buildDetailData(r *http.Request) (RunDetailData, int, error) {
	id := chi.URLParam(r, "id")
	run, err := h.store.GetRun(r.Context(), id)
	if errors.Is(err, state.ErrRunNotFound) {
		return RunDetailData{}, http.StatusNotFound, err
	}
	if err != nil {
		return RunDetailData{}, http.StatusInternalServerError, err
	}
	results, err := h.store.GetResults(r.Context(), id)
	if err != nil {
		return RunDetailData{}, http.StatusInternalServerError, err
	}
	return RunDetailData{Run: run, Results: results}, http.StatusOK, nil
}

// collectionFilter resolves the collection filter from the query string,
// falling back to the session, and persists an explicit choice.
func (h *Handlers) collectionFilter(w http.ResponseWriter, r *http.Request) string {
	param, ok := r.URL.Query()[collectionKey]
	if !ok || len(param) == 0 {
		return h.sessionCollection(r)
	}

	collection := param[0]
	if collection == "all" {
		collection = ""
	}
	session, err := h.sessionStore.Get(r, sessionName)
	if err != nil {
		h.logger.Debug("discarding invalid session", "error", err)
	}
	session.Values[collectionKey] = collection
	if err := session.Save(r, w); err != nil {
		h.logger.Warn("failed to save session", "error", err)
	}
	return collection
}

func (h *Handlers) sessionCollection(r *http.Request) string {
	session, err := h.sessionStore.Get(r, sessionName)
	if err != nil {
		return ""
	}
	collection, _ := session.Values[collectionKey].(string)
	return collection
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
