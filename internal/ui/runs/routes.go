package runs

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/eachof/internal/ui/notifier"
)

// SetupRoutes registers the run history routes.
func SetupRoutes(
	router chi.Router,
	store Reader,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	logger *slog.Logger,
) {
	handlers := NewHandlers(store, sessionStore, notify, logger)

	// Page routes
	router.Get("/runs", handlers.RunsPage)
	router.Get("/runs/updates", handlers.RunsPageUpdates)
	router.Get("/runs/{id}", handlers.RunDetailPage)

	// JSON API
	router.Route("/api/runs", func(r chi.Router) {
		r.Get("/", handlers.RunsListJSON)
		r.Get("/{id}", handlers.RunDetailJSON)
	})
}
