// Package ui provides a local web UI for browsing run history.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/eachof/internal/ui/notifier"
	"github.com/leapstack-labs/eachof/internal/ui/runs"
	"golang.org/x/sync/errgroup"
)

// Server is the UI server.
type Server struct {
	store        runs.Reader
	sessionStore *sessions.CookieStore
	addr         string
	pollInterval time.Duration
	logger       *slog.Logger
	notifier     *notifier.Notifier
}

// Config holds configuration for the UI server.
type Config struct {
	Store         runs.Reader
	Addr          string
	PollInterval  time.Duration
	SessionSecret string
	Logger        *slog.Logger
}

// DefaultPollInterval is how often the store is checked for new runs.
const DefaultPollInterval = time.Second

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}

	return &Server{
		store:        cfg.Store,
		sessionStore: sessionStore,
		addr:         cfg.Addr,
		pollInterval: poll,
		logger:       logger,
		notifier:     notifier.New(),
	}
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// Handler builds the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		requestLogger(s.logger),
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/runs", http.StatusFound)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	runs.SetupRoutes(r, s.store, s.sessionStore, s.notifier, s.logger)

	return r
}

// Serve starts the UI server and blocks until ctx is cancelled. When ready
// is non-nil it receives the listening address.
func (s *Server) Serve(ctx context.Context, ready chan<- string) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.logger.Info("starting UI server", "addr", "http://"+ln.Addr().String())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		return s.notifier.Watch(egctx, s.pollInterval, s.fingerprint, s.logger)
	})

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server")
		return srv.Shutdown(shutdownCtx)
	})

	if ready != nil {
		ready <- ln.Addr().String()
	}
	return eg.Wait()
}

// fingerprint changes whenever a run starts, records a result or completes.
func (s *Server) fingerprint(ctx context.Context) (string, error) {
	latest, err := s.store.ListRuns(ctx, 5)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, run := range latest {
		fmt.Fprintf(&sb, "%s:%s:%d;", run.ID, run.Status, run.Entries)
	}
	return sb.String(), nil
}

// requestLogger logs each request at debug level.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start))
		})
	}
}
