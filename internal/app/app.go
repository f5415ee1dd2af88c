// Package app provides an in-memory template host: an application that owns
// named view collections, plus stand-alone collections, lists and items.
//
// Every host exposes its classification flags and a registration set so
// plugins such as eachof can decide what to install.
package app

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/eachof/internal/registry"
	"github.com/leapstack-labs/eachof/pkg/core"
	"github.com/leapstack-labs/eachof/pkg/ordered"
)

// App is the application host.
type App struct {
	regs        *core.Registrations
	collections *registry.CollectionRegistry[*Views]
	logger      *slog.Logger
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the application logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// New creates an empty application.
func New(opts ...Option) *App {
	a := &App{
		regs:        core.NewRegistrations(),
		collections: registry.NewCollectionRegistry[*Views](),
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Flags implements the host surface.
func (a *App) Flags() core.Flags { return core.Flags{IsApp: true} }

// Registrations returns the plugins applied to the application.
func (a *App) Registrations() *core.Registrations { return a.regs }

// Create registers a new view collection. name is the plural name; the
// singular name defaults to name without a trailing "s".
func (a *App) Create(name string, opts ...ViewsOption) (*Views, error) {
	options := ViewsOptions{Plural: name}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Singular == "" {
		options.Singular = singularize(options.Plural)
	}

	views := NewViews(options)
	if err := a.collections.Register(options.Plural, views, options.Singular); err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}

	a.logger.Debug("created view collection", "plural", options.Plural, "singular", options.Singular)
	return views, nil
}

// Collection returns the view collection a name refers to.
func (a *App) Collection(name string) (*Views, error) {
	return a.collections.Get(name)
}

// Collections returns all view collections in creation order.
func (a *App) Collections() []*Views {
	names := a.collections.Names()
	result := make([]*Views, 0, len(names))
	for _, name := range names {
		if views, err := a.collections.Get(name); err == nil {
			result = append(result, views)
		}
	}
	return result
}

// GetViews returns the views of the named collection.
// Unknown names fail with a *registry.NotFoundError.
func (a *App) GetViews(name string) (*ordered.Map[*core.Item], error) {
	views, err := a.collections.Get(name)
	if err != nil {
		return nil, err
	}
	return views.Views(), nil
}

func singularize(plural string) string {
	switch {
	case strings.HasSuffix(plural, "ies") && len(plural) > 3:
		return strings.TrimSuffix(plural, "ies") + "y"
	case strings.HasSuffix(plural, "s") && len(plural) > 1:
		return strings.TrimSuffix(plural, "s")
	default:
		return plural
	}
}
