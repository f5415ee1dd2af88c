package app

import (
	"github.com/leapstack-labs/eachof/pkg/core"
	"github.com/leapstack-labs/eachof/pkg/ordered"
)

// ViewsOptions configures a view collection.
type ViewsOptions struct {
	Plural   string
	Singular string
}

// ViewsOption modifies ViewsOptions.
type ViewsOption func(*ViewsOptions)

// WithSingular sets the singular name of a view collection.
func WithSingular(name string) ViewsOption {
	return func(o *ViewsOptions) {
		o.Singular = name
	}
}

// Views is a named collection of views.
type Views struct {
	options ViewsOptions
	regs    *core.Registrations
	views   *ordered.Map[*core.Item]
}

// NewViews creates an empty view collection.
func NewViews(options ViewsOptions) *Views {
	return &Views{
		options: options,
		regs:    core.NewRegistrations(),
		views:   ordered.New[*core.Item](),
	}
}

// Flags implements the host surface.
func (v *Views) Flags() core.Flags { return core.Flags{IsViews: true, IsCollection: true} }

// Registrations returns the plugins applied to the collection.
func (v *Views) Registrations() *core.Registrations { return v.regs }

// AddView adds view under key. An empty view key is set to key.
func (v *Views) AddView(key string, view *core.Item) *core.Item {
	if view == nil {
		view = core.NewItem(key, "")
	}
	if view.Key == "" {
		view.Key = key
	}
	v.views.Set(key, view)
	return view
}

// GetView returns the view stored under key.
func (v *Views) GetView(key string) (*core.Item, bool) {
	return v.views.Get(key)
}

// Views returns the collection's views.
func (v *Views) Views() *ordered.Map[*core.Item] { return v.views }

// Plural returns the collection's plural name.
func (v *Views) Plural() string { return v.options.Plural }

// Singular returns the collection's singular name.
func (v *Views) Singular() string { return v.options.Singular }
