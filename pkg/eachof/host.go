package eachof

import (
	"github.com/leapstack-labs/eachof/pkg/core"
	"github.com/leapstack-labs/eachof/pkg/ordered"
)

// Host is the minimal surface every host must provide.
type Host interface {
	// Flags returns the host classification.
	Flags() core.Flags

	// Registrations returns the set of plugins applied to this host.
	Registrations() *core.Registrations
}

// AppHost is an application that can look up view collections by name.
type AppHost[V any] interface {
	Host

	// GetViews returns the views of the named collection, or an error if
	// no such collection is registered.
	GetViews(name string) (*ordered.Map[V], error)
}

// ViewsHost is a view collection.
type ViewsHost[V any] interface {
	Host

	// Views returns the collection's views.
	Views() *ordered.Map[V]

	// Plural returns the collection's plural name, e.g. "pages".
	Plural() string
}

// ItemsHost is a generic collection or a list.
type ItemsHost[V any] interface {
	Host

	// Items returns the collection's items.
	Items() *ordered.Map[V]
}

// Keyed is implemented by list entries that carry their own key.
// A list may store an entry under a positional key; the list variant
// passes ItemKey to the iterator instead.
type Keyed interface {
	ItemKey() string
}
