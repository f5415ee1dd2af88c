package eachof

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/eachof/pkg/ordered"
)

// Capability is the iteration method bound to one host.
// It is implemented by *App, *Views, *Collection and *List only.
type Capability[V any] interface {
	// Role is the host role the capability was built for.
	Role() Role

	// Method is the method path used in error messages.
	Method() string

	capability()
}

// Call invokes c with the argument shape of its role. name is only used by
// the application variant.
func Call[V any](c Capability[V], name string, fn Iterator[V], cb Callback) {
	switch c := c.(type) {
	case *App[V]:
		c.EachOf(name, fn, cb)
	case *Views[V]:
		c.EachOf(fn, cb)
	case *Collection[V]:
		c.EachOf(fn, cb)
	case *List[V]:
		c.EachOf(fn, cb)
	default:
		panic(fmt.Sprintf("eachof: unknown capability %T", c))
	}
}

// App iterates a named view collection of an application.
type App[V any] struct {
	host   AppHost[V]
	logger *slog.Logger
}

func (a *App[V]) Role() Role     { return RoleApp }
func (a *App[V]) Method() string { return "app.eachOf" }
func (a *App[V]) capability()    {}

// EachOf iterates the views of the collection called name.
// An unknown collection, including the empty name, is reported through cb.
func (a *App[V]) EachOf(name string, fn Iterator[V], cb Callback) {
	if cb == nil {
		panic(newUsageError(a.Method(), MissingCallback))
	}
	if fn == nil {
		cb(newUsageError(a.Method(), MissingIterator))
		return
	}
	views, err := a.lookup(name)
	if err != nil {
		cb(err)
		return
	}
	eachOf(views, fn, cb, a.logger)
}

// lookup resolves name, turning a panic in the host into an error.
func (a *App[V]) lookup(name string) (views *ordered.Map[V], err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = &LookupPanicError{Name: name, Value: r}
		}
	}()
	return a.host.GetViews(name)
}

// Views iterates a view collection's own views.
type Views[V any] struct {
	host   ViewsHost[V]
	logger *slog.Logger
}

func (v *Views[V]) Role() Role     { return RoleViews }
func (v *Views[V]) Method() string { return "app." + v.host.Plural() + ".eachOf" }
func (v *Views[V]) capability()    {}

// EachOf iterates the collection's views.
func (v *Views[V]) EachOf(fn Iterator[V], cb Callback) {
	method := v.Method()
	if cb == nil {
		panic(newUsageError(method, MissingCallback))
	}
	if fn == nil {
		cb(newUsageError(method, MissingIterator))
		return
	}
	eachOf(v.host.Views(), fn, cb, v.logger)
}

// Collection iterates a generic collection's items.
type Collection[V any] struct {
	host   ItemsHost[V]
	logger *slog.Logger
}

func (c *Collection[V]) Role() Role     { return RoleCollection }
func (c *Collection[V]) Method() string { return "collection.eachOf" }
func (c *Collection[V]) capability()    {}

// EachOf iterates the collection's items.
func (c *Collection[V]) EachOf(fn Iterator[V], cb Callback) {
	if cb == nil {
		panic(newUsageError(c.Method(), MissingCallback))
	}
	if fn == nil {
		cb(newUsageError(c.Method(), MissingIterator))
		return
	}
	eachOf(c.host.Items(), fn, cb, c.logger)
}

// List iterates a list's items, passing each entry's own key.
type List[V any] struct {
	host   ItemsHost[V]
	logger *slog.Logger
}

func (l *List[V]) Role() Role     { return RoleList }
func (l *List[V]) Method() string { return "list.eachOf" }
func (l *List[V]) capability()    {}

// EachOf iterates the list's items. fn receives the entry's ItemKey, not
// the key the list stores it under. Entries must implement Keyed; one that
// does not stops the iteration with an *EntryKeyError.
func (l *List[V]) EachOf(fn Iterator[V], cb Callback) {
	if cb == nil {
		panic(newUsageError(l.Method(), MissingCallback))
	}
	if fn == nil {
		cb(newUsageError(l.Method(), MissingIterator))
		return
	}
	eachOf(l.host.Items(), func(value V, storageKey string, next Next) {
		keyed, ok := any(value).(Keyed)
		if !ok {
			next(&EntryKeyError{StorageKey: storageKey, Type: fmt.Sprintf("%T", value)})
			return
		}
		fn(value, keyed.ItemKey(), next)
	}, cb, l.logger)
}
