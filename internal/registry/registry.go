// Package registry provides collection registration and name resolution.
// It maps the names templates use to refer to a collection (plural,
// singular, any case) to the collection registered under its plural name.
package registry

import (
	"fmt"
	"strings"
	"sync"
)

// CollectionRegistry maps collection names to collections.
type CollectionRegistry[T any] struct {
	mu sync.RWMutex

	// byName maps plural names to collections: "pages" → *Views
	byName map[string]T

	// aliases maps alternate names to plural names: "page" → "pages"
	// Note: if two collections share an alias, the last registered wins
	aliases map[string]string

	// order keeps plural names in registration order
	order []string
}

// NewCollectionRegistry creates a new empty registry.
func NewCollectionRegistry[T any]() *CollectionRegistry[T] {
	return &CollectionRegistry[T]{
		byName:  make(map[string]T),
		aliases: make(map[string]string),
	}
}

// Register adds a collection under its plural name and any aliases.
// Registering the same plural name twice is an error.
func (r *CollectionRegistry[T]) Register(plural string, collection T, aliases ...string) error {
	if plural == "" {
		return fmt.Errorf("collection name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[plural]; exists {
		return &DuplicateError{Name: plural}
	}

	r.byName[plural] = collection
	r.order = append(r.order, plural)

	for _, alias := range aliases {
		if alias != "" && alias != plural {
			r.aliases[alias] = plural
		}
	}
	return nil
}

// Resolve returns the plural name a reference points at.
// Lookup order: exact plural name, alias, then case-insensitive match on both.
func (r *CollectionRegistry[T]) Resolve(name string) (plural string, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// 1. Exact plural name
	if _, ok := r.byName[name]; ok {
		return name, true
	}

	// 2. Alias
	if plural, ok := r.aliases[name]; ok {
		return plural, true
	}

	// 3. Case-insensitive
	for _, p := range r.order {
		if strings.EqualFold(p, name) {
			return p, true
		}
	}
	for alias, p := range r.aliases {
		if strings.EqualFold(alias, name) {
			return p, true
		}
	}

	return "", false
}

// Get returns the collection a name resolves to, or a *NotFoundError.
func (r *CollectionRegistry[T]) Get(name string) (T, error) {
	plural, ok := r.Resolve(name)
	if !ok {
		var zero T
		return zero, &NotFoundError{Name: name}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[plural], nil
}

// Names returns plural names in registration order.
func (r *CollectionRegistry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Count returns the number of registered collections.
func (r *CollectionRegistry[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// NotFoundError is returned when no collection matches a name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return "getViews cannot find collection: " + e.Name
}

// DuplicateError is returned when a plural name is registered twice.
type DuplicateError struct {
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("collection %q is already registered", e.Name)
}
