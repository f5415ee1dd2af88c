package core

import (
	"sort"
	"sync"
)

// Registrations tracks which plugin identities have been applied to a host.
// Each host owns its own set; it is created alongside the host and never shared.
type Registrations struct {
	mu    sync.RWMutex
	names map[string]struct{}
}

// NewRegistrations creates an empty registration set.
func NewRegistrations() *Registrations {
	return &Registrations{names: make(map[string]struct{})}
}

// Register records name. It returns true if name was not registered before,
// false if the plugin had already been applied.
func (r *Registrations) Register(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.names[name]; ok {
		return false
	}
	r.names[name] = struct{}{}
	return true
}

// IsRegistered reports whether name has been recorded.
func (r *Registrations) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.names[name]
	return ok
}

// Names returns all registered names, sorted.
func (r *Registrations) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]string, 0, len(r.names))
	for name := range r.names {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}
