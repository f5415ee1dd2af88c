package eachof

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks against *UsageError.
var (
	ErrMissingCallback = errors.New("missing callback")
	ErrMissingIterator = errors.New("missing iterator")
	ErrInvalidName     = errors.New("invalid collection name")
)

// UsageKind identifies the argument that was wrong.
type UsageKind int

// Usage error kinds.
const (
	MissingCallback UsageKind = iota
	MissingIterator
	InvalidName // for hosts that reject a malformed name in GetViews
)

// UsageError reports a bad call to an EachOf method.
// MissingCallback is raised with panic; the other kinds go to the callback.
type UsageError struct {
	Method string // e.g. "app.eachOf", "app.pages.eachOf"
	Kind   UsageKind
}

func newUsageError(method string, kind UsageKind) *UsageError {
	return &UsageError{Method: method, Kind: kind}
}

func (e *UsageError) Error() string {
	switch e.Kind {
	case MissingCallback:
		return e.Method + " is async and expects a callback function"
	case MissingIterator:
		return e.Method + " is async and expects an iterator function"
	case InvalidName:
		return "expected collection name to be a string"
	default:
		return fmt.Sprintf("%s: invalid call", e.Method)
	}
}

// Is matches the sentinel for the error's kind.
func (e *UsageError) Is(target error) bool {
	switch target {
	case ErrMissingCallback:
		return e.Kind == MissingCallback
	case ErrMissingIterator:
		return e.Kind == MissingIterator
	case ErrInvalidName:
		return e.Kind == InvalidName
	}
	return false
}

// HostError is returned by Install when a host's flags claim a role
// the host does not implement.
type HostError struct {
	Role Role
	Host string // dynamic type of the host
	Want string // interface the role requires
}

func (e *HostError) Error() string {
	return fmt.Sprintf("eachof: %s is flagged as %s but does not implement %s", e.Host, e.Role, e.Want)
}

// EntryKeyError reports a list entry without a self-describing key.
type EntryKeyError struct {
	StorageKey string
	Type       string
}

func (e *EntryKeyError) Error() string {
	return fmt.Sprintf("list.eachOf: entry %q of type %s does not provide ItemKey()", e.StorageKey, e.Type)
}

// LookupPanicError reports a non-error value passed to panic while a
// collection was being resolved.
type LookupPanicError struct {
	Name  string
	Value any
}

func (e *LookupPanicError) Error() string {
	return fmt.Sprintf("getViews %q panicked: %v", e.Name, e.Value)
}
