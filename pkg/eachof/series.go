package eachof

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/leapstack-labs/eachof/pkg/ordered"
)

// Next is handed to an iterator for one entry. Calling it with nil moves on
// to the following entry; calling it with an error stops the iteration.
type Next func(err error)

// Iterator is called once per entry with the entry's value and key.
// It must eventually call next exactly once.
type Iterator[V any] func(value V, key string, next Next)

// Callback receives the outcome of an iteration, exactly once.
type Callback func(err error)

// EachOf visits the entries of m in insertion order, one at a time.
//
// The next entry is visited only after fn has called next for the current
// one. If next receives an error, no further entries are visited and cb is
// called with that error. Otherwise cb is called with nil after the last
// entry. An empty or nil map calls cb(nil) right away.
//
// next may be called before fn returns or later from another goroutine.
// There is no timeout: an iterator that never calls next stalls the
// iteration. m must not be modified while the iteration is running.
func EachOf[V any](m *ordered.Map[V], fn Iterator[V], cb Callback) {
	eachOf(m, fn, cb, nil)
}

func eachOf[V any](m *ordered.Map[V], fn Iterator[V], cb Callback, logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &series[V]{m: m, fn: fn, cb: cb, logger: logger}
	s.run()
}

// series holds the state of one EachOf call.
type series[V any] struct {
	m      *ordered.Map[V]
	fn     Iterator[V]
	cb     Callback
	logger *slog.Logger

	mu       sync.Mutex
	index    int  // next entry to visit
	inFn     bool // fn is running on the goroutine driving run
	resumed  bool // next(nil) arrived while inFn
	finished bool
}

// run visits entries until one completes asynchronously or the iteration
// ends. Entries whose iterator calls next before returning are handled by
// the loop rather than by recursion.
func (s *series[V]) run() {
	for {
		s.mu.Lock()
		if s.finished {
			s.mu.Unlock()
			return
		}
		if s.index >= s.m.Len() {
			s.mu.Unlock()
			s.finish(nil)
			return
		}
		key, value := s.m.At(s.index)
		s.index++
		s.inFn = true
		s.resumed = false
		s.mu.Unlock()

		s.fn(value, key, s.next(key))

		s.mu.Lock()
		s.inFn = false
		resumed := s.resumed && !s.finished
		s.mu.Unlock()

		if !resumed {
			return
		}
	}
}

func (s *series[V]) next(key string) Next {
	var called atomic.Bool
	return func(err error) {
		if !called.CompareAndSwap(false, true) {
			s.logger.Warn("iterator called next more than once", "key", key)
			return
		}
		if err != nil {
			s.finish(err)
			return
		}

		s.mu.Lock()
		if s.inFn {
			s.resumed = true
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		s.run()
	}
}

func (s *series[V]) finish(err error) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	visited := s.index
	s.mu.Unlock()

	s.logger.Debug("eachOf finished", "visited", visited, "total", s.m.Len(), "error", err)
	s.cb(err)
}
