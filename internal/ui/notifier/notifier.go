// Package notifier broadcasts "something changed" pings to SSE handlers.
package notifier

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Notifier broadcasts update signals to all subscribed listeners.
// Listeners receive an empty struct when updates are available and should
// re-query the store.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan struct{}]struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan struct{}]struct{}),
	}
}

// Subscribe returns a channel that receives pings when updates are available.
// The caller must call Unsubscribe when done.
func (n *Notifier) Subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan struct{}) {
	n.mu.Lock()
	delete(n.listeners, ch)
	n.mu.Unlock()
	close(ch)
}

// Listeners returns the number of subscribed channels.
func (n *Notifier) Listeners() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}

// Broadcast sends a ping to all listeners. A listener whose channel already
// holds a pending ping is skipped.
func (n *Notifier) Broadcast() {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Fingerprint summarizes the observed state. Two equal fingerprints mean
// nothing changed.
type Fingerprint func(ctx context.Context) (string, error)

// Watch polls fingerprint every interval and broadcasts whenever the
// result differs from the previous poll. The first poll only records the
// baseline. Errors are logged and do not stop the loop. Watch returns nil
// when ctx is done.
func (n *Notifier) Watch(ctx context.Context, interval time.Duration, fingerprint Fingerprint, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	last, err := fingerprint(ctx)
	if err != nil {
		logger.Warn("initial poll failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			current, err := fingerprint(ctx)
			if err != nil {
				logger.Warn("poll failed", "error", err)
				continue
			}
			if current != last {
				logger.Debug("state changed, notifying listeners", "listeners", n.Listeners())
				last = current
				n.Broadcast()
			}
		}
	}
}
