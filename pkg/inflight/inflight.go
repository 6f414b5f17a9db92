// Package inflight provides a single-slot guard for mutating actions so a
// double-submitted request cannot race an identical one still in flight.
package inflight

import (
	"errors"
	"sync"
)

// ErrInProgress is returned when an action with the same key has not resolved yet
var ErrInProgress = errors.New("an identical request is already in progress")

// Guard tracks at most one outstanding action per key
type Guard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewGuard creates an empty guard
func NewGuard() *Guard {
	return &Guard{active: make(map[string]struct{})}
}

// Acquire claims the slot for key, returning ErrInProgress if it is taken.
// The caller must Release the key once the action resolves, success or not.
func (g *Guard) Acquire(key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[key]; busy {
		return ErrInProgress
	}
	g.active[key] = struct{}{}
	return nil
}

// Release frees the slot for key
func (g *Guard) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, key)
}
