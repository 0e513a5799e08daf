package exam

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSessionNotFound is returned when a session id resolves to nothing,
// usually because the user already restarted.
var ErrSessionNotFound = errors.New("session not found")

type registryEntry struct {
	session *Session
	cancel  context.CancelFunc
}

// Registry is the in-process store of live sessions, keyed by session id.
// Each user's session is isolated; the registry only exists so one server
// process can host several independent simulacros at once.
type Registry struct {
	tick time.Duration

	mu      sync.RWMutex
	entries map[string]*registryEntry
}

// NewRegistry builds an empty registry whose sessions tick at the given
// countdown interval.
func NewRegistry(tick time.Duration) *Registry {
	return &Registry{
		tick:    tick,
		entries: make(map[string]*registryEntry),
	}
}

// Add stores the session and starts its countdown driver. The driver stops
// when the session leaves InProgress or when the session is removed.
func (r *Registry) Add(s *Session) {
	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.entries[s.ID()] = &registryEntry{session: s, cancel: cancel}
	r.mu.Unlock()

	go Countdown(ctx, s, r.tick)
}

// Get returns the session for the given id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry.session, nil
}

// Remove discards the session entirely: ShowingResults -> Configuring. The
// countdown driver is canceled; questions, answers and deadline go with the
// session. The question bank is untouched.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[id]; ok {
		entry.cancel()
		delete(r.entries, id)
	}
}

// Count returns the number of live sessions, for the admin dashboard and the
// active-sessions gauge.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
