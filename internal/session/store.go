// Package session keeps per-browser session state in memory.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ewilliams-labs/melodimatch/internal/core/domain"
	"github.com/ewilliams-labs/melodimatch/internal/metrics"
)

// DefaultTTL is how long an untouched session is kept.
const DefaultTTL = 30 * time.Minute

type entry struct {
	mu    sync.Mutex // held for the whole of one handler
	state domain.Session

	lastSeen time.Time // guarded by Store.mu
}

// Store maps session ids to state. Handlers for the same session are serialized.
type Store struct {
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics

	mu      sync.Mutex
	entries map[string]*entry
}

// NewStore constructs a Store. ttl <= 0 uses DefaultTTL.
func NewStore(ttl time.Duration, m *metrics.Metrics) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		ttl:     ttl,
		now:     time.Now,
		metrics: m,
		entries: make(map[string]*entry),
	}
}

// With runs fn with exclusive access to the session named id, creating a
// fresh session when id is empty, unknown or expired. It returns the id of
// the session fn ran against.
func (s *Store) With(id string, fn func(*domain.Session) error) (string, error) {
	e, id := s.acquire(id)
	defer e.mu.Unlock()

	e.state.Initialize(domain.DefaultSession())
	err := fn(&e.state)
	e.state.ID = id

	s.mu.Lock()
	e.lastSeen = s.now()
	s.mu.Unlock()
	return id, err
}

func (s *Store) acquire(id string) (*entry, string) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok && s.now().Sub(e.lastSeen) > s.ttl {
		delete(s.entries, id)
		ok = false
	}
	if !ok {
		id = uuid.NewString()
		e = &entry{state: domain.DefaultSession()}
		e.state.ID = id
		s.entries[id] = e
		s.metrics.SetActiveSessions(len(s.entries))
	}
	e.lastSeen = s.now()
	s.mu.Unlock()

	e.mu.Lock()
	return e, id
}

// Sweep drops sessions idle for longer than the TTL.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.entries {
		if !e.mu.TryLock() {
			continue // in use
		}
		if e.lastSeen.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
		e.mu.Unlock()
	}
	s.metrics.SetActiveSessions(len(s.entries))
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.ttl / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Printf("session: expired %d idle sessions", n)
			}
		}
	}
}
