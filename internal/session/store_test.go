package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/melodimatch/internal/core/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// snapshot returns a copy of the session, or false if it does not exist.
func (s *Store) snapshot(id string) (domain.Session, bool) {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return domain.Session{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, true
}

func (s *Store) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func newTestStore(ttl time.Duration) (*Store, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := NewStore(ttl, nil)
	s.now = clock.Now
	return s, clock
}

func TestStore_CreatesDefaultSession(t *testing.T) {
	s, _ := newTestStore(time.Minute)

	id, err := s.With("", func(sess *domain.Session) error {
		require.Equal(t, domain.DefaultRecommendations, sess.Count)
		require.Equal(t, domain.Idle{}, sess.Mode)
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	snap, ok := s.snapshot(id)
	require.True(t, ok)
	require.Equal(t, id, snap.ID)
}

func TestStore_KeepsStateAcrossRequests(t *testing.T) {
	s, _ := newTestStore(time.Minute)

	id, err := s.With("", func(sess *domain.Session) error {
		sess.SearchQuery = "Circles"
		return nil
	})
	require.NoError(t, err)

	again, err := s.With(id, func(sess *domain.Session) error {
		require.Equal(t, "Circles", sess.SearchQuery)
		return errors.New("handler failed")
	})
	require.Error(t, err)
	require.Equal(t, id, again)
}

func TestStore_UnknownIDGetsFreshSession(t *testing.T) {
	s, _ := newTestStore(time.Minute)

	id, err := s.With("not-a-session", func(sess *domain.Session) error { return nil })
	require.NoError(t, err)
	require.NotEqual(t, "not-a-session", id)
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	s, _ := newTestStore(time.Minute)

	a, _ := s.With("", func(sess *domain.Session) error { sess.SearchQuery = "a"; return nil })
	b, _ := s.With("", func(sess *domain.Session) error { sess.SearchQuery = "b"; return nil })
	require.NotEqual(t, a, b)

	snapA, _ := s.snapshot(a)
	snapB, _ := s.snapshot(b)
	require.Equal(t, "a", snapA.SearchQuery)
	require.Equal(t, "b", snapB.SearchQuery)
}

func TestStore_SerializesSameSession(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	id, _ := s.With("", func(sess *domain.Session) error { return nil })

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.With(id, func(sess *domain.Session) error {
				sess.Count++
				return nil
			})
		}()
	}
	wg.Wait()

	snap, _ := s.snapshot(id)
	require.Equal(t, domain.DefaultRecommendations+50, snap.Count)
}

func TestStore_ConcurrentRequestsWhileSweeping(t *testing.T) {
	s, clock := newTestStore(time.Minute)
	id, _ := s.With("", func(sess *domain.Session) error { return nil })

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				got, err := s.With(id, func(sess *domain.Session) error { return nil })
				if err != nil || got != id {
					t.Errorf("With: got %q, %v", got, err)
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 200 {
			clock.Advance(time.Millisecond)
			s.Sweep()
		}
	}()
	wg.Wait()

	require.Equal(t, 1, s.size())
}

func TestStore_Expiry(t *testing.T) {
	s, clock := newTestStore(time.Minute)

	id, _ := s.With("", func(sess *domain.Session) error { sess.SearchQuery = "x"; return nil })
	clock.Advance(2 * time.Minute)

	fresh, _ := s.With(id, func(sess *domain.Session) error {
		require.Empty(t, sess.SearchQuery)
		return nil
	})
	require.NotEqual(t, id, fresh)

	clock.Advance(2 * time.Minute)
	require.Equal(t, 1, s.Sweep())
	require.Equal(t, 0, s.size())
}
