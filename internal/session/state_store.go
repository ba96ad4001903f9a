package session

import (
	"sync"
	"time"

	"datamart/pkg/logging"
)

// DefaultStateTTL is how long a pending OAuth state stays valid.
const DefaultStateTTL = 10 * time.Minute

// oauthStateKey is the slot the pending OAuth state is kept under.
const oauthStateKey = "oauth_state"

// Clock abstracts time so expiry can be tested without waiting.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type stateEntry struct {
	value     string
	createdAt time.Time
}

// StateStore holds transient values that must survive an OAuth redirect
// round trip but never a process restart. Values are single-use: Take
// removes what it returns.
type StateStore struct {
	mu      sync.Mutex
	entries map[string]stateEntry
	ttl     time.Duration
	clock   Clock
}

// NewStateStore creates a state store. A zero ttl means DefaultStateTTL and a
// nil clock means the system clock.
func NewStateStore(ttl time.Duration, clock Clock) *StateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	if clock == nil {
		clock = realClock{}
	}
	return &StateStore{
		entries: make(map[string]stateEntry),
		ttl:     ttl,
		clock:   clock,
	}
}

// Put stores value under key, replacing any previous value.
func (s *StateStore) Put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for k, e := range s.entries {
		if now.Sub(e.createdAt) > s.ttl {
			delete(s.entries, k)
		}
	}
	s.entries[key] = stateEntry{value: value, createdAt: now}
}

// Take removes and returns the value under key. Expired values are removed
// and reported as absent.
func (s *StateStore) Take(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return "", false
	}
	delete(s.entries, key)

	if age := s.clock.Now().Sub(e.createdAt); age > s.ttl {
		logging.Warn("Session", "Discarding expired %s (age %v)", key, age.Round(time.Second))
		return "", false
	}
	return e.value, true
}

// Has reports whether an unexpired value is stored under key.
func (s *StateStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	return ok && s.clock.Now().Sub(e.createdAt) <= s.ttl
}
