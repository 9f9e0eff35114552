// Package session keeps the in-memory scorecard sessions of the server.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nilsimda/court-scorecard/scorecard"
)

// cleanupThreshold is the minimum number of entries before a prune pass runs.
const cleanupThreshold = 500

type key struct {
	id      string
	courtID string
}

type entry struct {
	mu       sync.Mutex
	session  *scorecard.Session
	lastSeen time.Time
}

// Store maps a browser session and court to its scorecard.Session. Entries
// idle for longer than the TTL are pruned inline.
type Store struct {
	mu         sync.Mutex
	entries    map[key]*entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	opts       []scorecard.SessionOption
}

type Option func(*Store)

// WithClock sets the clock used for idle tracking.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSessionOptions are passed to every new scorecard.Session.
func WithSessionOptions(opts ...scorecard.SessionOption) Option {
	return func(s *Store) {
		s.opts = append(s.opts, opts...)
	}
}

// WithMaxEntries caps the number of sessions held. At the cap the least
// recently used session is dropped to make room. Zero means no cap.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

func NewStore(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		entries: make(map[key]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an id issued by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// With runs fn with exclusive access to the session for id and courtID,
// creating it on first use.
func (s *Store) With(id, courtID string, fn func(*scorecard.Session) error) error {
	e := s.get(id, courtID, true)
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

// Peek is With for existing sessions only. It reports whether the session
// was found; fn is not called otherwise.
func (s *Store) Peek(id, courtID string, fn func(*scorecard.Session) error) (bool, error) {
	e := s.get(id, courtID, false)
	if e == nil {
		return false, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return true, fn(e.session)
}

func (s *Store) get(id, courtID string, create bool) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	k := key{id: id, courtID: courtID}
	e, ok := s.entries[k]
	if ok && s.ttl > 0 && e.lastSeen.Before(now.Add(-s.ttl)) {
		delete(s.entries, k)
		e, ok = nil, false
	}
	if !ok {
		if !create {
			return nil
		}
		if len(s.entries) > cleanupThreshold {
			s.pruneLocked(now)
		}
		if s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
			s.evictOldestLocked()
		}
		e = &entry{session: scorecard.NewSession(courtID, s.opts...)}
		s.entries[k] = e
	}
	e.lastSeen = now
	return e
}

func (s *Store) evictOldestLocked() {
	var (
		oldest key
		seen   time.Time
		found  bool
	)
	for k, e := range s.entries {
		if !found || e.lastSeen.Before(seen) {
			oldest, seen, found = k, e.lastSeen, true
		}
	}
	if found {
		delete(s.entries, oldest)
	}
}

// Prune drops idle entries and returns how many remain.
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.now())
	return len(s.entries)
}

func (s *Store) pruneLocked(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	cutoff := now.Add(-s.ttl)
	for k, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
