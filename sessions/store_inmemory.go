package sessions

import (
	"hash/fnv"
	"sync"
	"time"
)

const lockStripes = 64

type entry struct {
	session   Session
	expiresAt time.Time
}

// InMemoryStore is an in-memory Store with lazy expiry. Map access is guarded
// by one RWMutex; per-user ordering is provided by striped locks so that
// unrelated users never contend on the same stripe queue.
type InMemoryStore struct {
	nowFunc func() time.Time

	mu      sync.RWMutex
	entries map[string]entry

	stripes [lockStripes]sync.Mutex
}

var _ Store = (*InMemoryStore)(nil)

type InMemoryStoreOption func(*InMemoryStore)

// WithNowFunc sets the clock (primarily for testing).
func WithNowFunc(nowFunc func() time.Time) InMemoryStoreOption {
	return func(s *InMemoryStore) {
		s.nowFunc = nowFunc
	}
}

func NewInMemoryStore(options ...InMemoryStoreOption) *InMemoryStore {
	s := &InMemoryStore{
		nowFunc: time.Now,
		entries: make(map[string]entry),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Get returns the user's session. An entry past its expiry is removed and
// reported as absent.
func (s *InMemoryStore) Get(userID string) (Session, bool) {
	s.mu.RLock()
	e, ok := s.entries[userID]
	s.mu.RUnlock()
	if !ok {
		return Session{}, false
	}

	if !s.nowFunc().Before(e.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock; a Put may have raced the expiry.
		if cur, ok := s.entries[userID]; ok && !s.nowFunc().Before(cur.expiresAt) {
			delete(s.entries, userID)
		}
		s.mu.Unlock()
		return Session{}, false
	}

	return cloneSession(e.session), true
}

// Put stores the session with an absolute expiry of now+ttl.
func (s *InMemoryStore) Put(userID string, session Session, ttl time.Duration) {
	e := entry{
		session:   cloneSession(session),
		expiresAt: s.nowFunc().Add(ttl),
	}
	s.mu.Lock()
	s.entries[userID] = e
	s.mu.Unlock()
}

func (s *InMemoryStore) Remove(userID string) {
	s.mu.Lock()
	delete(s.entries, userID)
	s.mu.Unlock()
}

// Do runs fn while holding the user's stripe lock, totally ordering
// read-modify-write sequences for that user. Operations for users on
// different stripes proceed in parallel.
func (s *InMemoryStore) Do(userID string, fn func()) {
	stripe := &s.stripes[stripeIndex(userID)]
	stripe.Lock()
	defer stripe.Unlock()
	fn()
}

// StartSweeper launches a background sweep that removes expired entries,
// bounding memory under high session churn. Returns a stop function.
// Lazy expiry in Get remains the correctness mechanism; the sweep is purely
// for memory.
func (s *InMemoryStore) StartSweeper(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
	return func() { close(done) }
}

func (s *InMemoryStore) sweep() {
	now := s.nowFunc()
	s.mu.Lock()
	for userID, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, userID)
		}
	}
	s.mu.Unlock()
}

func stripeIndex(userID string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return h.Sum32() % lockStripes
}

func cloneSession(in Session) Session {
	out := in
	if in.Fields != nil {
		out.Fields = make(map[string]string, len(in.Fields))
		for k, v := range in.Fields {
			out.Fields[k] = v
		}
	}
	if in.Location != nil {
		loc := *in.Location
		out.Location = &loc
	}
	return out
}
