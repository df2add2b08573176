package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process; used when no redis address is configured.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]AppSession
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, sessions: make(map[string]AppSession), now: time.Now}
}

func (s *MemoryStore) Create(_ context.Context, id string, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sessions[id] = AppSession{UserID: userID, IssuedAt: now.Unix(), ExpiresAt: now.Add(s.ttl).Unix()}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*AppSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	as, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if as.Expired(s.now()) {
		delete(s.sessions, id)
		return nil, ErrNotFound
	}
	return &as, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) RevokeAllForUser(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, as := range s.sessions {
		if as.UserID == userID {
			delete(s.sessions, id)
		}
	}
	return nil
}

// PurgeExpired drops expired sessions and reports how many were removed.
func (s *MemoryStore) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, as := range s.sessions {
		if as.Expired(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

type MemoryThrottle struct {
	mu    sync.Mutex
	until map[string]time.Time
	now   func() time.Time
}

func NewMemoryThrottle() *MemoryThrottle {
	return &MemoryThrottle{until: make(map[string]time.Time), now: time.Now}
}

func (t *MemoryThrottle) Allow(_ context.Context, key string, ttl time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if u, ok := t.until[key]; ok && now.Before(u) {
		return false
	}
	t.until[key] = now.Add(ttl)
	return true
}
