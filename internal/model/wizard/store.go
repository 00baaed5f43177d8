package wizard

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrUserIDRequired = errors.New("user id is required")

var _ Store = (*MemoryStore)(nil)

// Store keeps wizard sessions between requests.
type Store interface {
	// GetOrCreate returns the stored session or a new one with no answers
	// and cursor 0. created is true when the session did not exist.
	GetOrCreate(ctx context.Context, userID string) (session Session, created bool, err error)
	Save(ctx context.Context, session Session) error
	Delete(ctx context.Context, userID string) error
}

// MemoryStore implements Store with a process-local map. Sessions never
// expire; an abandoned wizard stays until restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	now      func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetOrCreate implements Store. The returned session is a copy.
func (s *MemoryStore) GetOrCreate(_ context.Context, userID string) (Session, bool, error) {
	if userID == "" {
		return Session{}, false, ErrUserIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[userID]; ok {
		return session.Clone(), false, nil
	}

	session := NewSession(userID, s.now())
	s.sessions[userID] = session
	return session.Clone(), true, nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, session Session) error {
	if session.UserID == "" {
		return ErrUserIDRequired
	}

	session.UpdatedAt = s.now()

	s.mu.Lock()
	s.sessions[session.UserID] = session.Clone()
	s.mu.Unlock()
	return nil
}

// Delete implements Store. Deleting an unknown user is not an error.
func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
	return nil
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Exists reports whether userID has a live session.
func (s *MemoryStore) Exists(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[userID]
	return ok
}
