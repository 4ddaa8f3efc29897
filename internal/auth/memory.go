package auth

import (
	"context"
	"sync"
	"time"
)

var _ SessionStore = (*MemorySessionStore)(nil)

// MemorySessionStore keeps session records in process memory.
type MemorySessionStore struct {
	mu      sync.RWMutex
	records map[string]SessionToken
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{records: make(map[string]SessionToken)}
}

func (s *MemorySessionStore) Find(_ context.Context, userID string) (*SessionToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *MemorySessionStore) Put(_ context.Context, token *SessionToken) error {
	if token == nil || token.UserID == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[token.UserID] = *token
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[userID]
	delete(s.records, userID)
	return ok, nil
}

func (s *MemorySessionStore) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, rec := range s.records {
		if rec.Expired(before) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

// Len reports the number of stored records.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
