package auth

import (
	"context"
	"sync"
)

// NewInMemoryTokenStore returns a RefreshTokenStore backed by an in-memory
// map. Useful for tests and local development.
func NewInMemoryTokenStore() *InMemoryTokenStore {
	return &InMemoryTokenStore{tokens: make(map[string]string)}
}

// InMemoryTokenStore implements RefreshTokenStore without persistence.
type InMemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// RefreshToken returns the stored token for the user, or an empty string.
func (s *InMemoryTokenStore) RefreshToken(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[userID], nil
}

// SetRefreshToken overwrites the stored token for the user.
func (s *InMemoryTokenStore) SetRefreshToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	s.tokens[userID] = token
	s.mu.Unlock()
	return nil
}
