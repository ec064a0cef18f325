package memory

import (
	"context"
	"sync"

	"token-pulse/internal/domain"
	"token-pulse/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.Token // keyed by token id
	order []string                 // insertion order
}

// NewTokenStore creates a new empty in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		data: make(map[string]*domain.Token),
	}
}

// ReplaceAll swaps the whole set. On error the previous set is kept.
func (s *TokenStore) ReplaceAll(_ context.Context, tokens []*domain.Token) error {
	data := make(map[string]*domain.Token, len(tokens))
	order := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == nil || t.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := data[t.ID]; exists {
			return storage.ErrDuplicateKey
		}
		data[t.ID] = t.Clone()
		order = append(order, t.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = data
	s.order = order
	return nil
}

// Get retrieves a token by id. Returns ErrNotFound if not exists.
func (s *TokenStore) Get(_ context.Context, id string) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return t.Clone(), nil
}

// Snapshot returns a copy of every token in insertion order.
func (s *TokenStore) Snapshot(_ context.Context) ([]*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Token, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.data[id].Clone())
	}
	return result, nil
}

// Apply merges update into the stored token. Returns ErrNotFound if not exists.
func (s *TokenStore) Apply(_ context.Context, id string, update *domain.TokenUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.data[id]
	if !exists {
		return storage.ErrNotFound
	}
	update.ApplyTo(t)
	return nil
}

// Len returns the number of stored tokens.
func (s *TokenStore) Len(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Verify interface compliance
var _ storage.TokenStore = (*TokenStore)(nil)
