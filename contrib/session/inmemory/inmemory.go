// Package inmemory keeps conversations in process memory. It is the default
// store and the one used in tests.
package inmemory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	lderrors "github.com/sweetpotato0/ai-lawdesk/errors"
	"github.com/sweetpotato0/ai-lawdesk/session"
)

// Option configures an InMemoryStore.
type Option func(*InMemoryStore)

// WithCapacity bounds the number of conversations kept. Saving past the
// bound evicts the least recently updated conversation. n <= 0 means no
// bound.
func WithCapacity(n int) Option {
	return func(s *InMemoryStore) {
		s.capacity = n
	}
}

// InMemoryStore holds copies of conversation records. Callers never share
// memory with stored records.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*session.Record
	capacity      int
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{conversations: make(map[string]*session.Record)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores a copy of record, evicting the stalest conversation when the
// store is full.
func (s *InMemoryStore) Save(ctx context.Context, record *session.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("conversation record needs an id: %w", lderrors.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[record.ID]; !ok && s.capacity > 0 && len(s.conversations) >= s.capacity {
		s.evictStalest()
	}
	s.conversations[record.ID] = record.Clone()
	return nil
}

func (s *InMemoryStore) evictStalest() {
	var stalest *session.Record
	for _, r := range s.conversations {
		if stalest == nil || r.UpdatedAt.Before(stalest.UpdatedAt) {
			stalest = r
		}
	}
	if stalest != nil {
		delete(s.conversations, stalest.ID)
	}
}

// Load returns a copy of the stored conversation.
func (s *InMemoryStore) Load(ctx context.Context, id string) (*session.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, lderrors.ErrNotFound)
	}
	return r.Clone(), nil
}

// Delete removes a conversation.
func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return fmt.Errorf("conversation %s: %w", id, lderrors.ErrNotFound)
	}
	delete(s.conversations, id)
	return nil
}

// List returns conversation ids, most recently updated first. Ties are
// ordered by id.
func (s *InMemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	records := make([]*session.Record, 0, len(s.conversations))
	for _, r := range s.conversations {
		records = append(records, r)
	}
	s.mu.RUnlock()

	slices.SortFunc(records, func(a, b *session.Record) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids, nil
}

// Count returns the number of stored conversations.
func (s *InMemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations), nil
}

// Exists reports whether id is stored.
func (s *InMemoryStore) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.conversations[id]
	return ok, nil
}

// Clear drops every conversation.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.conversations)
}
