package ledger

import (
	"context"
	"sync"
)

// InMemoryStore keeps ledger entries in order of arrival.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemoryStore) ListByKind(_ context.Context, kind Kind) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, entry := range s.entries {
		if entry.Kind == kind {
			out = append(out, entry)
		}
	}
	return out, nil
}

// ListAll returns every entry in append order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry{}, s.entries...), nil
}
