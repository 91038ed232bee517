package store

import (
	"context"
	"sync"

	"attribune/internal/fusion/models"
	id "attribune/pkg/domain"
	"attribune/pkg/platform/sentinel"
)

// InMemoryStore keeps results in memory for tests and local development.
type InMemoryStore struct {
	mu      sync.RWMutex
	results map[id.ResultID]*models.Result
	byEvent map[id.EventID][]id.ResultID
}

// NewInMemoryStore creates an empty in-memory result store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		results: make(map[id.ResultID]*models.Result),
		byEvent: make(map[id.EventID][]id.ResultID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, result *models.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.results[result.ID]; exists {
		return sentinel.ErrDuplicate
	}
	result.Version = len(s.byEvent[result.EventID]) + 1

	stored := *result
	s.results[result.ID] = &stored
	s.byEvent[result.EventID] = append(s.byEvent[result.EventID], result.ID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, resultID id.ResultID) (*models.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.results[resultID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *result
	return &copied, nil
}

func (s *InMemoryStore) FindCurrentByEvent(_ context.Context, eventID id.EventID) (*models.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.byEvent[eventID]
	if len(versions) == 0 {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.results[versions[len(versions)-1]]
	return &copied, nil
}

func (s *InMemoryStore) ListVersionsByEvent(_ context.Context, eventID id.EventID) ([]*models.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.byEvent[eventID]
	out := make([]*models.Result, 0, len(versions))
	for _, resultID := range versions {
		copied := *s.results[resultID]
		out = append(out, &copied)
	}
	return out, nil
}
