package store

import (
	"context"
	"sync"

	"attribune/internal/catalog/models"
	id "attribune/pkg/domain"
	"attribune/pkg/platform/sentinel"
)

// InMemoryStore keeps the catalog in memory for tests and local development.
type InMemoryStore struct {
	mu    sync.RWMutex
	works map[id.WorkID]*models.Work
}

// NewInMemoryStore creates an empty in-memory work store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{works: make(map[id.WorkID]*models.Work)}
}

func (s *InMemoryStore) Upsert(_ context.Context, work *models.Work) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *work
	s.works[work.ID] = &stored
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, workID id.WorkID) (*models.Work, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	work, ok := s.works[workID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *work
	return &copied, nil
}
