package store

import (
	"context"
	"sync"

	"attribune/internal/claims/models"
	id "attribune/pkg/domain"
	"attribune/pkg/platform/sentinel"
)

// InMemoryStore keeps claims in memory for tests and local development. The
// store mutex doubles as the per-claim critical section.
type InMemoryStore struct {
	mu       sync.Mutex
	claims   map[id.ClaimID]*models.Claim
	byResult map[id.ResultID]id.ClaimID
}

// NewInMemoryStore creates an empty in-memory claim store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		claims:   make(map[id.ClaimID]*models.Claim),
		byResult: make(map[id.ResultID]id.ClaimID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, claim *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.claims[claim.ID]; exists {
		return sentinel.ErrDuplicate
	}
	if _, exists := s.byResult[claim.ResultID]; exists {
		return sentinel.ErrDuplicate
	}

	stored := *claim
	s.claims[claim.ID] = &stored
	s.byResult[claim.ResultID] = claim.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, claimID id.ClaimID) (*models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(claimID)
}

func (s *InMemoryStore) FindByResult(_ context.Context, resultID id.ResultID) (*models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	claimID, ok := s.byResult[resultID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.find(claimID)
}

func (s *InMemoryStore) Execute(_ context.Context, claimID id.ClaimID, mutate func(*models.Claim) error) (*models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	claim, ok := s.claims[claimID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	candidate := *claim
	if err := mutate(&candidate); err != nil {
		return nil, err
	}
	s.claims[claimID] = &candidate

	out := candidate
	return &out, nil
}

func (s *InMemoryStore) find(claimID id.ClaimID) (*models.Claim, error) {
	claim, ok := s.claims[claimID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *claim
	return &copied, nil
}
