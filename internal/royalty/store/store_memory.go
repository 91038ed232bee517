package store

import (
	"context"
	"sort"
	"sync"

	"attribune/internal/royalty/models"
	id "attribune/pkg/domain"
	"attribune/pkg/platform/sentinel"
)

// InMemoryStore keeps royalty events in memory for tests and local
// development.
type InMemoryStore struct {
	mu      sync.RWMutex
	events  map[id.RoyaltyEventID]*models.RoyaltyEvent
	byClaim map[id.ClaimID]id.RoyaltyEventID
}

// NewInMemoryStore creates an empty in-memory royalty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		events:  make(map[id.RoyaltyEventID]*models.RoyaltyEvent),
		byClaim: make(map[id.ClaimID]id.RoyaltyEventID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, event *models.RoyaltyEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[event.ID]; exists {
		return sentinel.ErrDuplicate
	}
	if _, exists := s.byClaim[event.ClaimID]; exists {
		return sentinel.ErrDuplicate
	}

	stored := *event
	stored.Splits = append([]models.Split(nil), event.Splits...)
	s.events[event.ID] = &stored
	s.byClaim[event.ClaimID] = event.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, eventID id.RoyaltyEventID) (*models.RoyaltyEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[eventID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneEvent(event), nil
}

func (s *InMemoryStore) FindByClaim(_ context.Context, claimID id.ClaimID) (*models.RoyaltyEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	eventID, ok := s.byClaim[claimID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneEvent(s.events[eventID]), nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.RoyaltyEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.RoyaltyEvent, 0, len(s.events))
	for _, event := range s.events {
		out = append(out, cloneEvent(event))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SettledAt.Before(out[j].SettledAt) })
	return out, nil
}

func cloneEvent(event *models.RoyaltyEvent) *models.RoyaltyEvent {
	copied := *event
	copied.Splits = append([]models.Split(nil), event.Splits...)
	return &copied
}
