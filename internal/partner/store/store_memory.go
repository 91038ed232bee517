package store

import (
	"context"
	"strings"
	"sync"

	"attribune/internal/partner/models"
	id "attribune/pkg/domain"
	"attribune/pkg/platform/sentinel"
)

// InMemoryStore keeps partners in a map. Used by unit tests and local runs
// without a database.
type InMemoryStore struct {
	mu       sync.RWMutex
	partners map[id.PartnerID]*models.Partner
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{partners: make(map[id.PartnerID]*models.Partner)}
}

func (s *InMemoryStore) Create(_ context.Context, partner *models.Partner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.partners[partner.ID]; exists {
		return sentinel.ErrDuplicate
	}
	for _, existing := range s.partners {
		if strings.EqualFold(existing.Name, partner.Name) {
			return sentinel.ErrDuplicate
		}
	}
	copied := *partner
	s.partners[partner.ID] = &copied
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, partnerID id.PartnerID) (*models.Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	partner, ok := s.partners[partnerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *partner
	return &copied, nil
}

func (s *InMemoryStore) FindByName(_ context.Context, name string) (*models.Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, partner := range s.partners {
		if strings.EqualFold(partner.Name, name) {
			copied := *partner
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}
