package store

import (
	"context"
	"sort"
	"sync"

	"attribune/internal/certificate/models"
	id "attribune/pkg/domain"
	"attribune/pkg/platform/sentinel"
)

// InMemoryStore keeps certificates in memory for tests and local development.
type InMemoryStore struct {
	mu      sync.RWMutex
	certs   map[id.CertificateID]*models.Certificate
	byClaim map[id.ClaimID]id.CertificateID
}

// NewInMemoryStore creates an empty in-memory certificate store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		certs:   make(map[id.CertificateID]*models.Certificate),
		byClaim: make(map[id.ClaimID]id.CertificateID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, cert *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.certs[cert.ID]; exists {
		return sentinel.ErrDuplicate
	}
	if _, exists := s.byClaim[cert.ClaimID]; exists {
		return sentinel.ErrDuplicate
	}

	stored := *cert
	s.certs[cert.ID] = &stored
	s.byClaim[cert.ClaimID] = cert.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, certID id.CertificateID) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cert, ok := s.certs[certID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *cert
	return &copied, nil
}

func (s *InMemoryStore) FindByClaim(_ context.Context, claimID id.ClaimID) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	certID, ok := s.byClaim[claimID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.certs[certID]
	return &copied, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Certificate, 0, len(s.certs))
	for _, cert := range s.certs {
		copied := *cert
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.Before(out[j].IssuedAt) })
	return out, nil
}
