package store

import (
	"context"
	"sync"

	"attribune/internal/ingest/models"
	id "attribune/pkg/domain"
	"attribune/pkg/platform/sentinel"
)

type tokenKey struct {
	source id.PartnerID
	token  string
}

// InMemoryStore keeps events in maps with a process-local sequence counter.
type InMemoryStore struct {
	mu      sync.RWMutex
	nextSeq int64
	events  map[id.EventID]*models.GenerationEvent
	byToken map[tokenKey]id.EventID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		events:  make(map[id.EventID]*models.GenerationEvent),
		byToken: make(map[tokenKey]id.EventID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, event *models.GenerationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := tokenKey{source: event.SourceSystemID, token: event.IdempotencyToken}
	if _, exists := s.byToken[key]; exists {
		return sentinel.ErrDuplicate
	}

	s.nextSeq++
	event.Seq = s.nextSeq

	copied := *event
	s.events[event.ID] = &copied
	s.byToken[key] = event.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, eventID id.EventID) (*models.GenerationEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	event, ok := s.events[eventID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *event
	return &copied, nil
}

func (s *InMemoryStore) FindByToken(_ context.Context, source id.PartnerID, token string) (*models.GenerationEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	eventID, ok := s.byToken[tokenKey{source: source, token: token}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.events[eventID]
	return &copied, nil
}
