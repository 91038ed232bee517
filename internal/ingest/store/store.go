package store

import (
	"context"

	"attribune/internal/ingest/models"
	id "attribune/pkg/domain"
)

// EventStore persists generation events append-only.
//
// Create assigns the monotonic Seq and returns sentinel.ErrDuplicate when an
// event with the same (source system, idempotency token) already exists; the
// service resolves the duplicate via FindByToken and returns the original.
type EventStore interface {
	Create(ctx context.Context, event *models.GenerationEvent) error
	FindByID(ctx context.Context, eventID id.EventID) (*models.GenerationEvent, error)
	FindByToken(ctx context.Context, source id.PartnerID, token string) (*models.GenerationEvent, error)
}
