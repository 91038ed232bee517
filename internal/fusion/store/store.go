// Package store persists fusion results.
package store

import (
	"context"

	"attribune/internal/fusion/models"
	id "attribune/pkg/domain"
)

// ResultStore persists decompositions. Results for one event form an
// append-only version chain; Create assigns the next version number.
type ResultStore interface {
	// Create persists the result and assigns its version. The stored row is
	// never mutated afterwards.
	Create(ctx context.Context, result *models.Result) error
	// FindByID returns a result or sentinel.ErrNotFound.
	FindByID(ctx context.Context, resultID id.ResultID) (*models.Result, error)
	// FindCurrentByEvent returns the highest version for the event or
	// sentinel.ErrNotFound.
	FindCurrentByEvent(ctx context.Context, eventID id.EventID) (*models.Result, error)
	// ListVersionsByEvent returns all versions for the event in ascending
	// version order.
	ListVersionsByEvent(ctx context.Context, eventID id.EventID) ([]*models.Result, error)
}
