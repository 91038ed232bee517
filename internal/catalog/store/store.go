// Package store persists the work catalog.
package store

import (
	"context"

	"attribune/internal/catalog/models"
	id "attribune/pkg/domain"
)

// WorkStore persists catalogued works.
type WorkStore interface {
	// Upsert creates or replaces a work entry.
	Upsert(ctx context.Context, work *models.Work) error
	// FindByID returns a work or sentinel.ErrNotFound.
	FindByID(ctx context.Context, workID id.WorkID) (*models.Work, error)
}
