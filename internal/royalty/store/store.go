// Package store persists royalty events.
package store

import (
	"context"

	"attribune/internal/royalty/models"
	id "attribune/pkg/domain"
)

// RoyaltyStore persists settlements. The unique claim index is the
// once-per-claim guard: a second settlement insert for the same claim fails
// with sentinel.ErrDuplicate.
type RoyaltyStore interface {
	Create(ctx context.Context, event *models.RoyaltyEvent) error
	FindByID(ctx context.Context, eventID id.RoyaltyEventID) (*models.RoyaltyEvent, error)
	FindByClaim(ctx context.Context, claimID id.ClaimID) (*models.RoyaltyEvent, error)
	List(ctx context.Context) ([]*models.RoyaltyEvent, error)
}
