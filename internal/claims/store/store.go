// Package store persists claims.
package store

import (
	"context"

	"attribune/internal/claims/models"
	id "attribune/pkg/domain"
)

// ClaimStore persists claims. Execute is the per-claim critical section: the
// mutation callback runs with the claim held exclusively, so concurrent
// decisions on the same claim serialize and the state check inside the
// callback is race-free.
type ClaimStore interface {
	// Create persists a new claim. One claim per result: a second create for
	// the same result fails with sentinel.ErrDuplicate.
	Create(ctx context.Context, claim *models.Claim) error
	// FindByID returns a claim or sentinel.ErrNotFound.
	FindByID(ctx context.Context, claimID id.ClaimID) (*models.Claim, error)
	// FindByResult returns the claim for a result or sentinel.ErrNotFound.
	FindByResult(ctx context.Context, resultID id.ResultID) (*models.Claim, error)
	// Execute atomically applies mutate to the claim. The callback's error
	// aborts the write and is returned unchanged.
	Execute(ctx context.Context, claimID id.ClaimID, mutate func(*models.Claim) error) (*models.Claim, error)
}
