package models

import (
	"time"

	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
)

// Split is one rights holder's share of a settled claim, in exact cents.
type Split struct {
	RightsHolderID id.RightsHolderID `json:"rights_holder_id"`
	AmountCents    int64             `json:"amount_cents"`
}

// RoyaltyEvent is the immutable settlement record for one approved claim.
//
// Invariant: sum of split amounts equals TotalAmountCents exactly. An event
// violating this is never persisted.
type RoyaltyEvent struct {
	ID               id.RoyaltyEventID `json:"id"`
	ClaimID          id.ClaimID        `json:"claim_id"`
	TotalAmountCents int64             `json:"total_amount_cents"`
	Splits           []Split           `json:"splits"`
	SettledAt        time.Time         `json:"settled_at"`
}

// Validate checks the settlement arithmetic before persistence.
func (e *RoyaltyEvent) Validate() error {
	if e.ID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "royalty event id is required")
	}
	if e.ClaimID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "claim id is required")
	}
	if e.TotalAmountCents < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "total amount must not be negative")
	}
	var sum int64
	for _, s := range e.Splits {
		if s.AmountCents < 0 {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "negative split for %s", s.RightsHolderID)
		}
		sum += s.AmountCents
	}
	if sum != e.TotalAmountCents {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "splits sum to %d cents, expected %d", sum, e.TotalAmountCents)
	}
	return nil
}
