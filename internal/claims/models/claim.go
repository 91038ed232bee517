package models

import (
	"time"

	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
)

// Status is the claim lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDisputed Status = "disputed"
	StatusRejected Status = "rejected"
)

// ParseStatus validates a caller-supplied decision status.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusApproved, StatusDisputed, StatusRejected:
		return Status(raw), nil
	case StatusPending:
		return "", dErrors.New(dErrors.CodeInvalidInput, "pending is not a decision")
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown claim status %q", raw)
	}
}

// Claim asserts an influence decomposition for settlement. It starts pending
// and moves exactly once to approved, disputed, or rejected; terminal states
// never transition again. Re-evaluation takes a new event/result/claim chain.
type Claim struct {
	ID        id.ClaimID  `json:"id"`
	ResultID  id.ResultID `json:"result_id"`
	Status    Status      `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	DecidedAt *time.Time  `json:"decided_at,omitempty"`
}

// IsTerminal reports whether the claim has been decided.
func (c *Claim) IsTerminal() bool {
	return c.Status != StatusPending
}

// ApplyDecision transitions pending to the given terminal status.
func (c *Claim) ApplyDecision(status Status, at time.Time) error {
	if c.Status != StatusPending {
		return dErrors.Newf(dErrors.CodeInvalidState, "claim is already %s", c.Status)
	}
	switch status {
	case StatusApproved, StatusDisputed, StatusRejected:
	default:
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid decision %q", status)
	}
	c.Status = status
	c.DecidedAt = &at
	return nil
}
