package models

import (
	"time"

	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
)

// WeightedMatch attributes a fraction of a generated track to one prior work.
type WeightedMatch struct {
	WorkID          id.WorkID `json:"work_id"`
	InfluenceWeight float64   `json:"influence_weight"`
}

// MatcherScore is one backend's raw (clamped) similarity for one work, frozen
// into the result so certificates can prove what the decision saw.
type MatcherScore struct {
	AuditorID  id.AuditorID `json:"auditor_id"`
	WorkID     id.WorkID    `json:"work_id"`
	Similarity float64      `json:"similarity"`
}

// Result is the influence decomposition for one generation event. Results are
// append-only: a correction creates a new version for the same event, it never
// mutates an existing row.
//
// Invariant: 0 <= sum of influence weights <= 1. The remainder is residual,
// unattributed weight. Matches are ordered by ascending work id.
type Result struct {
	ID                id.ResultID     `json:"id"`
	EventID           id.EventID      `json:"event_id"`
	Version           int             `json:"version"`
	Matches           []WeightedMatch `json:"matches"`
	MatcherScores     []MatcherScore  `json:"matcher_scores"`
	BackendsResponded int             `json:"backends_responded"`
	Discounted        bool            `json:"discounted"`
	CreatedAt         time.Time       `json:"created_at"`
}

// AttributedWeight returns the total non-residual weight.
func (r *Result) AttributedWeight() float64 {
	var sum float64
	for _, m := range r.Matches {
		sum += m.InfluenceWeight
	}
	return sum
}

// Residual returns the unattributed weight, 1 - sum(influence weights).
func (r *Result) Residual() float64 {
	return 1 - r.AttributedWeight()
}

// AllResidual reports whether the decomposition attributes nothing.
func (r *Result) AllResidual() bool {
	return len(r.Matches) == 0
}

// Validate checks identity and the weight invariant before persistence.
func (r *Result) Validate() error {
	if r.ID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "result id is required")
	}
	if r.EventID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "event id is required")
	}
	return r.CheckWeights()
}

// CheckWeights validates the decomposition invariant alone.
func (r *Result) CheckWeights() error {
	sum := r.AttributedWeight()
	if sum < 0 || sum > 1 {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "influence weights sum to %f, expected [0, 1]", sum)
	}
	for _, m := range r.Matches {
		if m.InfluenceWeight < 0 || m.InfluenceWeight > 1 {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "influence weight %f for %s out of range", m.InfluenceWeight, m.WorkID)
		}
	}
	return nil
}
