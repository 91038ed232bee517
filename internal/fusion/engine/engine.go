// Package engine implements the deterministic fusion of backend match
// evidence into an influence decomposition.
package engine

import (
	"sort"

	"attribune/internal/fusion/models"
	"attribune/internal/matcher"
	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
)

// Config carries the fusion tunables. It is injected at construction so the
// engine itself stays free of ambient state and Fuse stays a pure function of
// its inputs.
type Config struct {
	// MinBackends is the evidence threshold below which the confidence
	// discount applies.
	MinBackends int
	// ConfidenceDiscount multiplies all non-residual weights when fewer than
	// MinBackends responded.
	ConfidenceDiscount float64
	// NoiseFloor drops works whose final weight falls below it.
	NoiseFloor float64
}

// Engine fuses candidate matches from independent backends into one Result.
type Engine struct {
	cfg Config
}

// New constructs an Engine.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Fuse combines backend results into a decomposition for eventID.
//
// Per-work similarities are combined by reliability-weighted average across
// the backends that responded; a responding backend that did not report the
// work counts as similarity zero, so single-source claims are pulled down.
// Combined similarities normalize into weights as sim / (1 + sum of all
// sims), which keeps the attributed total strictly below 1 whenever any
// match exists. Output ordering is fixed (ascending work id) so identical
// inputs produce identical results.
//
// Fuse fails with an insufficient-evidence error only when zero backends
// responded at all. Low confidence is not an error.
func (e *Engine) Fuse(eventID id.EventID, results []matcher.BackendResult) (*models.Result, error) {
	responded := make([]matcher.BackendResult, 0, len(results))
	for _, res := range results {
		if res.Responded() {
			responded = append(responded, res)
		}
	}
	if len(responded) == 0 {
		return nil, dErrors.New(dErrors.CodeInsufficientEvidence, "no matcher backends responded")
	}

	var reliabilityTotal float64
	for _, res := range responded {
		reliabilityTotal += res.Reliability
	}
	if reliabilityTotal <= 0 {
		return nil, dErrors.New(dErrors.CodeInsufficientEvidence, "responding backends carry zero reliability")
	}

	// Reliability-weighted sum per work over responding backends. The
	// denominator is the full responding reliability mass, so absence is
	// evidence against.
	weightedSims := make(map[id.WorkID]float64)
	for _, res := range responded {
		for _, m := range res.Matches {
			weightedSims[m.WorkID] += res.Reliability * m.Similarity
		}
	}

	workIDs := make([]id.WorkID, 0, len(weightedSims))
	for workID := range weightedSims {
		workIDs = append(workIDs, workID)
	}
	sort.Slice(workIDs, func(i, j int) bool { return workIDs[i] < workIDs[j] })

	var simTotal float64
	combined := make(map[id.WorkID]float64, len(workIDs))
	for _, workID := range workIDs {
		sim := weightedSims[workID] / reliabilityTotal
		combined[workID] = sim
		simTotal += sim
	}

	discounted := len(responded) < e.cfg.MinBackends
	discount := 1.0
	if discounted {
		discount = e.cfg.ConfidenceDiscount
	}

	matches := make([]models.WeightedMatch, 0, len(workIDs))
	for _, workID := range workIDs {
		weight := combined[workID] / (1 + simTotal) * discount
		if weight < e.cfg.NoiseFloor {
			continue
		}
		matches = append(matches, models.WeightedMatch{
			WorkID:          workID,
			InfluenceWeight: weight,
		})
	}

	result := &models.Result{
		EventID:           eventID,
		Matches:           matches,
		MatcherScores:     snapshotScores(responded),
		BackendsResponded: len(responded),
		Discounted:        discounted,
	}
	if err := result.CheckWeights(); err != nil {
		return nil, err
	}
	return result, nil
}

// snapshotScores freezes the raw per-backend similarities in a fixed order
// (auditor id, then work id).
func snapshotScores(responded []matcher.BackendResult) []models.MatcherScore {
	scores := make([]models.MatcherScore, 0)
	for _, res := range responded {
		for _, m := range res.Matches {
			scores = append(scores, models.MatcherScore{
				AuditorID:  res.AuditorID,
				WorkID:     m.WorkID,
				Similarity: m.Similarity,
			})
		}
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].AuditorID != scores[j].AuditorID {
			return scores[i].AuditorID < scores[j].AuditorID
		}
		return scores[i].WorkID < scores[j].WorkID
	})
	return scores
}
