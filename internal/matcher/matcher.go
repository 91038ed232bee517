// Package matcher queries fingerprint auditor backends and collects their
// candidate matches for fusion.
package matcher

import (
	"context"

	id "attribune/pkg/domain"
)

// CandidateMatch is one backend's opinion that a fingerprint resembles a
// catalog work. Similarity is in [0, 1].
type CandidateMatch struct {
	WorkID     id.WorkID `json:"work_id"`
	Similarity float64   `json:"similarity"`
}

//go:generate mockgen -source=matcher.go -destination=../mocks/matcher.go -package=mocks

// MatchBackend is a single fingerprint auditor.
type MatchBackend interface {
	ID() id.AuditorID
	Reliability() float64
	Match(ctx context.Context, fingerprint id.Fingerprint) ([]CandidateMatch, error)
}

// BackendResult is the outcome of querying one backend. Exactly one of
// Matches and Err is meaningful; a backend that answered with zero matches
// still counts as responded.
type BackendResult struct {
	AuditorID   id.AuditorID
	Reliability float64
	Matches     []CandidateMatch
	Err         error
}

// Responded reports whether the backend produced an answer, even an empty one.
func (r BackendResult) Responded() bool {
	return r.Err == nil
}
