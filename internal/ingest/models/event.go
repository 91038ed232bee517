package models

import (
	"strings"
	"time"

	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
)

// GenerationEvent records one generation reported by a partner SDK.
// Immutable once persisted; the store assigns Seq, a monotonically
// increasing sequence number used for audit replay ordering.
//
// Invariants:
//   - SourceSystemID refers to an active partner
//   - Fingerprint is non-empty (validated at parse time)
//   - (SourceSystemID, IdempotencyToken) is unique across all events
type GenerationEvent struct {
	ID               id.EventID     `json:"id"`
	Seq              int64          `json:"seq"`
	SourceSystemID   id.PartnerID   `json:"source_system_id"`
	ModelID          string         `json:"model_id"`
	Fingerprint      id.Fingerprint `json:"fingerprint"`
	IdempotencyToken string         `json:"idempotency_token"`
	SubmittedAt      time.Time      `json:"submitted_at"`
}

// NewGenerationEvent validates inputs and constructs an event. Seq stays
// zero until the store assigns it.
func NewGenerationEvent(eventID id.EventID, source id.PartnerID, modelID, fingerprint, token string, now time.Time) (*GenerationEvent, error) {
	fp, err := id.ParseFingerprint(fingerprint)
	if err != nil {
		return nil, err
	}
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "model id is required")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "idempotency token is required")
	}
	if source.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "source system id is required")
	}
	return &GenerationEvent{
		ID:               eventID,
		SourceSystemID:   source,
		ModelID:          modelID,
		Fingerprint:      fp,
		IdempotencyToken: token,
		SubmittedAt:      now,
	}, nil
}
