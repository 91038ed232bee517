package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	fusionmodels "attribune/internal/fusion/models"
	id "attribune/pkg/domain"
)

// Snapshot is the evidence frozen into a certificate: what the fingerprint
// was, what every backend scored, and what fusion decided, at approval time.
// Its canonical serialization is the JSON encoding of this struct; field
// order is fixed by the type, so the bytes are reproducible from the stored
// certificate alone.
type Snapshot struct {
	ClaimID       id.ClaimID                   `json:"claim_id"`
	EvidenceHash  string                       `json:"evidence_hash"`
	MatcherScores []fusionmodels.MatcherScore  `json:"matcher_scores"`
	FusionWeights []fusionmodels.WeightedMatch `json:"fusion_weights"`
	ApprovedAt    time.Time                    `json:"approved_at"`
}

// CanonicalBytes returns the byte sequence the signature covers.
func (s *Snapshot) CanonicalBytes() ([]byte, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("serialize certificate snapshot: %w", err)
	}
	return payload, nil
}

// HashFingerprint derives the evidence hash stored in the snapshot. The raw
// fingerprint never appears in a certificate.
func HashFingerprint(fingerprint id.Fingerprint) string {
	sum := sha256.Sum256([]byte(fingerprint))
	return hex.EncodeToString(sum[:])
}

// Certificate is the signed, immutable audit artifact for one approved
// claim. A third party verifies it from the snapshot, signature, and public
// key alone.
type Certificate struct {
	ID        id.CertificateID `json:"id"`
	ClaimID   id.ClaimID       `json:"claim_id"`
	Snapshot  Snapshot         `json:"snapshot"`
	Signature string           `json:"signature"`
	PublicKey string           `json:"public_key"`
	IssuedAt  time.Time        `json:"issued_at"`
}
