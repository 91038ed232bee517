package models

import (
	"strings"
	"time"

	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
)

// PartnerStatus is the lifecycle state of a registered source system.
type PartnerStatus string

const (
	PartnerStatusActive   PartnerStatus = "active"
	PartnerStatusInactive PartnerStatus = "inactive"
)

// Partner is a registered source system allowed to submit generation events.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - SecretHash is a bcrypt hash, never the plaintext secret
//   - Ingest MUST reject events from inactive partners
type Partner struct {
	ID         id.PartnerID  `json:"id"`
	Name       string        `json:"name"`
	SecretHash string        `json:"-"`
	Status     PartnerStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
}

// NewPartner validates and constructs an active partner.
func NewPartner(partnerID id.PartnerID, name, secretHash string, now time.Time) (*Partner, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "partner name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "partner name must be 128 characters or less")
	}
	if secretHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "partner secret hash cannot be empty")
	}
	return &Partner{
		ID:         partnerID,
		Name:       name,
		SecretHash: secretHash,
		Status:     PartnerStatusActive,
		CreatedAt:  now,
	}, nil
}

// IsActive reports whether the partner may submit events.
func (p *Partner) IsActive() bool {
	return p.Status == PartnerStatusActive
}
