package domain

import (
	"github.com/google/uuid"

	dErrors "attribune/pkg/domain-errors"
)

// Typed UUID identifiers for the pipeline entities. Distinct types keep an
// EventID from ever being passed where a ClaimID is expected; the compiler
// enforces what foreign keys only suggest.
type (
	// EventID identifies a GenerationEvent.
	EventID uuid.UUID
	// ResultID identifies a fused influence decomposition.
	ResultID uuid.UUID
	// ClaimID identifies a Claim.
	ClaimID uuid.UUID
	// CertificateID identifies an issued Certificate.
	CertificateID uuid.UUID
	// RoyaltyEventID identifies a settled RoyaltyEvent.
	RoyaltyEventID uuid.UUID
	// PartnerID identifies a registered source system.
	PartnerID uuid.UUID
)

func (id EventID) String() string        { return uuid.UUID(id).String() }
func (id ResultID) String() string       { return uuid.UUID(id).String() }
func (id ClaimID) String() string        { return uuid.UUID(id).String() }
func (id CertificateID) String() string  { return uuid.UUID(id).String() }
func (id RoyaltyEventID) String() string { return uuid.UUID(id).String() }
func (id PartnerID) String() string      { return uuid.UUID(id).String() }

// The ids marshal as canonical UUID strings so API responses hand back
// values the decision/issue/settle endpoints accept unchanged.
func (id EventID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id ResultID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id ClaimID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id CertificateID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id RoyaltyEventID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id PartnerID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }

func (id *EventID) UnmarshalText(text []byte) error  { return (*uuid.UUID)(id).UnmarshalText(text) }
func (id *ResultID) UnmarshalText(text []byte) error { return (*uuid.UUID)(id).UnmarshalText(text) }
func (id *ClaimID) UnmarshalText(text []byte) error  { return (*uuid.UUID)(id).UnmarshalText(text) }
func (id *CertificateID) UnmarshalText(text []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(text)
}
func (id *RoyaltyEventID) UnmarshalText(text []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(text)
}
func (id *PartnerID) UnmarshalText(text []byte) error { return (*uuid.UUID)(id).UnmarshalText(text) }

func (id EventID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id ResultID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id ClaimID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id CertificateID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id RoyaltyEventID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id PartnerID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

// NewEventID returns a fresh random EventID.
func NewEventID() EventID { return EventID(uuid.New()) }

// NewResultID returns a fresh random ResultID.
func NewResultID() ResultID { return ResultID(uuid.New()) }

// NewClaimID returns a fresh random ClaimID.
func NewClaimID() ClaimID { return ClaimID(uuid.New()) }

// NewCertificateID returns a fresh random CertificateID.
func NewCertificateID() CertificateID { return CertificateID(uuid.New()) }

// NewRoyaltyEventID returns a fresh random RoyaltyEventID.
func NewRoyaltyEventID() RoyaltyEventID { return RoyaltyEventID(uuid.New()) }

// NewPartnerID returns a fresh random PartnerID.
func NewPartnerID() PartnerID { return PartnerID(uuid.New()) }

// parseUUID enforces the shared invariant: IDs must be valid, non-nil UUIDs.
// Construct ids via the Parse* functions at trust boundaries; direct casting
// bypasses validation.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", kind)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a valid UUID", kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be the nil UUID", kind)
	}
	return parsed, nil
}

// ParseEventID validates and returns an EventID.
func ParseEventID(raw string) (EventID, error) {
	parsed, err := parseUUID(raw, "event id")
	return EventID(parsed), err
}

// ParseResultID validates and returns a ResultID.
func ParseResultID(raw string) (ResultID, error) {
	parsed, err := parseUUID(raw, "result id")
	return ResultID(parsed), err
}

// ParseClaimID validates and returns a ClaimID.
func ParseClaimID(raw string) (ClaimID, error) {
	parsed, err := parseUUID(raw, "claim id")
	return ClaimID(parsed), err
}

// ParseCertificateID validates and returns a CertificateID.
func ParseCertificateID(raw string) (CertificateID, error) {
	parsed, err := parseUUID(raw, "certificate id")
	return CertificateID(parsed), err
}

// ParseRoyaltyEventID validates and returns a RoyaltyEventID.
func ParseRoyaltyEventID(raw string) (RoyaltyEventID, error) {
	parsed, err := parseUUID(raw, "royalty event id")
	return RoyaltyEventID(parsed), err
}

// ParsePartnerID validates and returns a PartnerID.
func ParsePartnerID(raw string) (PartnerID, error) {
	parsed, err := parseUUID(raw, "partner id")
	return PartnerID(parsed), err
}
