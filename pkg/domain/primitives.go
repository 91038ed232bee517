package domain

import (
	"strings"

	dErrors "attribune/pkg/domain-errors"
)

// WorkID identifies a catalogued prior work. Auditor backends assign these,
// so they are opaque strings rather than UUIDs.
//
// Invariant: non-empty, no surrounding whitespace, at most 128 characters.
type WorkID string

// ParseWorkID validates and returns a WorkID.
func ParseWorkID(raw string) (WorkID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "work id is required")
	}
	if len(trimmed) > 128 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "work id must be 128 characters or less")
	}
	return WorkID(trimmed), nil
}

func (w WorkID) String() string { return string(w) }

// AuditorID identifies a configured matcher backend.
type AuditorID string

// ParseAuditorID validates and returns an AuditorID.
func ParseAuditorID(raw string) (AuditorID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "auditor id is required")
	}
	return AuditorID(trimmed), nil
}

func (a AuditorID) String() string { return string(a) }

// RightsHolderID identifies the party paid for a work's influence.
type RightsHolderID string

// ParseRightsHolderID validates and returns a RightsHolderID.
func ParseRightsHolderID(raw string) (RightsHolderID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "rights holder id is required")
	}
	return RightsHolderID(trimmed), nil
}

func (r RightsHolderID) String() string { return string(r) }

// Fingerprint is the opaque content signature computed outside the pipeline.
// The pipeline never interprets it; it only validates shape and hashes it
// into certificates.
//
// Invariant: non-empty, at most 64 KiB once trimmed.
type Fingerprint string

const maxFingerprintLen = 64 * 1024

// ParseFingerprint validates and returns a Fingerprint.
func ParseFingerprint(raw string) (Fingerprint, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "fingerprint is required")
	}
	if len(trimmed) > maxFingerprintLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "fingerprint exceeds maximum size")
	}
	return Fingerprint(trimmed), nil
}

func (f Fingerprint) String() string { return string(f) }
