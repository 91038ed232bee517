package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind labels what happened along the pipeline.
type Kind string

const (
	KindEventIngested     Kind = "event.ingested"
	KindResultFused       Kind = "result.fused"
	KindClaimCreated      Kind = "claim.created"
	KindClaimDecided      Kind = "claim.decided"
	KindCertificateIssued Kind = "certificate.issued"
	KindRoyaltySettled    Kind = "royalty.settled"
)

// Entry is one append-only ledger record. Kept transport-agnostic so the
// store sink and the Kafka producer can share it.
type Entry struct {
	ID        uuid.UUID         `json:"id"`
	Kind      Kind              `json:"kind"`
	Subject   string            `json:"subject"`
	Detail    map[string]string `json:"detail,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Store is the append-only persistence sink for ledger entries.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByKind(ctx context.Context, kind Kind) ([]Entry, error)
}
