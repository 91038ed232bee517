package service

import (
	"context"
	"errors"
	"log/slog"

	"attribune/internal/certificate/models"
	"attribune/internal/certificate/signer"
	"attribune/internal/certificate/store"
	claimmodels "attribune/internal/claims/models"
	fusionmodels "attribune/internal/fusion/models"
	ingestmodels "attribune/internal/ingest/models"
	"attribune/internal/ledger"
	"attribune/internal/platform/metrics"
	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
	"attribune/pkg/platform/sentinel"
	"attribune/pkg/requestcontext"
)

// ClaimSource loads the claim a certificate attests to.
type ClaimSource interface {
	Get(ctx context.Context, claimID id.ClaimID) (*claimmodels.Claim, error)
}

// ResultSource loads the decomposition behind the claim.
type ResultSource interface {
	GetResult(ctx context.Context, resultID id.ResultID) (*fusionmodels.Result, error)
}

// EventSource loads the generation event whose fingerprint is hashed into
// the snapshot.
type EventSource interface {
	Get(ctx context.Context, eventID id.EventID) (*ingestmodels.GenerationEvent, error)
}

// Service issues certificates for approved claims.
type Service struct {
	claims  ClaimSource
	results ResultSource
	events  EventSource
	certs   store.CertificateStore
	signer  *signer.Signer
	ledger  *ledger.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New constructs a certificate service.
func New(claims ClaimSource, results ResultSource, events EventSource, certs store.CertificateStore, sgn *signer.Signer, pub *ledger.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		claims:  claims,
		results: results,
		events:  events,
		certs:   certs,
		signer:  sgn,
		ledger:  pub,
		metrics: m,
		logger:  logger,
	}
}

// Issue creates the certificate for an approved claim. One certificate per
// claim, ever: the store's unique claim index settles concurrent retries.
func (s *Service) Issue(ctx context.Context, claimID id.ClaimID) (*models.Certificate, error) {
	claim, err := s.claims.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.Status != claimmodels.StatusApproved {
		return nil, dErrors.Newf(dErrors.CodeInvalidState, "claim is %s, certificates require approval", claim.Status)
	}
	if _, err := s.certs.FindByClaim(ctx, claimID); err == nil {
		return nil, dErrors.New(dErrors.CodeAlreadyCertified, "claim already has a certificate")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check for existing certificate")
	}

	result, err := s.results.GetResult(ctx, claim.ResultID)
	if err != nil {
		return nil, err
	}
	event, err := s.events.Get(ctx, result.EventID)
	if err != nil {
		return nil, err
	}

	snapshot := models.Snapshot{
		ClaimID:       claim.ID,
		EvidenceHash:  models.HashFingerprint(event.Fingerprint),
		MatcherScores: result.MatcherScores,
		FusionWeights: result.Matches,
		ApprovedAt:    *claim.DecidedAt,
	}
	payload, err := snapshot.CanonicalBytes()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to serialize certificate snapshot")
	}

	cert := &models.Certificate{
		ID:        id.NewCertificateID(),
		ClaimID:   claim.ID,
		Snapshot:  snapshot,
		Signature: s.signer.Sign(payload),
		PublicKey: s.signer.PublicKey(),
		IssuedAt:  requestcontext.Now(ctx),
	}
	if err := s.certs.Create(ctx, cert); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeAlreadyCertified, "claim already has a certificate")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist certificate")
	}

	s.metrics.CertificatesIssued.Inc()
	s.ledger.Emit(ctx, ledger.KindCertificateIssued, cert.ID.String(), map[string]string{
		"claim_id":      claim.ID.String(),
		"evidence_hash": snapshot.EvidenceHash,
	})
	return cert, nil
}

// GetByClaim loads the certificate for a claim.
func (s *Service) GetByClaim(ctx context.Context, claimID id.ClaimID) (*models.Certificate, error) {
	cert, err := s.certs.FindByClaim(ctx, claimID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no certificate for claim")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certificate")
	}
	return cert, nil
}

// Verify recomputes the canonical snapshot bytes and checks the detached
// signature. It uses only data carried by the certificate itself.
func Verify(cert *models.Certificate) (bool, error) {
	payload, err := cert.Snapshot.CanonicalBytes()
	if err != nil {
		return false, err
	}
	return signer.Verify(cert.PublicKey, payload, cert.Signature), nil
}
