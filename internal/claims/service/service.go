package service

import (
	"context"
	"errors"
	"log/slog"

	"attribune/internal/claims/models"
	"attribune/internal/claims/store"
	fusionmodels "attribune/internal/fusion/models"
	"attribune/internal/ledger"
	"attribune/internal/platform/metrics"
	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
	"attribune/pkg/platform/sentinel"
	"attribune/pkg/requestcontext"
)

// ResultSource loads the decomposition a claim asserts.
type ResultSource interface {
	GetResult(ctx context.Context, resultID id.ResultID) (*fusionmodels.Result, error)
}

// Service builds claims from results and applies external decisions.
type Service struct {
	results ResultSource
	claims  store.ClaimStore
	ledger  *ledger.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New constructs a claims service.
func New(results ResultSource, claims store.ClaimStore, pub *ledger.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		results: results,
		claims:  claims,
		ledger:  pub,
		metrics: m,
		logger:  logger,
	}
}

// Build creates the claim for a result. An all-residual decomposition has
// nothing to attribute, so its claim is born rejected and skips review.
func (s *Service) Build(ctx context.Context, resultID id.ResultID) (*models.Claim, error) {
	result, err := s.results.GetResult(ctx, resultID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	claim := &models.Claim{
		ID:        id.NewClaimID(),
		ResultID:  result.ID,
		Status:    models.StatusPending,
		CreatedAt: now,
	}
	if result.AllResidual() {
		claim.Status = models.StatusRejected
		claim.DecidedAt = &now
	}

	if err := s.claims.Create(ctx, claim); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeConflict, "claim already exists for result")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist claim")
	}

	s.metrics.ClaimsCreated.Inc()
	if claim.Status == models.StatusRejected {
		s.metrics.ClaimsAutoRejected.Inc()
	}
	s.ledger.Emit(ctx, ledger.KindClaimCreated, claim.ID.String(), map[string]string{
		"result_id": result.ID.String(),
		"status":    string(claim.Status),
	})
	return claim, nil
}

// Decide applies an external authority's decision to a pending claim. The
// transition is a conditional write: a terminal claim stays as it is and the
// caller gets an invalid-state error.
func (s *Service) Decide(ctx context.Context, claimID id.ClaimID, status models.Status) (*models.Claim, error) {
	decidedAt := requestcontext.Now(ctx)
	claim, err := s.claims.Execute(ctx, claimID, func(c *models.Claim) error {
		return c.ApplyDecision(status, decidedAt)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "claim not found")
		}
		if dErrors.HasCode(err, dErrors.CodeInvalidState) || dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to decide claim")
	}

	s.ledger.Emit(ctx, ledger.KindClaimDecided, claim.ID.String(), map[string]string{
		"status": string(claim.Status),
	})
	return claim, nil
}

// Get loads a claim by id.
func (s *Service) Get(ctx context.Context, claimID id.ClaimID) (*models.Claim, error) {
	claim, err := s.claims.FindByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "claim not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load claim")
	}
	return claim, nil
}
