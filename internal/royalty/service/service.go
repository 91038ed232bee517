package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	catalogmodels "attribune/internal/catalog/models"
	certmodels "attribune/internal/certificate/models"
	claimmodels "attribune/internal/claims/models"
	fusionmodels "attribune/internal/fusion/models"
	ingestmodels "attribune/internal/ingest/models"
	"attribune/internal/ledger"
	"attribune/internal/platform/metrics"
	"attribune/internal/royalty/models"
	"attribune/internal/royalty/ratecard"
	"attribune/internal/royalty/store"
	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
	"attribune/pkg/platform/sentinel"
	"attribune/pkg/requestcontext"
)

var tracer = otel.Tracer("attribune/royalty")

// ClaimSource loads the claim being settled.
type ClaimSource interface {
	Get(ctx context.Context, claimID id.ClaimID) (*claimmodels.Claim, error)
}

// CertificateSource confirms the claim was certified before money moves.
type CertificateSource interface {
	GetByClaim(ctx context.Context, claimID id.ClaimID) (*certmodels.Certificate, error)
}

// ResultSource loads the decomposition whose weights drive the splits.
type ResultSource interface {
	GetResult(ctx context.Context, resultID id.ResultID) (*fusionmodels.Result, error)
}

// EventSource loads the generation event for the rate card's model lookup.
type EventSource interface {
	Get(ctx context.Context, eventID id.EventID) (*ingestmodels.GenerationEvent, error)
}

// CatalogResolver maps works to rights holders.
type CatalogResolver interface {
	Resolve(ctx context.Context, workIDs []id.WorkID) (map[id.WorkID]*catalogmodels.Work, []id.WorkID, error)
}

// Service settles approved, certified claims into royalty events.
type Service struct {
	claims    ClaimSource
	certs     CertificateSource
	results   ResultSource
	events    EventSource
	catalog   CatalogResolver
	rateCard  *ratecard.RateCard
	royalties store.RoyaltyStore
	ledger    *ledger.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New constructs a royalty service.
func New(claims ClaimSource, certs CertificateSource, results ResultSource, events EventSource, catalog CatalogResolver, card *ratecard.RateCard, royalties store.RoyaltyStore, pub *ledger.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		claims:    claims,
		certs:     certs,
		results:   results,
		events:    events,
		catalog:   catalog,
		rateCard:  card,
		royalties: royalties,
		ledger:    pub,
		metrics:   m,
		logger:    logger,
	}
}

// Settle pays out one approved, certified claim. The splits follow the
// decomposition's influence weights through the catalog to rights holders;
// the arithmetic invariant is re-checked before anything is persisted, and a
// failed settlement leaves the claim and certificate untouched.
func (s *Service) Settle(ctx context.Context, claimID id.ClaimID) (*models.RoyaltyEvent, error) {
	ctx, span := tracer.Start(ctx, "royalty.Settle", trace.WithAttributes(
		attribute.String("claim_id", claimID.String()),
	))
	defer span.End()

	claim, err := s.claims.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.Status != claimmodels.StatusApproved {
		return nil, dErrors.Newf(dErrors.CodeUnsettledClaim, "claim is %s, settlement requires approval", claim.Status)
	}
	if _, err := s.certs.GetByClaim(ctx, claimID); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeUnsettledClaim, "claim has no certificate")
		}
		return nil, err
	}

	result, err := s.results.GetResult(ctx, claim.ResultID)
	if err != nil {
		return nil, err
	}
	event, err := s.events.Get(ctx, result.EventID)
	if err != nil {
		return nil, err
	}

	workIDs := make([]id.WorkID, 0, len(result.Matches))
	for _, m := range result.Matches {
		workIDs = append(workIDs, m.WorkID)
	}
	works, missing, err := s.catalog.Resolve(ctx, workIDs)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		names := make([]string, len(missing))
		for i, workID := range missing {
			names[i] = workID.String()
		}
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "works not catalogued: %s", strings.Join(names, ", "))
	}

	stakes := make([]Stake, 0, len(result.Matches))
	for _, m := range result.Matches {
		stakes = append(stakes, Stake{
			WorkID:         m.WorkID,
			RightsHolderID: works[m.WorkID].RightsHolderID,
			Weight:         m.InfluenceWeight,
		})
	}

	total := s.rateCard.AmountFor(event.ModelID)
	royalty := &models.RoyaltyEvent{
		ID:               id.NewRoyaltyEventID(),
		ClaimID:          claim.ID,
		TotalAmountCents: total,
		Splits:           Apportion(total, stakes),
		SettledAt:        requestcontext.Now(ctx),
	}
	if err := royalty.Validate(); err != nil {
		s.logger.ErrorContext(ctx, "settlement arithmetic failed",
			"claim_id", claimID.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		return nil, err
	}

	if err := s.royalties.Create(ctx, royalty); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeAlreadySettled, "claim is already settled")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist royalty event")
	}

	s.metrics.RoyaltiesSettled.Inc()
	span.SetAttributes(
		attribute.Int64("total_amount_cents", total),
		attribute.Int("split_count", len(royalty.Splits)),
	)
	s.ledger.Emit(ctx, ledger.KindRoyaltySettled, royalty.ID.String(), map[string]string{
		"claim_id":           claim.ID.String(),
		"total_amount_cents": strconv.FormatInt(total, 10),
		"split_count":        strconv.Itoa(len(royalty.Splits)),
	})
	return royalty, nil
}

// GetByClaim loads the settlement for a claim.
func (s *Service) GetByClaim(ctx context.Context, claimID id.ClaimID) (*models.RoyaltyEvent, error) {
	royalty, err := s.royalties.FindByClaim(ctx, claimID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "claim has no settlement")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load royalty event")
	}
	return royalty, nil
}
