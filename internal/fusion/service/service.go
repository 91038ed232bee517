package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"attribune/internal/fusion/engine"
	"attribune/internal/fusion/models"
	"attribune/internal/fusion/store"
	ingestmodels "attribune/internal/ingest/models"
	"attribune/internal/ledger"
	"attribune/internal/matcher"
	"attribune/internal/platform/metrics"
	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
	"attribune/pkg/platform/sentinel"
	"attribune/pkg/requestcontext"
)

var tracer = otel.Tracer("attribune/fusion")

// EventSource loads the generation event a verification run starts from.
type EventSource interface {
	Get(ctx context.Context, eventID id.EventID) (*ingestmodels.GenerationEvent, error)
}

// Service runs match fan-out plus fusion and persists the decomposition.
type Service struct {
	events    EventSource
	requester *matcher.Requester
	engine    *engine.Engine
	results   store.ResultStore
	ledger    *ledger.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New constructs a fusion service.
func New(events EventSource, requester *matcher.Requester, eng *engine.Engine, results store.ResultStore, pub *ledger.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		events:    events,
		requester: requester,
		engine:    eng,
		results:   results,
		ledger:    pub,
		metrics:   m,
		logger:    logger,
	}
}

// Verify fans the event's fingerprint out to every backend, fuses the
// evidence, and appends the decomposition as the event's next result version.
func (s *Service) Verify(ctx context.Context, eventID id.EventID) (*models.Result, error) {
	ctx, span := tracer.Start(ctx, "fusion.Verify", trace.WithAttributes(
		attribute.String("event_id", eventID.String()),
	))
	defer span.End()

	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}

	backendResults := s.requester.Collect(ctx, event.Fingerprint)

	fuseStart := time.Now()
	result, err := s.engine.Fuse(eventID, backendResults)
	s.metrics.ObserveFusion(fuseStart)
	if err != nil {
		s.logger.WarnContext(ctx, "fusion failed",
			"event_id", eventID.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		return nil, err
	}
	if result.Discounted {
		s.metrics.FusionDiscounted.Inc()
	}

	result.ID = id.NewResultID()
	result.CreatedAt = requestcontext.Now(ctx)
	if err := result.Validate(); err != nil {
		return nil, err
	}
	if err := s.results.Create(ctx, result); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist fusion result")
	}

	span.SetAttributes(
		attribute.Int("version", result.Version),
		attribute.Int("match_count", len(result.Matches)),
		attribute.Bool("discounted", result.Discounted),
	)
	s.ledger.Emit(ctx, ledger.KindResultFused, result.ID.String(), map[string]string{
		"event_id":           eventID.String(),
		"version":            strconv.Itoa(result.Version),
		"match_count":        strconv.Itoa(len(result.Matches)),
		"backends_responded": strconv.Itoa(result.BackendsResponded),
		"discounted":         strconv.FormatBool(result.Discounted),
	})
	return result, nil
}

// GetResult loads a decomposition by id.
func (s *Service) GetResult(ctx context.Context, resultID id.ResultID) (*models.Result, error) {
	result, err := s.results.FindByID(ctx, resultID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "result not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load result")
	}
	return result, nil
}

// MatchOne queries a single configured backend directly. This is the debug
// surface behind POST /auditor/match; it bypasses fusion entirely.
func (s *Service) MatchOne(ctx context.Context, auditorID id.AuditorID, fingerprint id.Fingerprint) ([]matcher.CandidateMatch, error) {
	for _, backend := range s.requester.Backends() {
		if backend.ID() != auditorID {
			continue
		}
		matches, err := backend.Match(ctx, fingerprint)
		if err != nil {
			s.metrics.IncrementBackendFailure(auditorID.String())
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "auditor backend query failed")
		}
		return matches, nil
	}
	return nil, dErrors.Newf(dErrors.CodeNotFound, "auditor %s is not configured", auditorID)
}
