package service

import (
	"context"
	"errors"
	"log/slog"

	"attribune/internal/ingest/models"
	"attribune/internal/ingest/store"
	"attribune/internal/ledger"
	"attribune/internal/platform/metrics"
	id "attribune/pkg/domain"
	dErrors "attribune/pkg/domain-errors"
	"attribune/pkg/platform/sentinel"
	"attribune/pkg/requestcontext"
)

// PartnerDirectory answers whether a source system is registered and active.
type PartnerDirectory interface {
	Exists(ctx context.Context, partnerID id.PartnerID) (bool, error)
}

// IdempotencyIndex is the optional fast path for duplicate submissions.
type IdempotencyIndex interface {
	Reserve(ctx context.Context, source id.PartnerID, token string, eventID id.EventID) (id.EventID, bool, error)
	Release(ctx context.Context, source id.PartnerID, token string)
}

// Service ingests generation events.
type Service struct {
	events   store.EventStore
	partners PartnerDirectory
	idem     IdempotencyIndex
	ledger   *ledger.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithIdempotencyIndex wires the redis fast path.
func WithIdempotencyIndex(idem IdempotencyIndex) Option {
	return func(s *Service) { s.idem = idem }
}

// New constructs an ingest service.
func New(events store.EventStore, partners PartnerDirectory, pub *ledger.Publisher, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		events:   events,
		partners: partners,
		ledger:   pub,
		metrics:  m,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates and durably appends a generation event. Resubmitting the
// same (source system, idempotency token) returns the original event instead
// of creating a second one.
func (s *Service) Submit(ctx context.Context, source id.PartnerID, modelID, fingerprint, token string) (*models.GenerationEvent, error) {
	event, err := models.NewGenerationEvent(id.NewEventID(), source, modelID, fingerprint, token, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	known, err := s.partners.Exists(ctx, source)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unrecognized source system")
	}

	if s.idem != nil {
		owner, created, idemErr := s.idem.Reserve(ctx, source, event.IdempotencyToken, event.ID)
		switch {
		case idemErr != nil:
			// Redis being down only costs the fast path.
			s.logger.WarnContext(ctx, "idempotency index unavailable", "error", idemErr)
		case !created && !owner.IsNil():
			existing, findErr := s.events.FindByID(ctx, owner)
			if findErr == nil {
				s.metrics.IngestDuplicates.Inc()
				return existing, nil
			}
			// Index points at an event the store does not have; fall through
			// to the durable path.
			s.logger.WarnContext(ctx, "stale idempotency entry", "event_id", owner.String())
		}
	}

	if err := s.events.Create(ctx, event); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			existing, findErr := s.events.FindByToken(ctx, source, event.IdempotencyToken)
			if findErr != nil {
				return nil, dErrors.Wrap(findErr, dErrors.CodeInternal, "failed to resolve duplicate submission")
			}
			s.metrics.IngestDuplicates.Inc()
			return existing, nil
		}
		if s.idem != nil {
			s.idem.Release(ctx, source, event.IdempotencyToken)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist generation event")
	}

	s.metrics.EventsIngested.Inc()
	client := requestcontext.Client(ctx)
	s.ledger.Emit(ctx, ledger.KindEventIngested, event.ID.String(), map[string]string{
		"source_system_id": source.String(),
		"model_id":         event.ModelID,
		"sdk_client":       client.Name,
		"sdk_version":      client.Version,
	})
	return event, nil
}

// Get loads an event by id.
func (s *Service) Get(ctx context.Context, eventID id.EventID) (*models.GenerationEvent, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "generation event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load generation event")
	}
	return event, nil
}
