package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"attribune/internal/ingest/models"
	id "attribune/pkg/domain"
	"attribune/pkg/platform/sentinel"
)

// PostgresStore persists generation events in PostgreSQL. Seq comes from a
// BIGSERIAL column so replay order survives restarts.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed event store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, event *models.GenerationEvent) error {
	query := `
		INSERT INTO generation_events (id, source_system_id, model_id, fingerprint, idempotency_token, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq
	`
	err := s.db.QueryRowContext(ctx, query,
		uuid.UUID(event.ID),
		uuid.UUID(event.SourceSystemID),
		event.ModelID,
		string(event.Fingerprint),
		event.IdempotencyToken,
		event.SubmittedAt,
	).Scan(&event.Seq)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("insert generation event: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, eventID id.EventID) (*models.GenerationEvent, error) {
	query := `
		SELECT id, seq, source_system_id, model_id, fingerprint, idempotency_token, submitted_at
		FROM generation_events
		WHERE id = $1
	`
	return s.scanEvent(s.db.QueryRowContext(ctx, query, uuid.UUID(eventID)))
}

func (s *PostgresStore) FindByToken(ctx context.Context, source id.PartnerID, token string) (*models.GenerationEvent, error) {
	query := `
		SELECT id, seq, source_system_id, model_id, fingerprint, idempotency_token, submitted_at
		FROM generation_events
		WHERE source_system_id = $1 AND idempotency_token = $2
	`
	return s.scanEvent(s.db.QueryRowContext(ctx, query, uuid.UUID(source), token))
}

func (s *PostgresStore) scanEvent(row *sql.Row) (*models.GenerationEvent, error) {
	var (
		event       models.GenerationEvent
		eventID     uuid.UUID
		sourceID    uuid.UUID
		fingerprint string
	)
	err := row.Scan(&eventID, &event.Seq, &sourceID, &event.ModelID, &fingerprint, &event.IdempotencyToken, &event.SubmittedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan generation event: %w", err)
	}
	event.ID = id.EventID(eventID)
	event.SourceSystemID = id.PartnerID(sourceID)
	event.Fingerprint = id.Fingerprint(fingerprint)
	return &event, nil
}
