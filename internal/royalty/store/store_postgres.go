package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"attribune/internal/royalty/models"
	id "attribune/pkg/domain"
	"attribune/pkg/platform/sentinel"
)

// PostgresStore persists royalty events in PostgreSQL. Splits are stored as
// JSONB; the unique claim_id index enforces one settlement per claim.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed royalty store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, event *models.RoyaltyEvent) error {
	splits, err := json.Marshal(event.Splits)
	if err != nil {
		return fmt.Errorf("encode royalty splits: %w", err)
	}

	query := `
		INSERT INTO royalty_events (id, claim_id, total_amount_cents, splits, settled_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(event.ID),
		uuid.UUID(event.ClaimID),
		event.TotalAmountCents,
		splits,
		event.SettledAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("insert royalty event: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, eventID id.RoyaltyEventID) (*models.RoyaltyEvent, error) {
	query := selectRoyalty + ` WHERE id = $1`
	return scanRoyalty(s.db.QueryRowContext(ctx, query, uuid.UUID(eventID)))
}

func (s *PostgresStore) FindByClaim(ctx context.Context, claimID id.ClaimID) (*models.RoyaltyEvent, error) {
	query := selectRoyalty + ` WHERE claim_id = $1`
	return scanRoyalty(s.db.QueryRowContext(ctx, query, uuid.UUID(claimID)))
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.RoyaltyEvent, error) {
	query := selectRoyalty + ` ORDER BY settled_at ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list royalty events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []*models.RoyaltyEvent
	for rows.Next() {
		event, scanErr := scanRoyalty(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

const selectRoyalty = `
	SELECT id, claim_id, total_amount_cents, splits, settled_at
	FROM royalty_events
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoyalty(row rowScanner) (*models.RoyaltyEvent, error) {
	var (
		event   models.RoyaltyEvent
		eventID uuid.UUID
		claimID uuid.UUID
		splits  []byte
	)
	err := row.Scan(&eventID, &claimID, &event.TotalAmountCents, &splits, &event.SettledAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan royalty event: %w", err)
	}
	if err := json.Unmarshal(splits, &event.Splits); err != nil {
		return nil, fmt.Errorf("decode royalty splits: %w", err)
	}
	event.ID = id.RoyaltyEventID(eventID)
	event.ClaimID = id.ClaimID(claimID)
	return &event, nil
}
