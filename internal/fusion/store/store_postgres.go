package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"attribune/internal/fusion/models"
	id "attribune/pkg/domain"
	"attribune/pkg/platform/sentinel"
)

// PostgresStore persists results in PostgreSQL. Matches and matcher scores
// are stored as JSONB snapshots; the (event_id, version) unique index backs
// the append-only version chain.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed result store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, result *models.Result) error {
	matches, err := json.Marshal(result.Matches)
	if err != nil {
		return fmt.Errorf("encode matches: %w", err)
	}
	scores, err := json.Marshal(result.MatcherScores)
	if err != nil {
		return fmt.Errorf("encode matcher scores: %w", err)
	}

	query := `
		INSERT INTO fusion_results (id, event_id, version, matches, matcher_scores, backends_responded, discounted, created_at)
		SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3, $4, $5, $6, $7
		FROM fusion_results
		WHERE event_id = $2
		RETURNING version
	`
	err = s.db.QueryRowContext(ctx, query,
		uuid.UUID(result.ID),
		uuid.UUID(result.EventID),
		matches,
		scores,
		result.BackendsResponded,
		result.Discounted,
		result.CreatedAt,
	).Scan(&result.Version)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("insert fusion result: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, resultID id.ResultID) (*models.Result, error) {
	query := selectResult + ` WHERE id = $1`
	return scanResult(s.db.QueryRowContext(ctx, query, uuid.UUID(resultID)))
}

func (s *PostgresStore) FindCurrentByEvent(ctx context.Context, eventID id.EventID) (*models.Result, error) {
	query := selectResult + ` WHERE event_id = $1 ORDER BY version DESC LIMIT 1`
	return scanResult(s.db.QueryRowContext(ctx, query, uuid.UUID(eventID)))
}

func (s *PostgresStore) ListVersionsByEvent(ctx context.Context, eventID id.EventID) ([]*models.Result, error) {
	query := selectResult + ` WHERE event_id = $1 ORDER BY version ASC`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(eventID))
	if err != nil {
		return nil, fmt.Errorf("list fusion results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*models.Result
	for rows.Next() {
		result, scanErr := scanResult(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

const selectResult = `
	SELECT id, event_id, version, matches, matcher_scores, backends_responded, discounted, created_at
	FROM fusion_results
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*models.Result, error) {
	var (
		result   models.Result
		resultID uuid.UUID
		eventID  uuid.UUID
		matches  []byte
		scores   []byte
	)
	err := row.Scan(&resultID, &eventID, &result.Version, &matches, &scores, &result.BackendsResponded, &result.Discounted, &result.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan fusion result: %w", err)
	}
	if err := json.Unmarshal(matches, &result.Matches); err != nil {
		return nil, fmt.Errorf("decode matches: %w", err)
	}
	if err := json.Unmarshal(scores, &result.MatcherScores); err != nil {
		return nil, fmt.Errorf("decode matcher scores: %w", err)
	}
	result.ID = id.ResultID(resultID)
	result.EventID = id.EventID(eventID)
	return &result, nil
}
