package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"attribune/internal/claims/models"
	id "attribune/pkg/domain"
	"attribune/pkg/platform/sentinel"
)

// PostgresStore persists claims in PostgreSQL. Execute takes a row lock so
// concurrent decisions on the same claim serialize; the unique result_id
// index enforces one claim per result.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed claim store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, claim *models.Claim) error {
	query := `
		INSERT INTO claims (id, result_id, status, created_at, decided_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(claim.ID),
		uuid.UUID(claim.ResultID),
		string(claim.Status),
		claim.CreatedAt,
		claim.DecidedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, claimID id.ClaimID) (*models.Claim, error) {
	query := selectClaim + ` WHERE id = $1`
	return scanClaim(s.db.QueryRowContext(ctx, query, uuid.UUID(claimID)))
}

func (s *PostgresStore) FindByResult(ctx context.Context, resultID id.ResultID) (*models.Claim, error) {
	query := selectClaim + ` WHERE result_id = $1`
	return scanClaim(s.db.QueryRowContext(ctx, query, uuid.UUID(resultID)))
}

func (s *PostgresStore) Execute(ctx context.Context, claimID id.ClaimID, mutate func(*models.Claim) error) (*models.Claim, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin claim transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := selectClaim + ` WHERE id = $1 FOR UPDATE`
	claim, err := scanClaim(tx.QueryRowContext(ctx, query, uuid.UUID(claimID)))
	if err != nil {
		return nil, err
	}

	if err := mutate(claim); err != nil {
		return nil, err
	}

	update := `UPDATE claims SET status = $2, decided_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, uuid.UUID(claim.ID), string(claim.Status), claim.DecidedAt); err != nil {
		return nil, fmt.Errorf("update claim: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim transaction: %w", err)
	}
	return claim, nil
}

const selectClaim = `
	SELECT id, result_id, status, created_at, decided_at
	FROM claims
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (*models.Claim, error) {
	var (
		claim    models.Claim
		claimID  uuid.UUID
		resultID uuid.UUID
		status   string
		decided  sql.NullTime
	)
	err := row.Scan(&claimID, &resultID, &status, &claim.CreatedAt, &decided)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan claim: %w", err)
	}
	claim.ID = id.ClaimID(claimID)
	claim.ResultID = id.ResultID(resultID)
	claim.Status = models.Status(status)
	if decided.Valid {
		claim.DecidedAt = &decided.Time
	}
	return &claim, nil
}
