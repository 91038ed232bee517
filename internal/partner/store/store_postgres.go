package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"attribune/internal/partner/models"
	id "attribune/pkg/domain"
	"attribune/pkg/platform/sentinel"
)

// PostgresStore persists partners in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed partner store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, partner *models.Partner) error {
	query := `
		INSERT INTO partners (id, name, secret_hash, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(partner.ID),
		partner.Name,
		partner.SecretHash,
		string(partner.Status),
		partner.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("insert partner: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, partnerID id.PartnerID) (*models.Partner, error) {
	query := `
		SELECT id, name, secret_hash, status, created_at
		FROM partners
		WHERE id = $1
	`
	return s.scanPartner(s.db.QueryRowContext(ctx, query, uuid.UUID(partnerID)))
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (*models.Partner, error) {
	query := `
		SELECT id, name, secret_hash, status, created_at
		FROM partners
		WHERE lower(name) = lower($1)
	`
	return s.scanPartner(s.db.QueryRowContext(ctx, query, name))
}

func (s *PostgresStore) scanPartner(row *sql.Row) (*models.Partner, error) {
	var (
		partner   models.Partner
		partnerID uuid.UUID
		status    string
	)
	err := row.Scan(&partnerID, &partner.Name, &partner.SecretHash, &status, &partner.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan partner: %w", err)
	}
	partner.ID = id.PartnerID(partnerID)
	partner.Status = models.PartnerStatus(status)
	return &partner, nil
}
