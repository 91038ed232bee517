package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"attribune/internal/certificate/models"
	id "attribune/pkg/domain"
	"attribune/pkg/platform/sentinel"
)

// PostgresStore persists certificates in PostgreSQL. The snapshot is stored
// as JSONB; the unique claim_id index enforces one certificate per claim.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed certificate store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, cert *models.Certificate) error {
	snapshot, err := json.Marshal(cert.Snapshot)
	if err != nil {
		return fmt.Errorf("encode certificate snapshot: %w", err)
	}

	query := `
		INSERT INTO certificates (id, claim_id, snapshot, signature, public_key, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(cert.ID),
		uuid.UUID(cert.ClaimID),
		snapshot,
		cert.Signature,
		cert.PublicKey,
		cert.IssuedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("insert certificate: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, certID id.CertificateID) (*models.Certificate, error) {
	query := selectCertificate + ` WHERE id = $1`
	return scanCertificate(s.db.QueryRowContext(ctx, query, uuid.UUID(certID)))
}

func (s *PostgresStore) FindByClaim(ctx context.Context, claimID id.ClaimID) (*models.Certificate, error) {
	query := selectCertificate + ` WHERE claim_id = $1`
	return scanCertificate(s.db.QueryRowContext(ctx, query, uuid.UUID(claimID)))
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Certificate, error) {
	query := selectCertificate + ` ORDER BY issued_at ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var certs []*models.Certificate
	for rows.Next() {
		cert, scanErr := scanCertificate(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		certs = append(certs, cert)
	}
	return certs, rows.Err()
}

const selectCertificate = `
	SELECT id, claim_id, snapshot, signature, public_key, issued_at
	FROM certificates
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row rowScanner) (*models.Certificate, error) {
	var (
		cert     models.Certificate
		certID   uuid.UUID
		claimID  uuid.UUID
		snapshot []byte
	)
	err := row.Scan(&certID, &claimID, &snapshot, &cert.Signature, &cert.PublicKey, &cert.IssuedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan certificate: %w", err)
	}
	if err := json.Unmarshal(snapshot, &cert.Snapshot); err != nil {
		return nil, fmt.Errorf("decode certificate snapshot: %w", err)
	}
	cert.ID = id.CertificateID(certID)
	cert.ClaimID = id.ClaimID(claimID)
	return &cert, nil
}
