package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"attribune/internal/catalog/models"
	id "attribune/pkg/domain"
	"attribune/pkg/platform/sentinel"
)

// PostgresStore persists the work catalog in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed work store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, work *models.Work) error {
	query := `
		INSERT INTO catalog_works (id, title, artist, rights_holder_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title, artist = EXCLUDED.artist, rights_holder_id = EXCLUDED.rights_holder_id
	`
	_, err := s.db.ExecContext(ctx, query,
		work.ID.String(),
		work.Title,
		work.Artist,
		work.RightsHolderID.String(),
	)
	if err != nil {
		return fmt.Errorf("upsert catalog work: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, workID id.WorkID) (*models.Work, error) {
	query := `
		SELECT id, title, artist, rights_holder_id
		FROM catalog_works
		WHERE id = $1
	`
	var (
		work     models.Work
		rawID    string
		rawOwner string
	)
	err := s.db.QueryRowContext(ctx, query, workID.String()).Scan(&rawID, &work.Title, &work.Artist, &rawOwner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan catalog work: %w", err)
	}
	work.ID = id.WorkID(rawID)
	work.RightsHolderID = id.RightsHolderID(rawOwner)
	return &work, nil
}
