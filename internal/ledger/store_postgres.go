package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore persists ledger entries in PostgreSQL. The table is
// append-only; nothing in the pipeline updates or deletes rows.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed ledger store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	detail, err := json.Marshal(entry.Detail)
	if err != nil {
		return fmt.Errorf("marshal ledger detail: %w", err)
	}
	query := `
		INSERT INTO ledger_entries (id, kind, subject, detail, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.db.ExecContext(ctx, query, entry.ID, string(entry.Kind), entry.Subject, detail, entry.Timestamp); err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByKind(ctx context.Context, kind Kind) ([]Entry, error) {
	query := `
		SELECT id, kind, subject, detail, created_at
		FROM ledger_entries
		WHERE kind = $1
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry     Entry
			entryID   uuid.UUID
			kindRaw   string
			detailRaw []byte
		)
		if err := rows.Scan(&entryID, &kindRaw, &entry.Subject, &detailRaw, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entry.ID = entryID
		entry.Kind = Kind(kindRaw)
		if len(detailRaw) > 0 {
			if err := json.Unmarshal(detailRaw, &entry.Detail); err != nil {
				return nil, fmt.Errorf("unmarshal ledger detail: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
