package intervention

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresStore implements Store with PostgreSQL so interventions survive
// restarts. Insertion order is preserved through a sequence column.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed intervention store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the interventions table.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS interventions (
			seq        BIGSERIAL PRIMARY KEY,
			id         VARCHAR(36) NOT NULL UNIQUE,
			student    VARCHAR(200),
			action     VARCHAR(100),
			message    TEXT,
			meta       JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_interventions_student ON interventions(student);
	`)
	return err
}

func (p *PostgresStore) Record(ctx context.Context, entry *Entry) error {
	meta, err := json.Marshal(entry.Meta)
	if err != nil {
		return fmt.Errorf("failed to encode meta: %w", err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO interventions (id, student, action, message, meta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.Student, entry.Action, entry.Message, meta, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to record intervention: %w", err)
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context) ([]*Entry, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, student, action, message, meta, created_at
		FROM interventions
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var meta []byte
		if err := rows.Scan(&e.ID, &e.Student, &e.Action, &e.Message, &meta, &e.Timestamp); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(meta, &e.Meta); err != nil {
			return nil, fmt.Errorf("failed to decode meta for %s: %w", e.ID, err)
		}
		e.Timestamp = e.Timestamp.UTC()
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
