// internal/record/sql.go
//
// SQL-backed record store.
//
// Context
// -------
// One table holds every collection:
//
//	records (id VARCHAR(36) PK, path VARCHAR(255), payload TEXT,
//	         submitted_at VARCHAR(32))
//
// The schema ships in internal/database/migrations.  IDs are UUIDv7, so a
// lexical ORDER BY id returns rows in append order.  The payload column
// carries the flat field map as JSON; submitted_at duplicates the
// timestamp field so operators can range-scan without parsing JSON.
//
// Notes
// -----
// • Placeholders are “?” which both MySQL and SQLite accept.
// • Oxford commas, two spaces after periods.
package record

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SQL appends records into the `records` table.
type SQL struct {
	db *sqlx.DB
}

// NewSQL wraps an open pool.  The caller owns db and closes it.
func NewSQL(db *sqlx.DB) *SQL { return &SQL{db: db} }

// Append inserts one row.
func (s *SQL) Append(ctx context.Context, path string, fields Fields) (ID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}

	const q = `INSERT INTO records (id, path, payload, submitted_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, id.String(), path, string(payload), fields[TimestampField]); err != nil {
		return "", err
	}
	return ID(id.String()), nil
}

// List returns every record under path in append order.  Intended for
// operator tooling and tests, not the request path.
func (s *SQL) List(ctx context.Context, path string) ([]Entry, error) {
	const q = `SELECT id, payload FROM records WHERE path = ? ORDER BY id`

	rows := make([]struct {
		ID      string `db:"id"`
		Payload string `db:"payload"`
	}, 0, 16)
	if err := s.db.SelectContext(ctx, &rows, q, path); err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		var f Fields
		if err := json.Unmarshal([]byte(r.Payload), &f); err != nil {
			return nil, err
		}
		out = append(out, Entry{ID: ID(r.ID), Fields: f})
	}
	return out, nil
}
