package events

import (
	"context"
	"database/sql"
)

// PostgresRepo persists lifecycle events.
//
// NOTE: This repository assumes the following table exists:
//
//	CREATE TABLE recording_events (
//	  id           TEXT PRIMARY KEY,
//	  recording_id TEXT NOT NULL,
//	  type         TEXT NOT NULL,
//	  message      TEXT NOT NULL DEFAULT '',
//	  metadata     JSONB,
//	  created_at   TIMESTAMPTZ NOT NULL
//	);
//
// INSERT-only by design; there are no update or delete paths.

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO recording_events (id, recording_id, type, message, metadata, created_at)
VALUES ($1,$2,$3,$4,NULLIF($5,''),$6)
`
	_, err := r.db.ExecContext(ctx, q, e.ID, e.RecordingID, e.Type, e.Message, e.Metadata, e.CreatedAt)
	return err
}

func (r *PostgresRepo) ListByRecording(ctx context.Context, recordingID string) ([]Event, error) {
	const q = `
SELECT id, recording_id, type, message, COALESCE(metadata::text, ''), created_at
FROM recording_events
WHERE recording_id = $1
ORDER BY created_at ASC
`
	rows, err := r.db.QueryContext(ctx, q, recordingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Event, 0)
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.RecordingID, &e.Type, &e.Message, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
