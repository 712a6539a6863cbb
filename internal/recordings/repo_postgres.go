package recordings

import (
	"context"
	"database/sql"
	"errors"

	"voice-recorder/pkg/utils"
)

// PostgresRepo persists recordings in a single table.
//
// NOTE: This repository assumes the following table exists:
//
//	CREATE TABLE recordings (
//	  id                    TEXT PRIMARY KEY,
//	  phone_number          TEXT NOT NULL,
//	  provider_call_id      TEXT NOT NULL DEFAULT '',
//	  provider_recording_id TEXT NOT NULL DEFAULT '',
//	  status                TEXT NOT NULL,
//	  failure_reason        TEXT NOT NULL DEFAULT '',
//	  created_at            TIMESTAMPTZ NOT NULL
//	);
//
// Terminal transitions lock the row and only move it when still IN_PROGRESS,
// which serializes concurrent webhook deliveries for the same recording.

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, rec Recording) error {
	const q = `
INSERT INTO recordings (
  id, phone_number, provider_call_id, provider_recording_id, status, failure_reason, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7
)
`
	_, err := r.db.ExecContext(ctx, q,
		rec.ID,
		rec.PhoneNumber,
		rec.ProviderCallID,
		rec.ProviderRecordingID,
		rec.Status,
		rec.FailureReason,
		rec.CreatedAt,
	)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Recording, error) {
	const q = `
SELECT id, phone_number, provider_call_id, provider_recording_id, status, failure_reason, created_at
FROM recordings
WHERE id = $1
`
	var rec Recording
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&rec.ID,
		&rec.PhoneNumber,
		&rec.ProviderCallID,
		&rec.ProviderRecordingID,
		&rec.Status,
		&rec.FailureReason,
		&rec.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Recording{}, ErrNotFound
		}
		return Recording{}, err
	}
	return rec, nil
}

func (r *PostgresRepo) SetProviderCallID(ctx context.Context, id, providerCallID string) (bool, error) {
	// Set-at-most-once: an already-populated call id is left untouched.
	const q = `
UPDATE recordings
SET provider_call_id = $2
WHERE id = $1 AND provider_call_id = ''
`
	res, err := r.db.ExecContext(ctx, q, id, providerCallID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, r.ensureExists(ctx, id)
	}
	return true, nil
}

func (r *PostgresRepo) Complete(ctx context.Context, id, providerRecordingID string) (bool, error) {
	return r.transitionTerminal(ctx, id, func(ctx context.Context, tx *sql.Tx) (bool, error) {
		const q = `
UPDATE recordings
SET status = $2, provider_recording_id = $3
WHERE id = $1 AND status = $4
`
		res, err := tx.ExecContext(ctx, q, id, StatusComplete, providerRecordingID, StatusInProgress)
		if err != nil {
			return false, err
		}
		n, err := res.RowsAffected()
		return n > 0, err
	})
}

func (r *PostgresRepo) Fail(ctx context.Context, id, reason string) (bool, error) {
	return r.transitionTerminal(ctx, id, func(ctx context.Context, tx *sql.Tx) (bool, error) {
		const q = `
UPDATE recordings
SET status = $2, failure_reason = $3
WHERE id = $1 AND status = $4
`
		res, err := tx.ExecContext(ctx, q, id, StatusFailed, reason, StatusInProgress)
		if err != nil {
			return false, err
		}
		n, err := res.RowsAffected()
		return n > 0, err
	})
}

// transitionTerminal locks the recording row, then runs the conditional
// update. A row that is already terminal yields applied == false, not an
// error; the callers treat that as an idempotent no-op.
func (r *PostgresRepo) transitionTerminal(ctx context.Context, id string, update func(context.Context, *sql.Tx) (bool, error)) (bool, error) {
	var applied bool
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		if err := lockRecording(ctx, tx, id); err != nil {
			return err
		}
		ok, err := update(ctx, tx)
		if err != nil {
			return err
		}
		applied = ok
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func lockRecording(ctx context.Context, tx *sql.Tx, id string) error {
	const q = `
SELECT id
FROM recordings
WHERE id = $1
FOR UPDATE
`
	var got string
	if err := tx.QueryRowContext(ctx, q, id).Scan(&got); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (r *PostgresRepo) ensureExists(ctx context.Context, id string) error {
	const q = `SELECT 1 FROM recordings WHERE id = $1`
	var one int
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
