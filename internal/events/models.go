package events

import "time"

// Event is an immutable, append-only lifecycle log record for a recording.
//
// Invariants:
// - Events are never updated or deleted.
// - recording_id is required; every event belongs to exactly one recording.
// - Logging is best-effort; callers must not block critical flows on it.
//
// Storage recommendation (Postgres):
// - Table recording_events with an INSERT-only policy.
// - Optional: partition by time for retention.

type Event struct {
	ID          string `json:"id" db:"id"`
	RecordingID string `json:"recording_id" db:"recording_id"`

	// Type indicates where in the lifecycle the event occurred.
	Type Type `json:"type" db:"type"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details (store as JSONB).
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Type string

const (
	TypeRecordingCreated    Type = "recording_created"
	TypeCallEnqueued        Type = "call_enqueued"
	TypeCallPlaced          Type = "call_placed"
	TypeCallPlacementFailed Type = "call_placement_failed"
	TypeStatusCallback      Type = "status_callback"
	TypeRecordingCompleted  Type = "recording_completed"
	TypeRecordingFailed     Type = "recording_failed"
)
