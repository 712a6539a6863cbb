package recordings

import "time"

// Recording tracks one outbound call's lifecycle and outcome.
//
// Invariants:
// - ProviderRecordingID is non-empty if and only if Status == StatusComplete.
// - ProviderCallID and ProviderRecordingID are set at most once.
// - Terminal statuses are sticky: once COMPLETE or FAILED, no further transition.
//
// NOTE: PhoneNumber stores the user's raw input verbatim for audit/display.
// Normalization happens only at call-placement time and is never written back.
type Recording struct {
	ID          string `json:"id" db:"id"`
	PhoneNumber string `json:"phone_number" db:"phone_number"`

	// ProviderCallID is the provider's identifier for the outbound call.
	// Empty until the call is placed.
	ProviderCallID string `json:"provider_call_id,omitempty" db:"provider_call_id"`

	// ProviderRecordingID is the provider's identifier for the finished media.
	// Empty until the recording completes.
	ProviderRecordingID string `json:"provider_recording_id,omitempty" db:"provider_recording_id"`

	Status Status `json:"status" db:"status"`

	// FailureReason is set alongside StatusFailed (placement failure or a
	// provider-reported terminal failure status).
	FailureReason string `json:"failure_reason,omitempty" db:"failure_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusComplete   Status = "COMPLETE"
	StatusFailed     Status = "FAILED"
)

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// StatusEvent is a provider recording-status callback reduced to the fields
// that drive the state machine.
type StatusEvent struct {
	// ProviderStatus is the raw status string as reported (e.g. "completed",
	// "in-progress", "failed").
	ProviderStatus string

	// ProviderRecordingID accompanies a completed status.
	ProviderRecordingID string
}

// Transition classifies a provider-reported status against the configured set
// of terminal failure statuses.
//
// Results:
// - StatusComplete for "completed"
// - StatusFailed for any status in failureStatuses
// - ok == false for everything else (acknowledged no-op)
//
// Whether the transition actually applies is decided at the storage layer,
// which only moves IN_PROGRESS rows. Late or duplicate terminal callbacks are
// therefore silent no-ops.
func Transition(providerStatus string, failureStatuses map[string]bool) (Status, bool) {
	if providerStatus == providerStatusCompleted {
		return StatusComplete, true
	}
	if failureStatuses[providerStatus] {
		return StatusFailed, true
	}
	return "", false
}

const providerStatusCompleted = "completed"

// DefaultFailureStatuses is the provider-reported status set mapped to FAILED
// when no explicit configuration is given.
func DefaultFailureStatuses() map[string]bool {
	return map[string]bool{
		"failed":    true,
		"absent":    true,
		"no-answer": true,
		"busy":      true,
		"canceled":  true,
	}
}

// FailureStatusSet builds the lookup set from a configured list, falling back
// to the defaults on an empty list.
func FailureStatusSet(statuses []string) map[string]bool {
	if len(statuses) == 0 {
		return DefaultFailureStatuses()
	}
	out := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		if s != "" {
			out[s] = true
		}
	}
	return out
}
