package recordings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voice-recorder/internal/events"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("recording not found")
	ErrInvalidPhoneNumber = errors.New("invalid phone number")
)

// Repository is the persistence contract for recordings.
//
// Complete and Fail only move rows that are still IN_PROGRESS and report
// whether the update applied. That conditional update is the concurrency
// mechanism for out-of-order and duplicated webhook delivery: the provider
// guarantees neither ordering nor exactly-once.
type Repository interface {
	Create(ctx context.Context, rec Recording) error
	Get(ctx context.Context, id string) (Recording, error)

	// SetProviderCallID records the provider call identifier; set at most
	// once. Reports whether this call populated it.
	SetProviderCallID(ctx context.Context, id, providerCallID string) (bool, error)

	Complete(ctx context.Context, id, providerRecordingID string) (bool, error)
	Fail(ctx context.Context, id, reason string) (bool, error)
}

// EventLog receives best-effort lifecycle events. Logging failures must never
// block or fail the main flow.
type EventLog interface {
	Append(ctx context.Context, e events.Event) error
}

// ServiceConfig carries the provider-dependent pieces of recording behavior.
type ServiceConfig struct {
	// FailureStatuses is the set of provider-reported statuses mapped to
	// FAILED. Empty means the defaults.
	FailureStatuses []string

	// MediaURL derives the playback URL for a completed recording from the
	// provider recording identifier. Pure; no I/O.
	MediaURL func(providerRecordingID string) string
}

// Service owns the recording lifecycle: creation, call-placement outcome, and
// webhook-driven status transitions.
type Service struct {
	repo            Repository
	eventLog        EventLog
	failureStatuses map[string]bool
	mediaURL        func(string) string

	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository, eventLog EventLog, cfg ServiceConfig) *Service {
	return &Service{
		repo:            repo,
		eventLog:        eventLog,
		failureStatuses: FailureStatusSet(cfg.FailureStatuses),
		mediaURL:        cfg.MediaURL,
		clock:           time.Now,
	}
}

// Create validates the raw number and persists a new IN_PROGRESS recording.
// The raw input is stored verbatim; no call is placed here.
func (s *Service) Create(ctx context.Context, rawPhoneNumber string) (Recording, error) {
	if !ValidPhoneNumber(rawPhoneNumber) {
		return Recording{}, fmt.Errorf("%w: %q", ErrInvalidPhoneNumber, rawPhoneNumber)
	}

	rec := Recording{
		ID:          uuid.NewString(),
		PhoneNumber: rawPhoneNumber,
		Status:      StatusInProgress,
		CreatedAt:   s.clock().UTC(),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return Recording{}, err
	}
	s.logEvent(ctx, rec.ID, events.TypeRecordingCreated, "recording created")
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id string) (Recording, error) {
	if id == "" {
		return Recording{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// RecordCallPlaced persists the provider call identifier after placement.
// The identifier is set at most once; a repeat is a silent no-op and logs no
// duplicate event.
func (s *Service) RecordCallPlaced(ctx context.Context, id, providerCallID string) error {
	applied, err := s.repo.SetProviderCallID(ctx, id, providerCallID)
	if err != nil {
		return err
	}
	if applied {
		s.logEvent(ctx, id, events.TypeCallPlaced, "call placed: "+providerCallID)
	}
	return nil
}

// RecordPlacementFailure transitions the recording to FAILED with a reason
// code instead of leaving an orphaned IN_PROGRESS row.
func (s *Service) RecordPlacementFailure(ctx context.Context, id, reason string) error {
	applied, err := s.repo.Fail(ctx, id, reason)
	if err != nil {
		return err
	}
	if applied {
		s.logEvent(ctx, id, events.TypeCallPlacementFailed, reason)
	}
	return nil
}

// ApplyStatusEvent drives the state machine from a recording-status callback.
//
// Safe under at-least-once delivery: re-applying a terminal status to an
// already-terminal recording is a no-op and never overwrites terminal data.
// Returns whether a transition occurred.
func (s *Service) ApplyStatusEvent(ctx context.Context, id string, ev StatusEvent) (bool, error) {
	// Existence check up front so unknown ids surface as ErrNotFound rather
	// than a silent non-applied update.
	if _, err := s.repo.Get(ctx, id); err != nil {
		return false, err
	}

	target, ok := Transition(ev.ProviderStatus, s.failureStatuses)
	if !ok {
		s.logEvent(ctx, id, events.TypeStatusCallback, "ignored status: "+ev.ProviderStatus)
		return false, nil
	}

	// A completed callback must carry the recording reference; completing
	// without one would leave a COMPLETE recording with no playable media
	// and burn the first-completed-wins slot. Acknowledge and ignore.
	if target == StatusComplete && ev.ProviderRecordingID == "" {
		s.logEvent(ctx, id, events.TypeStatusCallback, "completed callback without recording reference ignored")
		return false, nil
	}

	var applied bool
	var err error
	switch target {
	case StatusComplete:
		applied, err = s.repo.Complete(ctx, id, ev.ProviderRecordingID)
		if err == nil && applied {
			s.logEvent(ctx, id, events.TypeRecordingCompleted, "recording completed: "+ev.ProviderRecordingID)
		}
	case StatusFailed:
		applied, err = s.repo.Fail(ctx, id, ev.ProviderStatus)
		if err == nil && applied {
			s.logEvent(ctx, id, events.TypeRecordingFailed, "recording failed: "+ev.ProviderStatus)
		}
	}
	if err != nil {
		return false, err
	}
	if !applied {
		s.logEvent(ctx, id, events.TypeStatusCallback, "late or duplicate callback: "+ev.ProviderStatus)
	}
	return applied, nil
}

// PlaybackURL derives the media URL for a completed recording. Defined if and
// only if the recording is COMPLETE.
func (s *Service) PlaybackURL(rec Recording) (string, bool) {
	if rec.Status != StatusComplete || rec.ProviderRecordingID == "" || s.mediaURL == nil {
		return "", false
	}
	return s.mediaURL(rec.ProviderRecordingID), true
}

func (s *Service) logEvent(ctx context.Context, recordingID string, typ events.Type, message string) {
	if s.eventLog == nil {
		return
	}
	_ = s.eventLog.Append(ctx, events.Event{
		RecordingID: recordingID,
		Type:        typ,
		Message:     message,
	})
}
