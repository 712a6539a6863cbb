package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for lifecycle events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, e Event) error
	ListByRecording(ctx context.Context, recordingID string) ([]Event, error)
}

// Service records lifecycle events for internal observability.
//
// IMPORTANT:
// - Webhook-path failures are invisible to end users; this log is how they
//   become observable at all.
// - Callers should treat event logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("events: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("events: repository not configured")
	}
	if e.RecordingID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// History returns the recorded lifecycle of one recording, oldest first.
func (s *Service) History(ctx context.Context, recordingID string) ([]Event, error) {
	if recordingID == "" {
		return nil, ErrInvalidEvent
	}
	return s.repo.ListByRecording(ctx, recordingID)
}
