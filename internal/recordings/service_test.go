package recordings

import (
	"context"
	"errors"
	"testing"

	"voice-recorder/internal/events"
)

func newTestService() (*Service, *MemoryRepo, *events.MemoryRepo) {
	repo := NewMemoryRepo()
	evRepo := events.NewMemoryRepo()
	svc := NewService(repo, events.NewService(evRepo), ServiceConfig{
		MediaURL: func(sid string) string { return "https://media.example/" + sid + ".mp3" },
	})
	return svc, repo, evRepo
}

func TestCreate_StartsInProgressWithRawNumber(t *testing.T) {
	svc, _, evRepo := newTestService()

	rec, err := svc.Create(context.Background(), "123-456-7890")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if rec.ID == "" {
		t.Fatalf("expected generated id")
	}
	if rec.Status != StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %q", rec.Status)
	}
	if rec.PhoneNumber != "123-456-7890" {
		t.Fatalf("expected raw number stored verbatim, got %q", rec.PhoneNumber)
	}
	if rec.ProviderRecordingID != "" {
		t.Fatalf("expected empty provider recording id")
	}
	if len(evRepo.Events()) != 1 {
		t.Fatalf("expected a created event")
	}
}

func TestCreate_RejectsInvalidNumberBeforePersisting(t *testing.T) {
	svc, repo, _ := newTestService()

	_, err := svc.Create(context.Background(), "555-12")
	if !errors.Is(err, ErrInvalidPhoneNumber) {
		t.Fatalf("expected ErrInvalidPhoneNumber, got %v", err)
	}
	if len(repo.rows) != 0 {
		t.Fatalf("expected no entity created")
	}
}

func TestApplyStatusEvent_CompletedTransitionsAndIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService()
	rec, _ := svc.Create(context.Background(), "123-456-7890")

	applied, err := svc.ApplyStatusEvent(context.Background(), rec.ID, StatusEvent{ProviderStatus: "completed", ProviderRecordingID: "RS1"})
	if err != nil || !applied {
		t.Fatalf("expected applied transition, got applied=%v err=%v", applied, err)
	}

	got, _ := svc.Get(context.Background(), rec.ID)
	if got.Status != StatusComplete || got.ProviderRecordingID != "RS1" {
		t.Fatalf("unexpected state: %+v", got)
	}

	// Duplicate delivery with a different reference must not overwrite.
	applied, err = svc.ApplyStatusEvent(context.Background(), rec.ID, StatusEvent{ProviderStatus: "completed", ProviderRecordingID: "RS2"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if applied {
		t.Fatalf("expected duplicate to be a no-op")
	}
	got, _ = svc.Get(context.Background(), rec.ID)
	if got.ProviderRecordingID != "RS1" {
		t.Fatalf("duplicate callback overwrote reference: %q", got.ProviderRecordingID)
	}
}

func TestApplyStatusEvent_CompletedWithoutReferenceIsIgnored(t *testing.T) {
	svc, _, _ := newTestService()
	rec, _ := svc.Create(context.Background(), "123-456-7890")

	// A completed callback missing the recording reference must not produce
	// a COMPLETE entity with nothing to play back.
	applied, err := svc.ApplyStatusEvent(context.Background(), rec.ID, StatusEvent{ProviderStatus: "completed"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if applied {
		t.Fatalf("expected completed callback without reference to be ignored")
	}
	got, _ := svc.Get(context.Background(), rec.ID)
	if got.Status != StatusInProgress || got.ProviderRecordingID != "" {
		t.Fatalf("unexpected state: %+v", got)
	}

	// A later well-formed delivery still transitions.
	applied, err = svc.ApplyStatusEvent(context.Background(), rec.ID, StatusEvent{ProviderStatus: "completed", ProviderRecordingID: "RS1"})
	if err != nil || !applied {
		t.Fatalf("expected transition, applied=%v err=%v", applied, err)
	}
	got, _ = svc.Get(context.Background(), rec.ID)
	if got.Status != StatusComplete || got.ProviderRecordingID != "RS1" {
		t.Fatalf("unexpected state: %+v", got)
	}
}

func TestApplyStatusEvent_TerminalStatesAreSticky(t *testing.T) {
	svc, _, _ := newTestService()

	// FAILED stays FAILED on a late completed callback.
	rec, _ := svc.Create(context.Background(), "123-456-7890")
	if _, err := svc.ApplyStatusEvent(context.Background(), rec.ID, StatusEvent{ProviderStatus: "failed"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	applied, err := svc.ApplyStatusEvent(context.Background(), rec.ID, StatusEvent{ProviderStatus: "completed", ProviderRecordingID: "RS9"})
	if err != nil || applied {
		t.Fatalf("expected no-op on FAILED entity, applied=%v err=%v", applied, err)
	}
	got, _ := svc.Get(context.Background(), rec.ID)
	if got.Status != StatusFailed || got.ProviderRecordingID != "" {
		t.Fatalf("unexpected state: %+v", got)
	}

	// COMPLETE stays COMPLETE on a late failure callback.
	rec2, _ := svc.Create(context.Background(), "123-456-7890")
	_, _ = svc.ApplyStatusEvent(context.Background(), rec2.ID, StatusEvent{ProviderStatus: "completed", ProviderRecordingID: "RS1"})
	applied, err = svc.ApplyStatusEvent(context.Background(), rec2.ID, StatusEvent{ProviderStatus: "failed"})
	if err != nil || applied {
		t.Fatalf("expected no-op on COMPLETE entity, applied=%v err=%v", applied, err)
	}
	got, _ = svc.Get(context.Background(), rec2.ID)
	if got.Status != StatusComplete {
		t.Fatalf("unexpected state: %+v", got)
	}
}

func TestApplyStatusEvent_IntermediateStatusIsNoOp(t *testing.T) {
	svc, _, _ := newTestService()
	rec, _ := svc.Create(context.Background(), "123-456-7890")

	applied, err := svc.ApplyStatusEvent(context.Background(), rec.ID, StatusEvent{ProviderStatus: "in-progress"})
	if err != nil || applied {
		t.Fatalf("expected no-op, applied=%v err=%v", applied, err)
	}
	got, _ := svc.Get(context.Background(), rec.ID)
	if got.Status != StatusInProgress || got.ProviderRecordingID != "" {
		t.Fatalf("unexpected state: %+v", got)
	}
}

func TestApplyStatusEvent_UnknownRecording(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.ApplyStatusEvent(context.Background(), "nope", StatusEvent{ProviderStatus: "completed", ProviderRecordingID: "RS1"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordCallPlaced_SetAtMostOnce(t *testing.T) {
	svc, _, evRepo := newTestService()
	rec, _ := svc.Create(context.Background(), "123-456-7890")

	if err := svc.RecordCallPlaced(context.Background(), rec.ID, "CA1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := svc.RecordCallPlaced(context.Background(), rec.ID, "CA2"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	got, _ := svc.Get(context.Background(), rec.ID)
	if got.ProviderCallID != "CA1" {
		t.Fatalf("expected first call id to stick, got %q", got.ProviderCallID)
	}

	placed := 0
	for _, e := range evRepo.Events() {
		if e.Type == events.TypeCallPlaced {
			placed++
		}
	}
	if placed != 1 {
		t.Fatalf("expected one call-placed event, got %d", placed)
	}
}

func TestRecordPlacementFailure_MarksFailedWithReason(t *testing.T) {
	svc, _, _ := newTestService()
	rec, _ := svc.Create(context.Background(), "123-456-7890")

	if err := svc.RecordPlacementFailure(context.Background(), rec.ID, "call_placement_failed"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	got, _ := svc.Get(context.Background(), rec.ID)
	if got.Status != StatusFailed || got.FailureReason != "call_placement_failed" {
		t.Fatalf("unexpected state: %+v", got)
	}
}

func TestPlaybackURL_DefinedOnlyWhenComplete(t *testing.T) {
	svc, _, _ := newTestService()
	rec, _ := svc.Create(context.Background(), "123-456-7890")

	if _, ok := svc.PlaybackURL(rec); ok {
		t.Fatalf("expected no playback url for IN_PROGRESS")
	}

	_, _ = svc.ApplyStatusEvent(context.Background(), rec.ID, StatusEvent{ProviderStatus: "completed", ProviderRecordingID: "RS1"})
	got, _ := svc.Get(context.Background(), rec.ID)
	url, ok := svc.PlaybackURL(got)
	if !ok || url != "https://media.example/RS1.mp3" {
		t.Fatalf("unexpected playback url: %q ok=%v", url, ok)
	}
}
