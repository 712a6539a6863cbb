package events

import (
	"context"
	"testing"
)

func TestService_AppendRequiresRecordingAndType(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.Append(context.Background(), Event{Type: TypeRecordingCreated}); err == nil {
		t.Fatalf("expected error")
	}
	if err := svc.Append(context.Background(), Event{RecordingID: "r1"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestService_AppendFillsIDAndTimestamp(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	err := svc.Append(context.Background(), Event{RecordingID: "r1", Type: TypeCallPlaced, Message: "call placed: CA1"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event")
	}
	if evs[0].ID == "" {
		t.Fatalf("expected generated id")
	}
	if evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected created_at")
	}
}

func TestService_HistoryIsScopedToRecording(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	_ = svc.Append(context.Background(), Event{RecordingID: "r1", Type: TypeRecordingCreated})
	_ = svc.Append(context.Background(), Event{RecordingID: "r2", Type: TypeRecordingCreated})
	_ = svc.Append(context.Background(), Event{RecordingID: "r1", Type: TypeRecordingCompleted})

	evs, err := svc.History(context.Background(), "r1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evs))
	}
}
