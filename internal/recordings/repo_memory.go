package recordings

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory recording repository for tests and early
// development. It enforces the same transition rule as the SQL repository:
// terminal updates only apply to IN_PROGRESS rows, under a single lock.

type MemoryRepo struct {
	mu   sync.Mutex
	rows map[string]Recording
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{rows: map[string]Recording{}} }

func (r *MemoryRepo) Create(ctx context.Context, rec Recording) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[rec.ID] = rec
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[id]
	if !ok {
		return Recording{}, ErrNotFound
	}
	return rec, nil
}

func (r *MemoryRepo) SetProviderCallID(ctx context.Context, id, providerCallID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[id]
	if !ok {
		return false, ErrNotFound
	}
	if rec.ProviderCallID != "" {
		return false, nil
	}
	rec.ProviderCallID = providerCallID
	r.rows[id] = rec
	return true, nil
}

func (r *MemoryRepo) Complete(ctx context.Context, id, providerRecordingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[id]
	if !ok {
		return false, ErrNotFound
	}
	if rec.Status != StatusInProgress {
		return false, nil
	}
	rec.Status = StatusComplete
	rec.ProviderRecordingID = providerRecordingID
	r.rows[id] = rec
	return true, nil
}

func (r *MemoryRepo) Fail(ctx context.Context, id, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[id]
	if !ok {
		return false, ErrNotFound
	}
	if rec.Status != StatusInProgress {
		return false, nil
	}
	rec.Status = StatusFailed
	rec.FailureReason = reason
	r.rows[id] = rec
	return true, nil
}
