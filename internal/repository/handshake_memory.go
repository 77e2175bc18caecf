package repository

import (
	"context"
	"sync"
	"time"

	"github.com/maheshrc27/social-link-api/internal/models"
)

type memoryHandshakeRepository struct {
	mu      sync.Mutex
	records map[string]models.HandshakeRecord
}

// NewMemoryHandshakeRepository returns a process-local correlation store.
// It only works for a single server instance.
func NewMemoryHandshakeRepository() HandshakeRepository {
	return &memoryHandshakeRepository{records: make(map[string]models.HandshakeRecord)}
}

func (r *memoryHandshakeRepository) Create(_ context.Context, rec *models.HandshakeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[rec.StateToken]; ok {
		return ErrHandshakeExists
	}

	stored := *rec
	stored.ConsumedAt = nil
	r.records[rec.StateToken] = stored
	return nil
}

func (r *memoryHandshakeRepository) Claim(_ context.Context, stateToken string, now time.Time) (*models.HandshakeRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[stateToken]
	if !ok || rec.Expired(now) {
		return nil, ErrHandshakeNotFound
	}
	if rec.Consumed() {
		return nil, ErrHandshakeConsumed
	}

	consumedAt := now
	rec.ConsumedAt = &consumedAt
	r.records[stateToken] = rec

	out := rec
	return &out, nil
}

func (r *memoryHandshakeRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for token, rec := range r.records {
		if rec.Expired(now) {
			delete(r.records, token)
			n++
		}
	}
	return n, nil
}
