package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "github.com/oshokin/attendance-notifier/internal/domain/attendance"
	"github.com/oshokin/attendance-notifier/internal/repository/roster"
)

// ErrStoreRead is returned when the roster cannot be read or is malformed.
var ErrStoreRead = errors.New("record store read failed")

// SnapshotStore keeps the last successfully read roster snapshot.
type SnapshotStore struct {
	store roster.Store
	now   func() time.Time

	mu   sync.Mutex
	last domain.Snapshot
	has  bool
}

// NewSnapshotStore wraps a record store. A nil clock means time.Now.
func NewSnapshotStore(store roster.Store, now func() time.Time) *SnapshotStore {
	if now == nil {
		now = time.Now
	}

	return &SnapshotStore{store: store, now: now}
}

// Refresh reads the roster and makes the result the last known snapshot.
// On failure the previous snapshot is kept.
func (s *SnapshotStore) Refresh(ctx context.Context) (domain.Snapshot, error) {
	records, err := s.store.Fetch(ctx)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}

	snapshot, err := domain.NewSnapshot(s.now(), records)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %w", ErrStoreRead, err)
	}

	s.mu.Lock()
	s.last, s.has = snapshot, true
	s.mu.Unlock()

	return snapshot, nil
}

// Last returns the last known snapshot, if any read has succeeded yet.
func (s *SnapshotStore) Last() (domain.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.last, s.has
}
