package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/attendance-notifier/internal/config"
	domain "github.com/oshokin/attendance-notifier/internal/domain/attendance"
	"github.com/oshokin/attendance-notifier/internal/provider"
	"github.com/oshokin/attendance-notifier/internal/service/dispatch"
)

// memoryStore is an in-memory roster.Store.
type memoryStore struct {
	mu      sync.Mutex
	records []domain.Record
	err     error
	fetches int
}

func (m *memoryStore) Fetch(context.Context) ([]domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fetches++

	if m.err != nil {
		return nil, m.err
	}

	return append([]domain.Record(nil), m.records...), nil
}

func (m *memoryStore) SetStatus(_ context.Context, id string, status domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.records {
		if m.records[i].ID == id {
			m.records[i].Status = status
			return nil
		}
	}

	return errors.New("not found")
}

func (m *memoryStore) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.err = err
}

func (m *memoryStore) fetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.fetches
}

func rec(row int, name, phone string, status domain.Status) domain.Record {
	return domain.Record{ID: domain.RecordID(row, name), Row: row, Name: name, Phone: phone, Status: status}
}

func snap(t *testing.T, records ...domain.Record) domain.Snapshot {
	t.Helper()

	s, err := domain.NewSnapshot(time.Unix(0, 0), records)
	require.NoError(t, err)

	return s
}

// newTestLoop wires a loop to a test-mode sender.
func newTestLoop(store *memoryStore) (*Loop, *provider.TestMode) {
	sender := provider.NewTestMode(config.MessageKindSMS)

	return NewLoop(store, dispatch.New(sender, "OO학원")), sender
}

// TestDiff_SingleTransitionAndIdempotence checks one check-in and silence on an unchanged re-poll.
func TestDiff_SingleTransitionAndIdempotence(t *testing.T) {
	t.Parallel()

	previous := snap(t, rec(1, "A", "0101", domain.CheckedOut))
	current := snap(t, rec(1, "A", "0101", domain.CheckedIn))
	observed := time.Unix(100, 0)

	events := Diff(previous, current, observed)
	require.Equal(t, []domain.Transition{{
		ID:         "1:A",
		Previous:   domain.CheckedOut,
		Current:    domain.CheckedIn,
		ObservedAt: observed,
	}}, events)
	require.Equal(t, domain.DirectionCheckIn, events[0].Direction())

	require.Empty(t, Diff(current, current, observed))
}

// TestDiff_Deterministic checks that output order follows ascending ids and repeats exactly.
func TestDiff_Deterministic(t *testing.T) {
	t.Parallel()

	previous := snap(t,
		rec(3, "C", "", domain.CheckedIn),
		rec(1, "A", "", domain.CheckedOut),
		rec(2, "B", "", domain.CheckedOut),
	)
	current := snap(t,
		rec(2, "B", "", domain.CheckedIn),
		rec(1, "A", "", domain.CheckedIn),
		rec(3, "C", "", domain.CheckedOut),
	)

	first := Diff(previous, current, time.Unix(1, 0))
	second := Diff(previous, current, time.Unix(1, 0))

	require.Equal(t, first, second)
	require.Len(t, first, 3)
	require.Equal(t, "1:A", first[0].ID)
	require.Equal(t, "2:B", first[1].ID)
	require.Equal(t, "3:C", first[2].ID)
	require.Equal(t, domain.DirectionCheckOut, first[2].Direction())
}

// TestDiff_IgnoresNoise checks appearances, deletions and out-of-range statuses.
func TestDiff_IgnoresNoise(t *testing.T) {
	t.Parallel()

	previous := snap(t,
		rec(1, "Gone", "", domain.CheckedIn),
		rec(2, "Odd", "", domain.Status(7)),
		rec(3, "Back", "", domain.CheckedIn),
	)
	current := snap(t,
		rec(2, "Odd", "", domain.CheckedIn),
		rec(3, "Back", "", domain.Status(2)),
		rec(4, "New", "", domain.CheckedIn),
	)

	require.Empty(t, Diff(previous, current, time.Now()))
}

// TestSnapshotStore_KeepsLastOnError checks the baseline and failure handling.
func TestSnapshotStore_KeepsLastOnError(t *testing.T) {
	t.Parallel()

	store := &memoryStore{records: []domain.Record{rec(1, "A", "0101", domain.CheckedOut)}}
	snapshots := NewSnapshotStore(store, nil)

	_, ok := snapshots.Last()
	require.False(t, ok)

	first, err := snapshots.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first.Len())

	store.setErr(errors.New("sheet unavailable"))

	_, err = snapshots.Refresh(context.Background())
	require.ErrorIs(t, err, ErrStoreRead)

	last, ok := snapshots.Last()
	require.True(t, ok)
	require.Equal(t, first, last)
}

// TestSnapshotStore_RejectsMalformed checks duplicate and missing identities.
func TestSnapshotStore_RejectsMalformed(t *testing.T) {
	t.Parallel()

	store := &memoryStore{records: []domain.Record{rec(1, "A", "", 0), rec(1, "A", "", 1)}}

	_, err := NewSnapshotStore(store, nil).Refresh(context.Background())
	require.ErrorIs(t, err, ErrStoreRead)
	require.ErrorIs(t, err, domain.ErrDuplicateIdentity)

	store = &memoryStore{records: []domain.Record{{Row: 1}}}

	_, err = NewSnapshotStore(store, nil).Refresh(context.Background())
	require.ErrorIs(t, err, domain.ErrMissingIdentity)
}

// TestLoop_CheckInSentExactlyOnce covers an external check-in noticed by the next tick.
func TestLoop_CheckInSentExactlyOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &memoryStore{records: []domain.Record{rec(1, "A", "0101", domain.CheckedOut)}}
	loop, sender := newTestLoop(store)

	outcomes, err := loop.Tick(ctx)
	require.NoError(t, err)
	require.Empty(t, outcomes)

	require.NoError(t, store.SetStatus(ctx, "1:A", domain.CheckedIn))

	outcomes, err = loop.Tick(ctx)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.Equal(t, dispatch.StatusDelivered, outcomes[0].Status)

	for range 3 {
		outcomes, err = loop.Tick(ctx)
		require.NoError(t, err)
		require.Empty(t, outcomes)
	}

	sent := sender.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, "0101", sent[0].Phone)
	require.Contains(t, sent[0].Text, "A")
}

// TestLoop_BaselineIsSilent checks that records already checked in at start are not notified.
func TestLoop_BaselineIsSilent(t *testing.T) {
	t.Parallel()

	store := &memoryStore{records: []domain.Record{rec(1, "A", "0101", domain.CheckedIn)}}
	loop, sender := newTestLoop(store)

	_, err := loop.Tick(context.Background())
	require.NoError(t, err)

	store.records = append(store.records, rec(2, "B", "0202", domain.CheckedIn))

	_, err = loop.Tick(context.Background())
	require.NoError(t, err)
	require.Empty(t, sender.Sent())
}

// TestLoop_EmptyPhone checks that a transition without a phone yields no_recipient and no send.
func TestLoop_EmptyPhone(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &memoryStore{records: []domain.Record{rec(1, "A", "", domain.CheckedIn)}}
	loop, sender := newTestLoop(store)

	_, err := loop.Tick(ctx)
	require.NoError(t, err)
	require.NoError(t, store.SetStatus(ctx, "1:A", domain.CheckedOut))

	outcomes, err := loop.Tick(ctx)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.Equal(t, dispatch.StatusNoRecipient, outcomes[0].Status)
	require.Empty(t, sender.Sent())
}

// TestLoop_ReadErrorSkipsTick checks that a failed read keeps the old baseline.
func TestLoop_ReadErrorSkipsTick(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &memoryStore{records: []domain.Record{rec(1, "A", "0101", domain.CheckedOut)}}
	loop, sender := newTestLoop(store)

	_, err := loop.Tick(ctx)
	require.NoError(t, err)

	require.NoError(t, store.SetStatus(ctx, "1:A", domain.CheckedIn))
	store.setErr(errors.New("timeout"))

	_, err = loop.Tick(ctx)
	require.ErrorIs(t, err, ErrStoreRead)

	store.setErr(nil)

	outcomes, err := loop.Tick(ctx)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.Len(t, sender.Sent(), 1)
}

// manualTicker fires only when the test says so.
type manualTicker struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }

func (m *manualTicker) Stop() {
	m.once.Do(func() { close(m.stopped) })
}

// TestLoop_RunWithInjectedTicker checks the immediate tick, driven ticks and shutdown.
func TestLoop_RunWithInjectedTicker(t *testing.T) {
	t.Parallel()

	store := &memoryStore{records: []domain.Record{rec(1, "A", "0101", domain.CheckedOut)}}
	loop, sender := newTestLoop(store)
	ticker := newManualTicker()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- loop.Run(ctx, ticker)
	}()

	require.Eventually(t, func() bool { return store.fetchCount() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, store.SetStatus(context.Background(), "1:A", domain.CheckedIn))
	ticker.ch <- time.Now()

	require.Eventually(t, func() bool { return len(sender.Sent()) == 1 }, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	<-ticker.stopped
}

// TestLoop_RunRealTicker checks the interval and shutdown with a real ticker on a fake clock.
func TestLoop_RunRealTicker(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		store := &memoryStore{records: []domain.Record{rec(1, "A", "0101", domain.CheckedOut)}}
		loop, _ := newTestLoop(store)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)

		go func() {
			done <- loop.Run(ctx, NewTicker(5*time.Second))
		}()

		time.Sleep(11 * time.Second)
		synctest.Wait()
		require.Equal(t, 3, store.fetchCount())

		cancel()
		synctest.Wait()
		require.NoError(t, <-done)
	})
}
