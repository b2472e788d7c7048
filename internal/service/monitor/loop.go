package monitor

import (
	"context"
	"time"

	domain "github.com/oshokin/attendance-notifier/internal/domain/attendance"
	"github.com/oshokin/attendance-notifier/internal/logger"
	"github.com/oshokin/attendance-notifier/internal/metrics"
	"github.com/oshokin/attendance-notifier/internal/repository/roster"
	"github.com/oshokin/attendance-notifier/internal/service/dispatch"
)

// Ticker delivers poll ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	*time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.Ticker.C
}

// NewTicker returns a Ticker backed by time.Ticker.
//
//nolint:ireturn // Tests substitute their own ticker.
func NewTicker(interval time.Duration) Ticker {
	return timeTicker{time.NewTicker(interval)}
}

// Notifier delivers the transitions of one tick.
type Notifier interface {
	Dispatch(ctx context.Context, events []domain.Transition, snapshot domain.Snapshot) []dispatch.Outcome
}

// Loop runs poll ticks: refresh, diff and dispatch.
type Loop struct {
	snapshots *SnapshotStore
	notifier  Notifier
	recorder  metrics.Recorder
}

// LoopOption configures a Loop.
type LoopOption func(*loopOptions)

type loopOptions struct {
	recorder metrics.Recorder
	now      func() time.Time
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder metrics.Recorder) LoopOption {
	return func(o *loopOptions) {
		if recorder != nil {
			o.recorder = recorder
		}
	}
}

// WithClock replaces time.Now for snapshot timestamps.
func WithClock(now func() time.Time) LoopOption {
	return func(o *loopOptions) {
		o.now = now
	}
}

// NewLoop creates a loop over the store.
func NewLoop(store roster.Store, notifier Notifier, opts ...LoopOption) *Loop {
	o := &loopOptions{recorder: metrics.NoopRecorder{}}

	for _, opt := range opts {
		opt(o)
	}

	return &Loop{
		snapshots: NewSnapshotStore(store, o.now),
		notifier:  notifier,
		recorder:  o.recorder,
	}
}

// Snapshots exposes the loop's snapshot store.
func (l *Loop) Snapshots() *SnapshotStore {
	return l.snapshots
}

// Tick runs one poll cycle. A read error skips the tick and keeps the
// previous snapshot as the baseline for the next one.
func (l *Loop) Tick(ctx context.Context) ([]dispatch.Outcome, error) {
	previous, hasPrevious := l.snapshots.Last()

	current, err := l.snapshots.Refresh(ctx)
	if err != nil {
		l.recorder.IncTick(metrics.TickStoreError)
		logger.ErrorKV(ctx, "Roster read failed, tick skipped", "error_kind", "store_read", "error", err)

		return nil, err
	}

	if !hasPrevious {
		l.recorder.IncTick(metrics.TickBaseline)
		logger.InfoKV(ctx, "Baseline snapshot taken", "records", current.Len())

		return nil, nil
	}

	l.recorder.IncTick(metrics.TickDiffed)

	events := Diff(previous, current, current.TakenAt)
	if len(events) == 0 {
		return nil, nil
	}

	for _, event := range events {
		l.recorder.IncTransition(string(event.Direction()))
		logger.InfoKV(ctx, "Transition detected",
			"record_id", event.ID,
			"direction", event.Direction(),
			"observed_at", event.ObservedAt,
		)
	}

	return l.notifier.Dispatch(ctx, events, current), nil
}

// Run ticks once immediately and then on every ticker fire until ctx is done.
// Cancellation is checked between ticks only; a started tick finishes its
// dispatch sequence.
func (l *Loop) Run(ctx context.Context, ticker Ticker) error {
	defer ticker.Stop()

	l.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")
			return nil
		case <-ticker.C():
			if ctx.Err() != nil {
				logger.Info(ctx, "Context canceled, exiting")
				return nil
			}

			l.tick(ctx)
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	// Errors are already logged and counted by Tick.
	_, _ = l.Tick(context.WithoutCancel(ctx))
}
