package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/oshokin/attendance-notifier/internal/domain/attendance"
	"github.com/oshokin/attendance-notifier/internal/logger"
	"github.com/oshokin/attendance-notifier/internal/metrics"
	"github.com/oshokin/attendance-notifier/internal/provider"
	"github.com/oshokin/attendance-notifier/internal/service/render"
)

// defaultHistorySize is how many outcomes Recent returns at most.
const defaultHistorySize = 200

// Dispatcher sends notifications through one provider.
// It is safe for concurrent use by the poll loop and the HTTP API.
type Dispatcher struct {
	sender   provider.Sender
	academy  string
	recorder metrics.Recorder
	now      func() time.Time
	limit    int

	mu      sync.Mutex
	history []Outcome
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder metrics.Recorder) Option {
	return func(d *Dispatcher) {
		if recorder != nil {
			d.recorder = recorder
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// WithHistorySize bounds the outcome history.
func WithHistorySize(size int) Option {
	return func(d *Dispatcher) {
		if size > 0 {
			d.limit = size
		}
	}
}

// New creates a dispatcher for the academy.
func New(sender provider.Sender, academy string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sender:   sender,
		academy:  academy,
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
		limit:    defaultHistorySize,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Dispatch notifies every transition in order. Records are looked up in the
// snapshot the transitions were computed from. A failed delivery does not
// stop the ones after it.
func (d *Dispatcher) Dispatch(ctx context.Context, events []domain.Transition, snapshot domain.Snapshot) []Outcome {
	outcomes := make([]Outcome, 0, len(events))

	for _, event := range events {
		record, ok := snapshot.Get(event.ID)
		if !ok {
			logger.WarnKV(ctx, "transition without record", "record_id", event.ID)

			continue
		}

		text := render.Render(event, record, d.academy)
		outcomes = append(outcomes, d.deliver(ctx, record, string(event.Direction()), TriggerTransition, text))
	}

	return outcomes
}

// SendManual renders and sends an operator-requested message.
func (d *Dispatcher) SendManual(
	ctx context.Context,
	kind render.ManualKind,
	record domain.Record,
	override string,
) Outcome {
	text := render.RenderManual(kind, record, d.academy, override)
	if text == "" {
		err := fmt.Errorf("%w: unknown message type %q", render.ErrInvalidRequest, kind)

		return d.finish(ctx, Outcome{
			RecordID: record.ID,
			Name:     record.Name,
			Phone:    record.Phone,
			Kind:     string(kind),
			Trigger:  TriggerManual,
			Status:   StatusFailed,
			Provider: d.sender.Kind(),
			Detail:   err.Error(),
			Err:      err,
		}, 0)
	}

	return d.deliver(ctx, record, string(kind), TriggerManual, text)
}

// Recent returns the latest outcomes, newest first.
func (d *Dispatcher) Recent() []Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Outcome, len(d.history))
	for i, outcome := range d.history {
		out[len(d.history)-1-i] = outcome
	}

	return out
}

func (d *Dispatcher) deliver(
	ctx context.Context,
	record domain.Record,
	kind string,
	trigger Trigger,
	text string,
) Outcome {
	outcome := Outcome{
		RecordID: record.ID,
		Name:     record.Name,
		Phone:    record.Phone,
		Kind:     kind,
		Trigger:  trigger,
		Provider: d.sender.Kind(),
		Message:  text,
	}

	if !record.HasPhone() {
		outcome.Status = StatusNoRecipient
		outcome.Detail = "no phone number"

		return d.finish(ctx, outcome, 0)
	}

	started := d.now()
	result := d.sender.Send(ctx, provider.Message{
		Phone:         record.Phone,
		Text:          text,
		RecipientName: record.Name,
	})
	elapsed := d.now().Sub(started)

	outcome.Provider = result.Provider
	outcome.Detail = result.Detail

	if result.Success {
		outcome.Status = StatusDelivered
	} else {
		outcome.Status = StatusFailed
		outcome.Err = result.Err
	}

	return d.finish(ctx, outcome, elapsed)
}

// finish stamps, logs, records and remembers an outcome.
func (d *Dispatcher) finish(ctx context.Context, outcome Outcome, elapsed time.Duration) Outcome {
	outcome.ID = uuid.NewString()
	outcome.At = d.now()

	kvs := []any{
		"outcome_id", outcome.ID,
		"record_id", outcome.RecordID,
		"kind", outcome.Kind,
		"trigger", outcome.Trigger,
		"provider", outcome.Provider,
		"at", outcome.At,
	}

	switch outcome.Status {
	case StatusDelivered:
		logger.InfoKV(ctx, "notification delivered", kvs...)
	case StatusNoRecipient:
		logger.InfoKV(ctx, "notification skipped: no recipient", kvs...)
	default:
		logger.ErrorKV(ctx, "notification failed",
			append(kvs, "error_kind", ErrorKind(outcome.Err), "error", outcome.Err)...)
	}

	d.recorder.ObserveDelivery(string(outcome.Provider), string(outcome.Status), elapsed)

	d.mu.Lock()
	d.history = append(d.history, outcome)

	if over := len(d.history) - d.limit; over > 0 {
		d.history = append(d.history[:0:0], d.history[over:]...)
	}
	d.mu.Unlock()

	return outcome
}
