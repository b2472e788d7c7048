package metrics

import "time"

// TickResult labels the outcome of one poll tick.
type TickResult string

const (
	// TickBaseline is the first successful read.
	TickBaseline TickResult = "baseline"
	// TickDiffed is a tick that compared two snapshots.
	TickDiffed TickResult = "diffed"
	// TickStoreError is a tick skipped because the roster could not be read.
	TickStoreError TickResult = "store_error"
)

// Recorder collects notifier metrics. Implementations must accept nil receivers.
type Recorder interface {
	IncTick(result TickResult)
	IncTransition(direction string)
	ObserveDelivery(provider, outcome string, d time.Duration)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

// IncTick implements Recorder.
func (NoopRecorder) IncTick(TickResult) {}

// IncTransition implements Recorder.
func (NoopRecorder) IncTransition(string) {}

// ObserveDelivery implements Recorder.
func (NoopRecorder) ObserveDelivery(string, string, time.Duration) {}
