package monitor

import (
	"time"

	domain "github.com/oshokin/attendance-notifier/internal/domain/attendance"
)

// Diff returns the transitions between two snapshots in ascending id order.
// Records missing from either snapshot and statuses outside the two known
// values never produce a transition.
func Diff(previous, current domain.Snapshot, observedAt time.Time) []domain.Transition {
	var events []domain.Transition

	for _, id := range current.IDs() {
		cur, _ := current.Get(id)

		prev, ok := previous.Get(id)
		if !ok || prev.Status == cur.Status {
			continue
		}

		if !prev.Status.Known() || !cur.Status.Known() {
			continue
		}

		events = append(events, domain.Transition{
			ID:         id,
			Previous:   prev.Status,
			Current:    cur.Status,
			ObservedAt: observedAt,
		})
	}

	return events
}
