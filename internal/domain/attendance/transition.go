package attendance

import "time"

// Direction names the meaning of a transition.
type Direction string

const (
	// DirectionCheckIn is CheckedOut -> CheckedIn.
	DirectionCheckIn Direction = "checkin"
	// DirectionCheckOut is CheckedIn -> CheckedOut.
	DirectionCheckOut Direction = "checkout"
)

// Transition is a status change of one record between two snapshots.
type Transition struct {
	// ID is the identity of the record that changed.
	ID string
	// Previous is the status in the older snapshot.
	Previous Status
	// Current is the status in the newer snapshot.
	Current Status
	// ObservedAt is when the change was noticed.
	ObservedAt time.Time
}

// Direction returns whether the transition is a check-in or a check-out.
func (t Transition) Direction() Direction {
	if t.Current == CheckedIn {
		return DirectionCheckIn
	}

	return DirectionCheckOut
}
