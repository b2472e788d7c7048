package attendance

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrMissingIdentity is returned for records without an ID or name.
	ErrMissingIdentity = errors.New("record has no identity")
	// ErrDuplicateIdentity is returned when two records share the same ID.
	ErrDuplicateIdentity = errors.New("duplicate record identity")
)

// Snapshot is the immutable set of records observed at one poll tick.
type Snapshot struct {
	// TakenAt is when the snapshot was captured.
	TakenAt time.Time

	records map[string]Record
}

// NewSnapshot builds a snapshot from the records returned by the store.
// It rejects malformed input instead of guessing identities.
func NewSnapshot(takenAt time.Time, records []Record) (Snapshot, error) {
	byID := make(map[string]Record, len(records))

	for i := range records {
		record := records[i]
		if record.ID == "" || record.Name == "" {
			return Snapshot{}, fmt.Errorf("record #%d: %w", i, ErrMissingIdentity)
		}

		if _, ok := byID[record.ID]; ok {
			return Snapshot{}, fmt.Errorf("record %q: %w", record.ID, ErrDuplicateIdentity)
		}

		byID[record.ID] = record
	}

	return Snapshot{
		TakenAt: takenAt,
		records: byID,
	}, nil
}

// Len returns the number of records in the snapshot.
func (s Snapshot) Len() int {
	return len(s.records)
}

// Get returns the record with the given identity.
func (s Snapshot) Get(id string) (Record, bool) {
	record, ok := s.records[id]

	return record, ok
}

// IDs returns record identities in ascending order.
func (s Snapshot) IDs() []string {
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}
