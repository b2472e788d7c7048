package roster

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/attendance-notifier/internal/config"
	domain "github.com/oshokin/attendance-notifier/internal/domain/attendance"
)

// Store is the record store contract used by the monitor and the API.
type Store interface {
	// Fetch returns all records in a stable order.
	Fetch(ctx context.Context) ([]domain.Record, error)
	// SetStatus writes the status of one record.
	SetStatus(ctx context.Context, id string, status domain.Status) error
}

// Editor extends Store with the roster maintenance operations of the API.
type Editor interface {
	Store

	// Add appends a new record in the CheckedOut state.
	Add(ctx context.Context, name, phone, paymentDate string) (domain.Record, error)
	// SetPhone replaces the phone number of a record.
	SetPhone(ctx context.Context, id, phone string) error
	// SetPaymentDate sets or clears the payment date of a record.
	SetPaymentDate(ctx context.Context, id, paymentDate string) error
	// Delete removes a record.
	Delete(ctx context.Context, id string) error
	// Close releases resources held by the store.
	Close() error
}

var (
	// ErrNotFound is returned when no record has the requested identity.
	ErrNotFound = errors.New("record not found")
	// ErrStoreWrite wraps every failed write to the record store.
	ErrStoreWrite = errors.New("record store write failed")
	// errNameRequired is returned when adding a record without a name.
	errNameRequired = errors.New("name is required")
)

// Open builds the adapter selected in the configuration.
//
//nolint:ireturn // Callers pick behaviour through configuration only.
func Open(cfg config.Roster) (Editor, error) {
	switch cfg.Driver {
	case config.RosterDriverSQLite:
		return NewSQLiteRepository(cfg.Path)
	case config.RosterDriverFile, "":
		return NewFileRepository(cfg.Path), nil
	default:
		return nil, fmt.Errorf("%w: unknown roster driver %q", config.ErrInvalidConfiguration, cfg.Driver)
	}
}

// writeError wraps a low-level failure into ErrStoreWrite.
func writeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreWrite, err)
}
