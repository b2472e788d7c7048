package server

import (
	"context"
	"fmt"
	"strings"
	"sync"

	api "github.com/oshokin/attendance-notifier/internal/api/http/attendance"
	domain "github.com/oshokin/attendance-notifier/internal/domain/attendance"
	"github.com/oshokin/attendance-notifier/internal/logger"
	"github.com/oshokin/attendance-notifier/internal/repository/roster"
	"github.com/oshokin/attendance-notifier/internal/service/dispatch"
	"github.com/oshokin/attendance-notifier/internal/service/render"
)

// service implements the operator API on top of the roster and the dispatcher.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	// store is the roster adapter.
	store roster.Editor
	// dispatcher sends manual messages and keeps the delivery history.
	dispatcher *dispatch.Dispatcher
	// academy is inserted into notification previews.
	academy string
	// notifies reports whether a poll loop runs in this process.
	notifies bool
	// mu serialises lookup-then-write sequences of this process.
	mu sync.Mutex
}

// newService creates a service backed by the provided roster and dispatcher.
// Presence changes return a notification preview only when notifies is set.
func newService(store roster.Editor, dispatcher *dispatch.Dispatcher, academy string, notifies bool) *service {
	return &service{
		store:      store,
		dispatcher: dispatcher,
		academy:    academy,
		notifies:   notifies,
	}
}

// ListStudents returns the roster.
func (s *service) ListStudents(ctx context.Context) ([]domain.Record, error) {
	return s.store.Fetch(ctx)
}

// AddStudent appends a record in the CheckedOut state.
func (s *service) AddStudent(ctx context.Context, name, phone, paymentDate string) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.store.Add(ctx, strings.TrimSpace(name), strings.TrimSpace(phone), strings.TrimSpace(paymentDate))
	if err != nil {
		return domain.Record{}, err
	}

	logger.InfoKV(ctx, "Student added", "record_id", record.ID)

	return record, nil
}

// DeleteStudent removes the record at row.
func (s *service) DeleteStudent(ctx context.Context, row int) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.find(ctx, row)
	if err != nil {
		return domain.Record{}, err
	}

	if err := s.store.Delete(ctx, record.ID); err != nil {
		return domain.Record{}, err
	}

	logger.InfoKV(ctx, "Student deleted", "record_id", record.ID)

	return record, nil
}

// SetPresence writes a check-in or check-out. The notification itself is
// sent by the poll loop when it observes the change, so a status written here
// and one written by hand in the roster are handled the same way.
func (s *service) SetPresence(ctx context.Context, row int, status domain.Status) (domain.Record, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.find(ctx, row)
	if err != nil {
		return domain.Record{}, "", err
	}

	if record.Status == status {
		return domain.Record{}, "", fmt.Errorf("%s is %s: %w", record.ID, status.Label(), api.ErrAlreadyInState)
	}

	if err := s.store.SetStatus(ctx, record.ID, status); err != nil {
		return domain.Record{}, "", err
	}

	record.Status = status

	logger.InfoKV(ctx, "Presence updated", "record_id", record.ID, "status", status.Label())

	if !s.notifies {
		return record, "", nil
	}

	kind := render.ManualCheckOut
	if status == domain.CheckedIn {
		kind = render.ManualCheckIn
	}

	return record, render.RenderManual(kind, record, s.academy, ""), nil
}

// SetPaymentDate sets or clears the payment date.
func (s *service) SetPaymentDate(ctx context.Context, row int, paymentDate string) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.find(ctx, row)
	if err != nil {
		return domain.Record{}, err
	}

	if err := s.store.SetPaymentDate(ctx, record.ID, paymentDate); err != nil {
		return domain.Record{}, err
	}

	record.PaymentDate = paymentDate

	logger.InfoKV(ctx, "Payment date updated", "record_id", record.ID, "payment_date", paymentDate)

	return record, nil
}

// SetPhone replaces the phone number.
func (s *service) SetPhone(ctx context.Context, row int, phone string) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.find(ctx, row)
	if err != nil {
		return domain.Record{}, err
	}

	if err := s.store.SetPhone(ctx, record.ID, phone); err != nil {
		return domain.Record{}, err
	}

	record.Phone = phone

	logger.InfoKV(ctx, "Phone updated", "record_id", record.ID)

	return record, nil
}

// SendMessage sends an operator-requested message synchronously.
func (s *service) SendMessage(
	ctx context.Context,
	row int,
	kind render.ManualKind,
	override string,
) (domain.Record, dispatch.Outcome, error) {
	record, err := s.lookup(ctx, row)
	if err != nil {
		return domain.Record{}, dispatch.Outcome{}, err
	}

	if !record.HasPhone() {
		return domain.Record{}, dispatch.Outcome{}, fmt.Errorf("%s: %w", record.ID, api.ErrNoRecipient)
	}

	return record, s.dispatcher.SendManual(ctx, kind, record, override), nil
}

// Deliveries returns the recent dispatch outcomes.
func (s *service) Deliveries(context.Context) []dispatch.Outcome {
	return s.dispatcher.Recent()
}

// lookup finds a record and releases the lock before any provider call.
func (s *service) lookup(ctx context.Context, row int) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.find(ctx, row)
}

// find returns the record at row. Callers hold s.mu.
func (s *service) find(ctx context.Context, row int) (domain.Record, error) {
	records, err := s.store.Fetch(ctx)
	if err != nil {
		return domain.Record{}, err
	}

	for _, record := range records {
		if record.Row == row {
			return record, nil
		}
	}

	return domain.Record{}, fmt.Errorf("row %d: %w", row, roster.ErrNotFound)
}
