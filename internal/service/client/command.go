package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/oshokin/attendance-notifier/internal/domain/attendance"
	"github.com/oshokin/attendance-notifier/internal/logger"
	"github.com/oshokin/attendance-notifier/internal/repository/roster"
	"github.com/oshokin/attendance-notifier/internal/service/common"
	"github.com/oshokin/attendance-notifier/internal/service/dispatch"
	"github.com/oshokin/attendance-notifier/internal/service/render"
)

// Options configures a manual send.
type Options struct {
	// Runtime configures how components are loaded.
	Runtime common.Options
	// Row is the roster row of the recipient.
	Row int
	// Kind is checkin, checkout or payment_request.
	Kind string
	// Message overrides the payment request text.
	Message string
}

var (
	// errNoPhone is returned when the selected record has no phone number.
	errNoPhone = errors.New("record has no phone number")
	// errDeliveryFailed is returned when the provider did not accept the message.
	errDeliveryFailed = errors.New("delivery failed")
)

// Run sends one manual message. There is no retry: a failed delivery is
// reported and the command exits with an error.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "attendance-send")

	// Reject unknown kinds before touching the roster.
	kind, err := render.ParseManualKind(opts.Kind)
	if err != nil {
		return err
	}

	rt, err := common.Bootstrap(ctx, &opts.Runtime)
	if err != nil {
		return err
	}

	defer func() {
		_ = rt.Close()
	}()

	record, err := findRow(ctx, rt.Roster, opts.Row)
	if err != nil {
		return err
	}

	if !record.HasPhone() {
		return fmt.Errorf("%s: %w", record.Name, errNoPhone)
	}

	outcome := rt.Dispatcher.SendManual(ctx, kind, record, opts.Message)

	logger.Infof(ctx, "Manual message: %s", formatOutcome(outcome))

	if outcome.Status != dispatch.StatusDelivered {
		return fmt.Errorf("%w: %w", errDeliveryFailed, outcome.Err)
	}

	return nil
}

// findRow returns the record shown at row.
func findRow(ctx context.Context, store roster.Store, row int) (domain.Record, error) {
	records, err := store.Fetch(ctx)
	if err != nil {
		return domain.Record{}, fmt.Errorf("read roster: %w", err)
	}

	for _, record := range records {
		if record.Row == row {
			return record, nil
		}
	}

	return domain.Record{}, fmt.Errorf("row %d: %w", row, roster.ErrNotFound)
}

// formatOutcome converts an outcome into a readable log message.
func formatOutcome(outcome dispatch.Outcome) string {
	timestamp := "<unknown>"
	if !outcome.At.IsZero() {
		timestamp = outcome.At.Format(time.RFC3339)
	}

	text := fmt.Sprintf("%s %s to %s via %s (%s)",
		outcome.Kind, outcome.Status, outcome.Name, outcome.Provider, timestamp)

	if outcome.Detail != "" {
		text += ": " + outcome.Detail
	}

	return text
}
