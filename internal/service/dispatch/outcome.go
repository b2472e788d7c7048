package dispatch

import (
	"errors"
	"time"

	"github.com/oshokin/attendance-notifier/internal/config"
	"github.com/oshokin/attendance-notifier/internal/provider"
	"github.com/oshokin/attendance-notifier/internal/service/render"
)

// Status is the result of one delivery attempt.
type Status string

const (
	// StatusDelivered means the provider accepted the message.
	StatusDelivered Status = "delivered"
	// StatusFailed means the provider call failed.
	StatusFailed Status = "failed"
	// StatusNoRecipient means the record has no phone and nothing was sent.
	StatusNoRecipient Status = "no_recipient"
)

// Trigger tells what started a delivery.
type Trigger string

const (
	// TriggerTransition is a delivery caused by the poll loop.
	TriggerTransition Trigger = "transition"
	// TriggerManual is a delivery requested by an operator.
	TriggerManual Trigger = "manual"
)

// Outcome describes one delivery attempt.
type Outcome struct {
	ID       string              `json:"id"`
	RecordID string              `json:"record_id"`
	Name     string              `json:"name"`
	Phone    string              `json:"phone"`
	Kind     string              `json:"kind"`
	Trigger  Trigger             `json:"trigger"`
	Status   Status              `json:"status"`
	Provider config.ProviderKind `json:"provider"`
	Message  string              `json:"message"`
	Detail   string              `json:"detail,omitempty"`
	At       time.Time           `json:"at"`
	// Err is the classified failure, nil unless Status is StatusFailed.
	Err error `json:"-"`
}

// ErrorKind labels an error for logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, provider.ErrProviderAuth):
		return "provider_auth"
	case errors.Is(err, provider.ErrProviderUnavailable):
		return "provider_unavailable"
	case errors.Is(err, provider.ErrProviderTransport):
		return "provider_transport"
	case errors.Is(err, render.ErrInvalidRequest):
		return "invalid_request"
	default:
		return "unknown"
	}
}
