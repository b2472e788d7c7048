// Package render turns transitions and operator requests into message text.
package render

import (
	"errors"
	"fmt"
	"strings"

	domain "github.com/oshokin/attendance-notifier/internal/domain/attendance"
)

// ManualKind is the message type an operator can send by hand.
type ManualKind string

const (
	// ManualCheckIn resends the check-in notice.
	ManualCheckIn ManualKind = "checkin"
	// ManualCheckOut resends the check-out notice.
	ManualCheckOut ManualKind = "checkout"
	// ManualPaymentRequest asks the family to pay tuition.
	ManualPaymentRequest ManualKind = "payment_request"
)

// ErrInvalidRequest is returned for manual requests the renderer cannot serve.
var ErrInvalidRequest = errors.New("invalid request")

const (
	checkInTemplate  = `"%s"님이 "%s"에 등원하였습니다.`
	checkOutTemplate = `"%s"님이 "%s"에서 하원하였습니다.`
	paymentTemplate  = "안녕하세요, %s입니다.\n%s님의 이번 달 원비 납입을 부탁드립니다."
)

// ParseManualKind validates the kind sent by a caller.
func ParseManualKind(raw string) (ManualKind, error) {
	kind := ManualKind(strings.ToLower(strings.TrimSpace(raw)))

	switch kind {
	case ManualCheckIn, ManualCheckOut, ManualPaymentRequest:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: unknown message type %q", ErrInvalidRequest, raw)
	}
}

// Render builds the notification for an observed transition.
func Render(event domain.Transition, record domain.Record, academy string) string {
	if event.Direction() == domain.DirectionCheckIn {
		return fmt.Sprintf(checkInTemplate, record.Name, academy)
	}

	return fmt.Sprintf(checkOutTemplate, record.Name, academy)
}

// RenderManual builds an operator-triggered message.
// The override is only honoured for payment requests; an unknown kind renders
// nothing since callers validate kinds with ParseManualKind first.
func RenderManual(kind ManualKind, record domain.Record, academy, override string) string {
	switch kind {
	case ManualCheckIn:
		return fmt.Sprintf(checkInTemplate, record.Name, academy)
	case ManualCheckOut:
		return fmt.Sprintf(checkOutTemplate, record.Name, academy)
	case ManualPaymentRequest:
		if strings.TrimSpace(override) != "" {
			return override
		}

		return fmt.Sprintf(paymentTemplate, academy, record.Name)
	default:
		return ""
	}
}
