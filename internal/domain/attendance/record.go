package attendance

import (
	"fmt"
	"strconv"
	"strings"
)

// Status is the presence state of a record.
//
// Only CheckedOut and CheckedIn are meaningful. Other integer values found in
// the record store are kept as-is so that they can be recognised as noise.
type Status int

const (
	// CheckedOut means the student has left (or never arrived).
	CheckedOut Status = 0
	// CheckedIn means the student is present.
	CheckedIn Status = 1
)

// ParseStatus converts a raw record store cell into a Status.
//
// Empty or non-integer cells become CheckedOut. Spreadsheet cells are edited
// by hand, and a typo must read as "not present" instead of failing the poll.
// Integers other than 0 and 1 are returned verbatim and report Known() == false.
func ParseStatus(raw string) Status {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return CheckedOut
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		// Spreadsheets frequently store integers as floats ("1.0").
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int(f)) {
			return CheckedOut
		}

		value = int(f)
	}

	return Status(value)
}

// Known reports whether the status is one of the two defined states.
func (s Status) Known() bool {
	return s == CheckedOut || s == CheckedIn
}

// String returns the record store representation of the status.
func (s Status) String() string {
	return strconv.Itoa(int(s))
}

// Label returns a human-readable name used in logs and API responses.
func (s Status) Label() string {
	switch s {
	case CheckedOut:
		return "checked_out"
	case CheckedIn:
		return "checked_in"
	default:
		return "unknown(" + strconv.Itoa(int(s)) + ")"
	}
}

// Record is one tracked person as seen in the record store.
type Record struct {
	// ID is the stable identity used for diffing, see RecordID.
	ID string `json:"id"`
	// Row is the position of the record in its store.
	Row int `json:"row"`
	// Name is the display name used in notifications.
	Name string `json:"name"`
	// Phone is the recipient number; empty means nobody to notify.
	Phone string `json:"phone"`
	// Status is the current presence state.
	Status Status `json:"status"`
	// PaymentDate is the last tuition payment date, empty when unpaid.
	PaymentDate string `json:"payment_date"`
}

// RecordID builds the identity of a record from its row and name.
// A renamed or moved record gets a new identity and is treated as a new record.
func RecordID(row int, name string) string {
	return fmt.Sprintf("%d:%s", row, strings.TrimSpace(name))
}

// HasPhone reports whether the record has a non-blank recipient number.
func (r *Record) HasPhone() bool {
	return strings.TrimSpace(r.Phone) != ""
}

// PaymentStatus returns the payment label shown to operators.
func (r *Record) PaymentStatus() string {
	if strings.TrimSpace(r.PaymentDate) == "" {
		return "unpaid"
	}

	return "paid"
}
