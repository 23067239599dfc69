package reservation

import "fmt"

// Reason is the outcome of a booking or cancellation that did not go
// through. Reasons are expected business results, not failures.
type Reason string

const (
	DuplicateDayBooking   Reason = "duplicate_day_booking"
	DuplicateSlotBooking  Reason = "duplicate_slot_booking"
	SlotFull              Reason = "slot_full"
	SlotInPast            Reason = "slot_in_past"
	SlotNotOffered        Reason = "slot_not_offered"
	NoCreditAvailable     Reason = "no_credit_available"
	ConcurrentConflict    Reason = "concurrent_conflict"
	ClientNotFound        Reason = "client_not_found"
	Forbidden             Reason = "forbidden"
	ReservationNotFound   Reason = "reservation_not_found"
	AlreadyOccurred       Reason = "already_occurred"
	LateCancelUnconfirmed Reason = "late_cancel_unconfirmed"
	AlreadyCancelled      Reason = "already_cancelled"
	// Unavailable marks a date of a series whose attempt hit a store failure.
	Unavailable Reason = "unavailable"
)

var messages = map[Reason]string{
	DuplicateDayBooking:   "You already have a class booked on this day.",
	DuplicateSlotBooking:  "You already have a bed in this class.",
	SlotFull:              "This class is full.",
	SlotInPast:            "This class has already started.",
	SlotNotOffered:        "There is no class at this time.",
	NoCreditAvailable:     "You have no credits valid for this date.",
	ConcurrentConflict:    "Someone just took that bed. Please choose another slot.",
	ClientNotFound:        "Client not found.",
	Forbidden:             "You cannot manage this booking.",
	ReservationNotFound:   "Reservation not found.",
	AlreadyOccurred:       "This class already took place and cannot be cancelled.",
	LateCancelUnconfirmed: "The class starts soon. Confirm to cancel anyway.",
	AlreadyCancelled:      "This reservation was already cancelled.",
	Unavailable:           "The booking service is unavailable. Please try again later.",
}

// Message is the user-facing text for the reason.
func (r Reason) Message() string {
	if m, ok := messages[r]; ok {
		return m
	}
	return string(r)
}

// RejectedError aborts a unit of work with a business reason. The
// transaction rolls back and the caller receives the reason as a result.
type RejectedError struct {
	Reason Reason
}

func (e RejectedError) Error() string {
	return fmt.Sprintf("rejected: %s", e.Reason)
}

func reject(r Reason) error {
	return RejectedError{Reason: r}
}
