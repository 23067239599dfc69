package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

type Shift string

const (
	ShiftMorning   Shift = "morning"
	ShiftAfternoon Shift = "afternoon"
	ShiftEvening   Shift = "evening"
)

type LotStatus string

const (
	LotActive    LotStatus = "active"
	LotExpired   LotStatus = "expired"
	LotExhausted LotStatus = "exhausted"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// UnitID identifies one of the interchangeable beds of a slot.
type UnitID int

const UnitCount = 6

// AllUnits returns the fixed unit universe {1..6}.
func AllUnits() []UnitID {
	units := make([]UnitID, UnitCount)
	for i := range units {
		units[i] = UnitID(i + 1)
	}
	return units
}

func (u UnitID) Valid() bool {
	return u >= 1 && u <= UnitCount
}

type Client struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	StudioID  string
	Shift     Shift
	CreatedAt time.Time
}

// FixedScheduleEntry is a recurring weekly commitment of a client.
type FixedScheduleEntry struct {
	ClientID uuid.UUID
	Weekday  time.Weekday
	Time     TimeOfDay
}

// CreditLot is one purchased pack. Dates are civil dates at 00:00 UTC.
type CreditLot struct {
	ID          uuid.UUID
	ClientID    uuid.UUID
	Total       int
	Remaining   int
	PurchasedOn time.Time
	ExpiresOn   time.Time
	Status      LotStatus
}

// Covers reports whether the lot can pay for a class held on date.
func (l CreditLot) Covers(date time.Time) bool {
	return l.Status != LotExhausted && l.Remaining > 0 && !l.ExpiresOn.Before(date)
}

// ActiveOn reports whether the lot still holds usable credits as of today.
func (l CreditLot) ActiveOn(today time.Time) bool {
	return l.Remaining > 0 && !l.ExpiresOn.Before(today)
}

// StatusOn derives the lifecycle state of the lot as of today.
func (l CreditLot) StatusOn(today time.Time) LotStatus {
	switch {
	case l.Remaining == 0:
		return LotExhausted
	case l.ExpiresOn.Before(today):
		return LotExpired
	default:
		return LotActive
	}
}

type Reservation struct {
	ID          uuid.UUID
	ClientID    uuid.UUID
	Date        time.Time
	Time        TimeOfDay
	Unit        UnitID
	LotID       uuid.UUID
	Status      ReservationStatus
	CreatedAt   time.Time
	CancelledAt *time.Time
}

func (r Reservation) Active() bool {
	return r.Status != ReservationCancelled
}

func (r Reservation) Slot() Slot {
	return Slot{Date: r.Date, Time: r.Time}
}

// Slot is a (date, time) pair at which every unit is bookable.
type Slot struct {
	Date time.Time
	Time TimeOfDay
}

// CancelOutcome is the result of the store's atomic cancel operation.
type CancelOutcome struct {
	Success bool
	Message string
}

const (
	CancelMsgCancelled        = "cancelled"
	CancelMsgAlreadyCancelled = "already cancelled"
	CancelMsgNotFound         = "reservation not found"
	CancelMsgLotMismatch      = "credit lot does not match reservation"
)
