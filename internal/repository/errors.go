package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a lost race at commit time: a unit already taken
	// for the slot, or a serialization failure.
	ErrConflict = errors.New("conflict")
	// ErrDuplicateDay reports a second active reservation for the same client and date.
	ErrDuplicateDay       = errors.New("client already booked on this date")
	ErrInsufficientCredit = errors.New("insufficient credit")
)
