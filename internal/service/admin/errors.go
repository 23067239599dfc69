package admin

import (
	"errors"
)

var (
	ErrClientNotFound   = errors.New("client not found")
	ErrClientConflict   = errors.New("client with this email already exists")
	ErrInvalidClient    = errors.New("client name is required")
	ErrInvalidSchedule  = errors.New("invalid fixed schedule")
	ErrScheduleConflict = errors.New("duplicate weekday and time in fixed schedule")
)
