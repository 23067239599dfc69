// Package session carries the caller's identity into every booking flow.
// The engine never looks a session up on its own; transports build one per
// request and pass it down.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/bedslot/internal/domain"
)

var ErrForbidden = errors.New("forbidden")

type Session struct {
	ID        string
	ClientID  uuid.UUID
	Role      domain.Role
	StudioID  string
	Shift     domain.Shift
	ExpiresAt time.Time
}

func (s Session) IsAdmin() bool {
	return s.Role == domain.RoleAdmin
}

// CanActFor reports whether the session may operate on clientID's bookings.
func (s Session) CanActFor(clientID uuid.UUID) bool {
	return s.IsAdmin() || (s.ClientID != uuid.Nil && s.ClientID == clientID)
}

// ResolveClient picks the client a request targets: admins must name one,
// clients default to themselves.
func (s Session) ResolveClient(requested uuid.UUID) (uuid.UUID, error) {
	if requested == uuid.Nil {
		if s.ClientID == uuid.Nil {
			return uuid.Nil, ErrForbidden
		}
		return s.ClientID, nil
	}
	if !s.CanActFor(requested) {
		return uuid.Nil, ErrForbidden
	}
	return requested, nil
}
