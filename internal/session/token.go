package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kirinyoku/bedslot/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

type Claims struct {
	ClientID uuid.UUID    `json:"client_id"`
	Role     domain.Role  `json:"role"`
	StudioID string       `json:"studio_id,omitempty"`
	Shift    domain.Shift `json:"shift,omitempty"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue mints a token for s. A missing session ID is generated.
func (t *Tokens) Issue(s Session) (string, error) {
	const op = "session.Tokens.Issue"

	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	now := t.now()
	claims := Claims{
		ClientID: s.ClientID,
		Role:     s.Role,
		StudioID: s.StudioID,
		Shift:    s.Shift,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   s.ClientID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("%s:%w", op, err)
	}

	return signed, nil
}

// Parse validates a token and rebuilds the session it carries.
func (t *Tokens) Parse(raw string) (Session, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, ErrExpiredToken
		}
		return Session{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Session{}, ErrInvalidToken
	}

	switch claims.Role {
	case domain.RoleClient:
		if claims.ClientID == uuid.Nil {
			return Session{}, ErrInvalidToken
		}
	case domain.RoleAdmin:
	default:
		return Session{}, ErrInvalidToken
	}

	s := Session{
		ID:       claims.ID,
		ClientID: claims.ClientID,
		Role:     claims.Role,
		StudioID: claims.StudioID,
		Shift:    claims.Shift,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}

	return s, nil
}
