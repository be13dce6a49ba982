// Package identity turns bearer tokens into application principals.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/example/tutor-marketplace/internal/application"
)

var (
	// ErrTokenMissing is returned for an empty token or Authorization header.
	ErrTokenMissing = errors.New("identity: token missing")
	// ErrTokenExpired is returned when the exp claim is in the past.
	ErrTokenExpired = errors.New("identity: token expired")
	// ErrTokenInvalid covers bad signatures, algorithms and malformed tokens.
	ErrTokenInvalid = errors.New("identity: token invalid")
	// ErrUnknownSubject is returned when the claims identify no user or an unknown role.
	ErrUnknownSubject = errors.New("identity: unknown subject")
)

// Claims accepts both token shapes in circulation. Legacy tokens carry only
// mentor_id; current tokens carry user_id and user_type.
type Claims struct {
	UserID   string `json:"user_id,omitempty"`
	UserType string `json:"user_type,omitempty"`
	MentorID string `json:"mentor_id,omitempty"`
	jwtv5.RegisteredClaims
}

// Normalize maps either claim shape onto a single principal.
func Normalize(c Claims) (application.Principal, error) {
	userID := strings.TrimSpace(c.UserID)
	if userID != "" {
		role, err := application.ParseRole(c.UserType)
		if err != nil {
			return application.Principal{}, fmt.Errorf("%w: user_type %q", ErrUnknownSubject, c.UserType)
		}
		return application.Principal{UserID: userID, Role: role}, nil
	}

	if mentorID := strings.TrimSpace(c.MentorID); mentorID != "" {
		return application.Principal{UserID: mentorID, Role: application.RoleMentor}, nil
	}

	return application.Principal{}, ErrUnknownSubject
}

// Verifier validates HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// Option customises a Verifier.
type Option func(*Verifier)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// NewVerifier returns a verifier for the given secret.
func NewVerifier(secret string, opts ...Option) *Verifier {
	v := &Verifier{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Principal verifies token and normalizes its claims. Any failure yields an
// error and a zero principal.
func (v *Verifier) Principal(token string) (application.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return application.Principal{}, ErrTokenMissing
	}
	if len(v.secret) == 0 {
		return application.Principal{}, ErrTokenInvalid
	}

	claims := &Claims{}
	parsed, err := jwtv5.ParseWithClaims(token, claims, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return v.secret, nil
	},
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return application.Principal{}, ErrTokenExpired
		}
		return application.Principal{}, ErrTokenInvalid
	}
	if !parsed.Valid {
		return application.Principal{}, ErrTokenInvalid
	}

	return Normalize(*claims)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", ErrTokenMissing
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrTokenMissing
	}
	return token, nil
}
