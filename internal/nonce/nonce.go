// Package nonce issues and verifies short lived tokens that tie an admin form
// to the action it submits. Tokens are HS256 signed JWTs carrying the action
// name in a custom claim.
package nonce

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalid = errors.New("nonce: invalid token")
	ErrAction  = errors.New("nonce: token issued for another action")
)

const issuer = "userfields"

type claims struct {
	Action string `json:"act"`
	jwt.RegisteredClaims
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// Manager signs and verifies nonces with one secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New returns a Manager. A zero ttl defaults to twelve hours.
func New(secret string, ttl time.Duration, options ...Option) (*Manager, error) {
	if secret == "" {
		return nil, fmt.Errorf("nonce: secret is required")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	m := &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range options {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

// Issue returns a token bound to action.
func (m *Manager) Issue(action string) (string, error) {
	issued := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Action: action,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(m.ttl)),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("nonce: sign: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, expiry and action of token.
func (m *Manager) Verify(token, action string) error {
	if token == "" {
		return ErrInvalid
	}
	parsed := &claims{}
	_, err := jwt.ParseWithClaims(token, parsed, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if parsed.Action != action {
		return ErrAction
	}
	return nil
}
