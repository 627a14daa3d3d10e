// Package token issues and verifies the JWT pair used by the HTTP surface.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("token: invalid or expired")

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

// Identity is the authenticated caller the rest of the app trusts.
type Identity struct {
	UID   string
	Email string
	Role  string
}

type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type claims struct {
	jwt.RegisteredClaims
	UID   string `json:"uid"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Manager signs and parses tokens with HS256 shared secrets.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

func NewManager(accessSecret, refreshSecret string) *Manager {
	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		now:           time.Now,
	}
}

// Issue returns a fresh access/refresh pair for the identity.
func (m *Manager) Issue(identity Identity) (Pair, error) {
	access, err := m.sign(identity, m.accessSecret, accessTokenTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := m.sign(identity, m.refreshSecret, refreshTokenTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess parses an access token and returns the identity it carries.
func (m *Manager) VerifyAccess(raw string) (Identity, error) {
	return m.verify(raw, m.accessSecret)
}

// VerifyRefresh parses a refresh token and returns the identity it carries.
func (m *Manager) VerifyRefresh(raw string) (Identity, error) {
	return m.verify(raw, m.refreshSecret)
}

func (m *Manager) sign(identity Identity, secret []byte, ttl time.Duration) (string, error) {
	now := m.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID:   identity.UID,
		Email: identity.Email,
		Role:  identity.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}

func (m *Manager) verify(raw string, secret []byte) (Identity, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UID: c.UID, Email: c.Email, Role: c.Role}, nil
}
