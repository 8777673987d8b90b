package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "recipehub"

var ErrInvalidToken = errors.New("invalid token")

// Token is the persisted credential. One per user; Key is the JWT id.
type Token struct {
	Key       string
	UserID    int64
	CreatedAt time.Time
}

type Claims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager returns a signer for bearer tokens. ttl <= 0 issues tokens
// without an expiry.
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Sign renders t as an HS256 JWT. Claims are derived only from t, so signing
// the same token twice yields the same string.
func (m *Manager) Sign(t Token) (string, error) {
	claims := Claims{
		UserID: t.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       t.Key,
			Subject:  strconv.FormatInt(t.UserID, 10),
			Issuer:   issuer,
			IssuedAt: jwt.NewNumericDate(t.CreatedAt),
		},
	}

	if m.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(t.CreatedAt.Add(m.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) Parse(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.ID == "" || claims.UserID <= 0 {
		return nil, fmt.Errorf("%w: missing jti or uid", ErrInvalidToken)
	}

	return claims, nil
}

// Expired reports whether t is past its lifetime at now.
func (m *Manager) Expired(t Token, now time.Time) bool {
	if m.ttl <= 0 {
		return false
	}
	return !now.Before(t.CreatedAt.Add(m.ttl))
}
