package app

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrStaleSession = errors.New("stale session")

type sessionClaims struct {
	UID      int64  `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenIssuer signs the reconnect token handed out with login_success. A
// client presents it on reauthenticate to reattach without a password; the
// role is never read back from the token, only from the directory.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: secret, ttl: ttl}
}

func (t *TokenIssuer) Issue(acc Account) (string, error) {
	now := time.Now()
	claims := &sessionClaims{
		UID:      acc.ID,
		Username: acc.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acc.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify returns the account id and username bound into a token, or
// ErrStaleSession for anything expired, malformed or forged.
func (t *TokenIssuer) Verify(token string) (int64, string, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, "", ErrStaleSession
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.UID <= 0 {
		return 0, "", ErrStaleSession
	}
	return claims.UID, claims.Username, nil
}
