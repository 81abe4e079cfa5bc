package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates a token failed verification: bad signature,
// unexpected signing method, malformed payload, or expiry.
var ErrInvalidToken = errors.New("invalid token")

// TokenIssuer mints and verifies the HS256 access and refresh JWTs used for
// session credentials. Access and refresh tokens are signed with separate
// secrets so one class can never be replayed as the other.
type TokenIssuer struct {
	accessSecret  []byte
	accessTTL     time.Duration
	refreshSecret []byte
	refreshTTL    time.Duration

	now func() time.Time
}

// NewTokenIssuer constructs an issuer with the provided secrets and TTLs.
func NewTokenIssuer(accessSecret string, accessTTL time.Duration, refreshSecret string, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		accessTTL:     accessTTL,
		refreshSecret: []byte(refreshSecret),
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// IssueAccess creates a short-lived access token bound to the user id.
func (i *TokenIssuer) IssueAccess(userID string) (string, time.Time, error) {
	return i.sign(userID, i.accessSecret, i.accessTTL)
}

// IssueRefresh creates a longer-lived refresh token bound to the user id.
func (i *TokenIssuer) IssueRefresh(userID string) (string, time.Time, error) {
	return i.sign(userID, i.refreshSecret, i.refreshTTL)
}

// VerifyAccess validates an access token and returns the embedded user id.
func (i *TokenIssuer) VerifyAccess(token string) (string, error) {
	return i.verify(token, i.accessSecret)
}

// VerifyRefresh validates a refresh token and returns the embedded user id.
func (i *TokenIssuer) VerifyRefresh(token string) (string, error) {
	return i.verify(token, i.refreshSecret)
}

func (i *TokenIssuer) sign(userID string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("user id must be provided")
	}

	now := i.now().UTC()
	expiresAt := now.Add(ttl)

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// verify maps every parse failure to ErrInvalidToken so callers can treat
// expired, forged, and malformed tokens uniformly as authentication errors.
func (i *TokenIssuer) verify(token string, secret []byte) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return i.now() }))
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
