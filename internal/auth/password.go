package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrBadCredentials indicates a password did not match the stored hash.
var ErrBadCredentials = errors.New("invalid credentials")

// HashPassword derives a one-way bcrypt hash for storage.
func HashPassword(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword compares a stored hash against a candidate password,
// returning ErrBadCredentials on mismatch.
func VerifyPassword(hash, plaintext string) error {
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) != nil {
		return ErrBadCredentials
	}
	return nil
}
