// Package hash stores user passwords as bcrypt digests.
package hash

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const Cost = bcrypt.DefaultCost

var (
	ErrEmptyPassword = errors.New("empty password")
	ErrMismatch      = errors.New("password does not match")
)

// Generate returns the bcrypt digest of password.
func Generate(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(digest), nil
}

// Compare returns ErrMismatch when password does not produce digest. Any
// other error means the stored digest is unusable.
func Compare(digest, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrMismatch
	default:
		return fmt.Errorf("bcrypt digest: %w", err)
	}
}
