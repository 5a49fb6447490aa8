// Package auth implements credential hashing and session tokens.
package auth

import (
	"errors"
	"fmt"

	"nextfilm/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 10

// maxPasswordBytes is the bcrypt input limit; longer input would be truncated silently.
const maxPasswordBytes = 72

// ErrMalformedCredential is returned when a stored digest cannot be parsed as bcrypt.
var ErrMalformedCredential = &models.AppError{Code: models.CodeMalformedCredential}

// PasswordHasher is a one-way salted password codec.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher using cost, or DefaultCost when cost is zero.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost == 0 {
		cost = DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns a salted bcrypt digest of plain. Two calls never yield the same digest.
func (h *PasswordHasher) Hash(plain string) (string, error) {
	if len(plain) > maxPasswordBytes {
		return "", models.NewValidationError("Password must be 72 bytes or fewer")
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plain matches digest. A mismatch is (false, nil);
// only an unparseable digest returns an error.
func (h *PasswordHasher) Verify(plain, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, models.NewMalformedCredentialError(err)
	}
}
