package api

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Password hashing configuration constants
const (
	// DefaultCost is the bcrypt cost factor for password hashing.
	DefaultCost = 12

	// MinCost is the minimum acceptable bcrypt cost factor.
	MinCost = 10
)

var (
	// ErrEmptyPassword is returned when attempting to hash an empty password.
	ErrEmptyPassword = errors.New("password cannot be empty")

	// ErrPasswordMismatch is returned when password verification fails.
	// It does not reveal whether the hash was valid.
	ErrPasswordMismatch = errors.New("password does not match")

	// ErrInvalidHash is returned when the hash format is invalid.
	ErrInvalidHash = errors.New("invalid password hash format")

	// ErrCostTooLow is returned when the hash cost is below MinCost.
	ErrCostTooLow = errors.New("hash cost is below minimum acceptable value")
)

// HashPassword creates a bcrypt hash of password at DefaultCost.
func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, DefaultCost)
}

// HashPasswordWithCost creates a bcrypt hash with a specific cost factor.
func HashPasswordWithCost(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if cost < MinCost || cost > bcrypt.MaxCost {
		return "", bcrypt.InvalidCostError(cost)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password with a bcrypt hash in
// constant time.
func VerifyPassword(password, hash string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if hash == "" {
		return ErrInvalidHash
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		// Don't expose internal bcrypt errors
		return ErrPasswordMismatch
	}
	return nil
}

// ValidateHashStrength checks that hash is well-formed and at least MinCost.
func ValidateHashStrength(hash string) error {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return ErrInvalidHash
	}
	if cost < MinCost {
		return ErrCostTooLow
	}
	return nil
}
