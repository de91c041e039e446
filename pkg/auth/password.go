package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultBcryptCost = 12
	MinPasswordLen    = 8
	MaxPasswordLen    = 72 // bcrypt input limit
)

// dummyHash is a bcrypt hash of an unguessable throwaway value. CompareDummy
// burns the same CPU as a real verification so an unknown identifier is not
// distinguishable from a wrong password by response time.
var dummyHash = func() string {
	h, err := bcrypt.GenerateFromPassword([]byte("datavion-dummy-credential"), DefaultBcryptCost)
	if err != nil {
		panic(fmt.Sprintf("bcrypt dummy hash: %v", err))
	}
	return string(h)
}()

// HashPassword produces a self-contained bcrypt hash encoding the cost and
// salt, so verification needs no external state.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// ComparePassword verifies a plaintext password against a stored hash.
// The comparison inside bcrypt is constant-time; a mismatch returns an
// error, it never panics on malformed input.
func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// CompareDummy performs a verification against a fixed hash and discards the
// result. Called when the login identifier resolves to nothing.
func CompareDummy(password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
}

// ValidatePassword enforces the registration password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLen)
	}
	if len(password) > MaxPasswordLen {
		return fmt.Errorf("password must be at most %d characters", MaxPasswordLen)
	}
	return nil
}
