package models

import (
	"time"
)

// User is the authenticated principal. Rows with a non-nil DeletedAt are
// invisible to every authentication and lookup path.
type User struct {
	ID                  string
	Username            string
	Email               string
	PasswordHash        string
	EmailVerified       bool
	AccountLocked       bool
	LockedAt            *time.Time
	FailedLoginAttempts int
	LastLoginAt         *time.Time
	Roles               []string // Opaque authority strings resolved by the role repository
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           *time.Time
}

// Authorities returns the user's resolved authority strings.
func (u *User) Authorities() []string {
	return u.Roles
}

// CredentialDigest returns the stored one-way credential hash.
func (u *User) CredentialDigest() string {
	return u.PasswordHash
}

// IsUsable reports whether the account may authenticate at all.
func (u *User) IsUsable() bool {
	return u.DeletedAt == nil && !u.AccountLocked
}

// IsDeleted reports whether the user has been soft-deleted.
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// HasAuthority reports whether the authority set contains the given string.
func (u *User) HasAuthority(authority string) bool {
	for _, a := range u.Roles {
		if a == authority {
			return true
		}
	}
	return false
}
