package models

import "time"

// RefreshSession is one issued refresh credential. Only the deterministic
// keyed digest of the raw token is ever stored; the raw value exists solely
// in the response that delivered it.
type RefreshSession struct {
	ID          string
	UserID      string
	TokenDigest string
	ExpiresAt   time.Time
	Revoked     bool
	CreatedAt   time.Time
}

// IsExpired reports whether the session's expiry has passed at the given instant.
func (s *RefreshSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// IsValid reports whether the session is neither revoked nor expired.
func (s *RefreshSession) IsValid(now time.Time) bool {
	return !s.Revoked && !s.IsExpired(now)
}
