package models

import "time"

// DefaultLockoutThreshold is the consecutive-failure count that locks an account.
const DefaultLockoutThreshold = 5

// LockoutState is the per-identity brute-force state machine. Transitions
// return a new value instead of mutating in place, so the policy is testable
// without storage. The repository applies the same transitions as single
// conditional UPDATE statements.
type LockoutState struct {
	FailedAttempts int
	Locked         bool
	LockedAt       *time.Time
}

// Fail records one failed authentication attempt. Crossing the threshold
// transitions to Locked; a locked state is terminal until Unlock.
func (s LockoutState) Fail(threshold int, now time.Time) LockoutState {
	next := LockoutState{
		FailedAttempts: s.FailedAttempts + 1,
		Locked:         s.Locked,
		LockedAt:       s.LockedAt,
	}
	if !next.Locked && next.FailedAttempts >= threshold {
		next.Locked = true
		next.LockedAt = &now
	}
	return next
}

// Succeed records a successful authentication. The failure counter resets;
// a lock is never cleared by success (only an explicit Unlock does that).
func (s LockoutState) Succeed() LockoutState {
	return LockoutState{
		FailedAttempts: 0,
		Locked:         s.Locked,
		LockedAt:       s.LockedAt,
	}
}

// Unlock is the administrative transition back to Active.
func (s LockoutState) Unlock() LockoutState {
	return LockoutState{}
}

// LockoutStateOf extracts the lockout state machine view of a user row.
func LockoutStateOf(u *User) LockoutState {
	return LockoutState{
		FailedAttempts: u.FailedLoginAttempts,
		Locked:         u.AccountLocked,
		LockedAt:       u.LockedAt,
	}
}
