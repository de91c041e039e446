package models

import (
	"testing"
	"time"
)

func TestLockoutState_FailBelowThreshold(t *testing.T) {
	now := time.Now()
	s := LockoutState{}

	for i := 1; i < DefaultLockoutThreshold; i++ {
		s = s.Fail(DefaultLockoutThreshold, now)
		if s.Locked {
			t.Fatalf("locked after %d failures, threshold is %d", i, DefaultLockoutThreshold)
		}
		if s.FailedAttempts != i {
			t.Fatalf("expected %d failed attempts, got %d", i, s.FailedAttempts)
		}
	}
}

func TestLockoutState_FailAtThresholdLocks(t *testing.T) {
	now := time.Now()
	s := LockoutState{FailedAttempts: DefaultLockoutThreshold - 1}

	s = s.Fail(DefaultLockoutThreshold, now)

	if !s.Locked {
		t.Fatal("expected locked state at threshold")
	}
	if s.LockedAt == nil || !s.LockedAt.Equal(now) {
		t.Fatalf("expected LockedAt set to %v, got %v", now, s.LockedAt)
	}
}

func TestLockoutState_LockedIsTerminalUntilUnlock(t *testing.T) {
	now := time.Now()
	lockedAt := now.Add(-time.Hour)
	s := LockoutState{FailedAttempts: 7, Locked: true, LockedAt: &lockedAt}

	// Neither further failures nor success clears the lock
	s = s.Fail(DefaultLockoutThreshold, now)
	if !s.Locked {
		t.Fatal("failure must not clear lock")
	}
	if !s.LockedAt.Equal(lockedAt) {
		t.Fatal("LockedAt must not move on subsequent failures")
	}

	s = s.Succeed()
	if !s.Locked {
		t.Fatal("success must not clear lock")
	}
	if s.FailedAttempts != 0 {
		t.Fatalf("success must reset counter, got %d", s.FailedAttempts)
	}
}

func TestLockoutState_SucceedResetsCounter(t *testing.T) {
	s := LockoutState{FailedAttempts: 3}

	s = s.Succeed()

	if s.FailedAttempts != 0 {
		t.Fatalf("expected counter reset to 0, got %d", s.FailedAttempts)
	}
	if s.Locked {
		t.Fatal("unexpected lock")
	}

	// After a reset, locking requires a full fresh run of failures
	now := time.Now()
	for i := 0; i < DefaultLockoutThreshold-1; i++ {
		s = s.Fail(DefaultLockoutThreshold, now)
	}
	if s.Locked {
		t.Fatal("locked before a full fresh run of failures")
	}
	s = s.Fail(DefaultLockoutThreshold, now)
	if !s.Locked {
		t.Fatal("expected lock after full fresh run of failures")
	}
}

func TestLockoutState_Unlock(t *testing.T) {
	now := time.Now()
	s := LockoutState{FailedAttempts: 9, Locked: true, LockedAt: &now}

	s = s.Unlock()

	if s.Locked {
		t.Fatal("expected unlocked state")
	}
	if s.LockedAt != nil {
		t.Fatal("expected LockedAt cleared")
	}
	if s.FailedAttempts != 0 {
		t.Fatalf("expected counter reset, got %d", s.FailedAttempts)
	}
}

func TestUser_IsUsable(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		user User
		want bool
	}{
		{"active", User{}, true},
		{"locked", User{AccountLocked: true}, false},
		{"deleted", User{DeletedAt: &now}, false},
		{"locked and deleted", User{AccountLocked: true, DeletedAt: &now}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.IsUsable(); got != tt.want {
				t.Errorf("IsUsable() = %v, want %v", got, tt.want)
			}
		})
	}
}
