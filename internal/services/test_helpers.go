package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vsai-vivek/DataVionAuthentication/internal/models"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc              func(ctx context.Context, id string) (*models.User, error)
	GetByUsernameOrEmailFunc func(ctx context.Context, identifier string, caseInsensitive bool) (*models.User, error)
	ExistsByUsernameFunc     func(ctx context.Context, username string, caseInsensitive bool) (bool, error)
	ExistsByEmailFunc        func(ctx context.Context, email string, caseInsensitive bool) (bool, error)
	CreateFunc               func(ctx context.Context, user *models.User) (*models.User, error)
	ListFunc                 func(ctx context.Context, limit, offset int) ([]*models.User, error)
	RecordLoginFailureFunc   func(ctx context.Context, id string, threshold int) (*models.User, error)
	RecordLoginSuccessFunc   func(ctx context.Context, id string, at time.Time) error
	UnlockFunc               func(ctx context.Context, id string) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByUsernameOrEmail(ctx context.Context, identifier string, caseInsensitive bool) (*models.User, error) {
	if m.GetByUsernameOrEmailFunc != nil {
		return m.GetByUsernameOrEmailFunc(ctx, identifier, caseInsensitive)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string, caseInsensitive bool) (bool, error) {
	if m.ExistsByUsernameFunc != nil {
		return m.ExistsByUsernameFunc(ctx, username, caseInsensitive)
	}
	return false, nil
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string, caseInsensitive bool) (bool, error) {
	if m.ExistsByEmailFunc != nil {
		return m.ExistsByEmailFunc(ctx, email, caseInsensitive)
	}
	return false, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) RecordLoginFailure(ctx context.Context, id string, threshold int) (*models.User, error) {
	if m.RecordLoginFailureFunc != nil {
		return m.RecordLoginFailureFunc(ctx, id, threshold)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) RecordLoginSuccess(ctx context.Context, id string, at time.Time) error {
	if m.RecordLoginSuccessFunc != nil {
		return m.RecordLoginSuccessFunc(ctx, id, at)
	}
	return nil
}

func (m *MockUserRepository) Unlock(ctx context.Context, id string) error {
	if m.UnlockFunc != nil {
		return m.UnlockFunc(ctx, id)
	}
	return nil
}

// MockRoleRepository implements RoleRepository for testing
type MockRoleRepository struct {
	GetAuthoritiesFunc func(ctx context.Context, userID string) ([]string, error)
	AssignRoleFunc     func(ctx context.Context, userID, roleName string) error
}

func (m *MockRoleRepository) GetAuthorities(ctx context.Context, userID string) ([]string, error) {
	if m.GetAuthoritiesFunc != nil {
		return m.GetAuthoritiesFunc(ctx, userID)
	}
	return []string{"USER"}, nil
}

func (m *MockRoleRepository) AssignRole(ctx context.Context, userID, roleName string) error {
	if m.AssignRoleFunc != nil {
		return m.AssignRoleFunc(ctx, userID, roleName)
	}
	return nil
}

// InMemorySessionStore is a mutex-guarded RefreshSessionRepository. The
// lock gives it the same per-identity serialization the real store gets
// from row locks, which the concurrent rotation tests rely on.
type InMemorySessionStore struct {
	mu       sync.Mutex
	byDigest map[string]*models.RefreshSession
}

func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{byDigest: make(map[string]*models.RefreshSession)}
}

func (s *InMemorySessionStore) GetByDigest(ctx context.Context, digest string) (*models.RefreshSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.byDigest[digest]
	if !ok {
		return nil, models.ErrTokenNotFound
	}
	copied := *session
	return &copied, nil
}

func (s *InMemorySessionStore) insertLocked(userID, digest string, ttl time.Duration) *models.RefreshSession {
	now := time.Now()
	session := &models.RefreshSession{
		ID:          uuid.New().String(),
		UserID:      userID,
		TokenDigest: digest,
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
	}
	s.byDigest[digest] = session
	return session
}

func (s *InMemorySessionStore) revokeAllLocked(userID string) {
	for _, session := range s.byDigest {
		if session.UserID == userID {
			session.Revoked = true
		}
	}
}

func (s *InMemorySessionStore) Replace(ctx context.Context, userID, digest string, ttl time.Duration) (*models.RefreshSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.revokeAllLocked(userID)
	copied := *s.insertLocked(userID, digest, ttl)
	return &copied, nil
}

func (s *InMemorySessionStore) Rotate(ctx context.Context, oldDigest, newDigest string, ttl time.Duration) (*models.RefreshSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.byDigest[oldDigest]
	if !ok {
		return nil, models.ErrTokenNotFound
	}
	if old.Revoked {
		return nil, models.ErrTokenRevoked
	}
	if old.IsExpired(time.Now()) {
		return nil, models.ErrTokenExpired
	}

	s.revokeAllLocked(old.UserID)
	copied := *s.insertLocked(old.UserID, newDigest, ttl)
	return &copied, nil
}

func (s *InMemorySessionStore) Revoke(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, session := range s.byDigest {
		if session.ID == sessionID {
			session.Revoked = true
		}
	}
	return nil
}

func (s *InMemorySessionStore) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for digest, session := range s.byDigest {
		if session.IsExpired(now) {
			delete(s.byDigest, digest)
			deleted++
		}
	}
	return deleted, nil
}

// Seed inserts a session directly, bypassing rotation. Test setup only.
func (s *InMemorySessionStore) Seed(session *models.RefreshSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *session
	s.byDigest[session.TokenDigest] = &copied
}

// Live returns the number of non-revoked, non-expired sessions for a user.
func (s *InMemorySessionStore) Live(userID string, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, session := range s.byDigest {
		if session.UserID == userID && session.IsValid(now) {
			count++
		}
	}
	return count
}

// NewTestUser builds an active, verified user for tests.
func NewTestUser(id, username, email string) *models.User {
	now := time.Now()
	return &models.User{
		ID:            id,
		Username:      username,
		Email:         email,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
