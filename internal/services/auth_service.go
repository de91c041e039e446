package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/vsai-vivek/DataVionAuthentication/internal/auth"
	"github.com/vsai-vivek/DataVionAuthentication/internal/models"
	pkgauth "github.com/vsai-vivek/DataVionAuthentication/pkg/auth"
	pkglogger "github.com/vsai-vivek/DataVionAuthentication/pkg/logger"
)

// UserRepository defines the identity storage operations the orchestrator
// needs. RecordLoginFailure and RecordLoginSuccess are the storage-side
// lockout transitions and must be atomic per identity.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsernameOrEmail(ctx context.Context, identifier string, caseInsensitive bool) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string, caseInsensitive bool) (bool, error)
	ExistsByEmail(ctx context.Context, email string, caseInsensitive bool) (bool, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	RecordLoginFailure(ctx context.Context, id string, threshold int) (*models.User, error)
	RecordLoginSuccess(ctx context.Context, id string, at time.Time) error
	Unlock(ctx context.Context, id string) error
}

// RoleRepository resolves authority strings for an identity.
type RoleRepository interface {
	GetAuthorities(ctx context.Context, userID string) ([]string, error)
	AssignRole(ctx context.Context, userID, roleName string) error
}

// RefreshSessionRepository is the refresh session store. Replace and Rotate
// are atomic per identity.
type RefreshSessionRepository interface {
	GetByDigest(ctx context.Context, digest string) (*models.RefreshSession, error)
	Replace(ctx context.Context, userID, digest string, ttl time.Duration) (*models.RefreshSession, error)
	Rotate(ctx context.Context, oldDigest, newDigest string, ttl time.Duration) (*models.RefreshSession, error)
	Revoke(ctx context.Context, sessionID string) error
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// AuthConfig carries the orchestrator's policy knobs.
type AuthConfig struct {
	RefreshTokenExpiry         time.Duration
	AccessTokenExpiry          time.Duration
	LockoutThreshold           int
	BcryptCost                 int
	RequireVerifiedEmail       bool
	CaseInsensitiveIdentifiers bool
}

// AuthService orchestrates registration, login, refresh and logout.
type AuthService struct {
	users       UserRepository
	roles       RoleRepository
	sessions    RefreshSessionRepository
	tm          *auth.TokenManager
	timingDelay *auth.TimingDelay
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	cfg         AuthConfig
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users UserRepository,
	roles RoleRepository,
	sessions RefreshSessionRepository,
	tm *auth.TokenManager,
	timingDelay *auth.TimingDelay,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
	cfg AuthConfig,
) *AuthService {
	if cfg.LockoutThreshold <= 0 {
		cfg.LockoutThreshold = models.DefaultLockoutThreshold
	}
	return &AuthService{
		users:       users,
		roles:       roles,
		sessions:    sessions,
		tm:          tm,
		timingDelay: timingDelay,
		logger:      logger,
		auditLogger: auditLogger,
		cfg:         cfg,
	}
}

// UserResponse represents an identity summary in HTTP responses
type UserResponse struct {
	ID                  string     `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	EmailVerified       bool       `json:"email_verified"`
	AccountLocked       bool       `json:"account_locked"`
	FailedLoginAttempts int        `json:"failed_login_attempts"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	Roles               []string   `json:"roles"`
	CreatedAt           string     `json:"created_at"`
}

// AuthResponse represents the response from auth operations
type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	User         *UserResponse `json:"user"`
}

func (s *AuthService) normalize(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if s.cfg.CaseInsensitiveIdentifiers {
		identifier = strings.ToLower(identifier)
	}
	return identifier
}

// Register creates a new identity, assigns the default role and issues the
// first credential pair. Exactly one refresh session exists afterwards.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	username = s.normalize(username)
	email = s.normalize(email)

	if username == "" || email == "" {
		return nil, models.ErrBadRequest
	}
	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, models.ErrBadRequest
	}

	taken, err := s.users.ExistsByUsername(ctx, username, s.cfg.CaseInsensitiveIdentifiers)
	if err != nil {
		s.logger.Error("failed to check username uniqueness", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if taken {
		s.logger.Info("registration failed: username taken")
		return nil, models.ErrDuplicateUsername
	}

	taken, err = s.users.ExistsByEmail(ctx, email, s.cfg.CaseInsensitiveIdentifiers)
	if err != nil {
		s.logger.Error("failed to check email uniqueness", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if taken {
		s.logger.Info("registration failed: email taken", slog.String("email", pkglogger.SanitizedEmail(email)))
		return nil, models.ErrDuplicateEmail
	}

	hashedPassword, err := pkgauth.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.users.Create(ctx, &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
	})
	if err != nil {
		// Unique index race: another request created the identity between
		// the existence check and the insert.
		if errors.Is(err, models.ErrDuplicateUsername) || errors.Is(err, models.ErrDuplicateEmail) {
			return nil, err
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.roles.AssignRole(ctx, user.ID, "USER"); err != nil {
		s.logger.Error("failed to assign default role", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	resp, err := s.issueCredentials(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "register",
		UserID:    user.ID,
		Success:   true,
	})

	return resp, nil
}

// Login authenticates by username or email. Unknown identifiers burn a
// dummy hash comparison so they are not distinguishable from a wrong
// password, and both collapse to ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, usernameOrEmail, password string) (*AuthResponse, error) {
	identifier := s.normalize(usernameOrEmail)
	if identifier == "" {
		pkgauth.CompareDummy(password)
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.users.GetByUsernameOrEmail(ctx, identifier, s.cfg.CaseInsensitiveIdentifiers)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkgauth.CompareDummy(password)
			s.failDelay()
			s.logger.Info("login failed: invalid credentials")
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				FailureReason: "invalid_credentials",
				Success:       false,
			})
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("failed to resolve login identifier", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// Locked accounts are rejected before the hash comparison: no wasted
	// work, and the caller gets a lockout reason rather than a credential one.
	if user.AccountLocked {
		s.failDelay()
		s.logger.Info("login blocked: account locked", slog.String("user_id", user.ID))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			FailureReason: "account_locked",
			Success:       false,
		})
		return nil, models.ErrAccountLocked
	}

	if s.cfg.RequireVerifiedEmail && !user.EmailVerified {
		s.failDelay()
		s.logger.Info("login blocked: email not verified", slog.String("user_id", user.ID))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			FailureReason: "email_not_verified",
			Success:       false,
		})
		return nil, models.ErrEmailNotVerified
	}

	if err := pkgauth.ComparePassword(user.CredentialDigest(), password); err != nil {
		updated, ferr := s.users.RecordLoginFailure(ctx, user.ID, s.cfg.LockoutThreshold)
		if ferr != nil {
			s.logger.Error("failed to record login failure", slog.String("user_id", user.ID), slog.Any("error", ferr))
		} else if updated.AccountLocked && !user.AccountLocked {
			s.logger.Warn("account locked after repeated failures",
				slog.String("user_id", user.ID),
				slog.Int("failed_attempts", updated.FailedLoginAttempts))
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "account_locked",
				UserID:        user.ID,
				FailureReason: "lockout_threshold_reached",
				Success:       false,
			})
		}

		s.failDelay()
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			FailureReason: "invalid_credentials",
			Success:       false,
		})
		return nil, models.ErrInvalidCredentials
	}

	if err := s.users.RecordLoginSuccess(ctx, user.ID, time.Now()); err != nil {
		s.logger.Error("failed to record login success", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	user.FailedLoginAttempts = 0
	now := time.Now()
	user.LastLoginAt = &now

	resp, err := s.issueCredentials(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		Success:   true,
	})

	return resp, nil
}

// Refresh exchanges a valid refresh token for a new pair. The old session
// and any other live session for the identity are revoked in the same
// transaction that creates the replacement: rotation, never reuse. Typed
// validation errors surface unchanged.
func (s *AuthService) Refresh(ctx context.Context, rawRefreshToken string) (*AuthResponse, error) {
	rawRefreshToken = strings.TrimSpace(rawRefreshToken)
	if rawRefreshToken == "" {
		return nil, models.ErrTokenNotFound
	}

	newRaw, err := s.tm.GenerateRefreshToken()
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	oldDigest := s.tm.DigestRefreshToken(rawRefreshToken)
	newDigest := s.tm.DigestRefreshToken(newRaw)

	session, err := s.sessions.Rotate(ctx, oldDigest, newDigest, s.cfg.RefreshTokenExpiry)
	if err != nil {
		if errors.Is(err, models.ErrTokenNotFound) ||
			errors.Is(err, models.ErrTokenRevoked) ||
			errors.Is(err, models.ErrTokenExpired) {
			s.logger.Info("refresh rejected", slog.Any("error", err))
			return nil, err
		}
		s.logger.Error("failed to rotate refresh session", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Owner vanished (soft-deleted) between issuance and refresh.
			s.logger.Info("refresh rejected: owner not found", slog.String("user_id", session.UserID))
			return nil, models.ErrTokenNotFound
		}
		s.logger.Error("failed to load session owner", slog.String("user_id", session.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	authorities, err := s.roles.GetAuthorities(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to resolve authorities", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	user.Roles = authorities

	accessToken, expiresAt, err := s.tm.GenerateAccessToken(user, authorities)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("refresh session rotated", slog.String("user_id", user.ID))

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: newRaw,
		ExpiresIn:    int64(time.Until(expiresAt).Seconds()),
		User:         userModelToResponse(user),
	}, nil
}

// Logout revokes the session the token resolves to. A missing token, or one
// that resolves to nothing, is not an error: logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, rawRefreshToken string) error {
	rawRefreshToken = strings.TrimSpace(rawRefreshToken)
	if rawRefreshToken == "" {
		return nil
	}

	session, err := s.sessions.GetByDigest(ctx, s.tm.DigestRefreshToken(rawRefreshToken))
	if err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			return nil
		}
		s.logger.Error("failed to resolve session for logout", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.sessions.Revoke(ctx, session.ID); err != nil {
		s.logger.Error("failed to revoke session", slog.String("session_id", session.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user logged out", slog.String("user_id", session.UserID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "logout",
		UserID:    session.UserID,
		Success:   true,
	})

	return nil
}

// CurrentUser returns the identity summary for an authenticated subject.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get current user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	authorities, err := s.roles.GetAuthorities(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to resolve authorities", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	user.Roles = authorities

	return userModelToResponse(user), nil
}

// issueCredentials mints the access token and replaces the identity's
// refresh session. Called only after authentication has succeeded.
func (s *AuthService) issueCredentials(ctx context.Context, user *models.User) (*AuthResponse, error) {
	authorities, err := s.roles.GetAuthorities(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to resolve authorities", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	user.Roles = authorities

	accessToken, expiresAt, err := s.tm.GenerateAccessToken(user, authorities)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	rawRefresh, err := s.tm.GenerateRefreshToken()
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if _, err := s.sessions.Replace(ctx, user.ID, s.tm.DigestRefreshToken(rawRefresh), s.cfg.RefreshTokenExpiry); err != nil {
		s.logger.Error("failed to replace refresh session", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: rawRefresh,
		ExpiresIn:    int64(time.Until(expiresAt).Seconds()),
		User:         userModelToResponse(user),
	}, nil
}

func (s *AuthService) failDelay() {
	if s.timingDelay != nil {
		s.timingDelay.WaitOnFailure()
	}
}

// userModelToResponse converts a user model to its response DTO
func userModelToResponse(user *models.User) *UserResponse {
	roles := user.Authorities()
	if roles == nil {
		roles = []string{}
	}
	return &UserResponse{
		ID:                  user.ID,
		Username:            user.Username,
		Email:               user.Email,
		EmailVerified:       user.EmailVerified,
		AccountLocked:       user.AccountLocked,
		FailedLoginAttempts: user.FailedLoginAttempts,
		LastLoginAt:         user.LastLoginAt,
		Roles:               roles,
		CreatedAt:           user.CreatedAt.Format(time.RFC3339),
	}
}
