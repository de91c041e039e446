package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vsai-vivek/DataVionAuthentication/internal/models"
	pkglogger "github.com/vsai-vivek/DataVionAuthentication/pkg/logger"
)

// UserService handles the administrative user surface: lookups, listing and
// the unlock operation, which bypasses the authentication path entirely.
type UserService struct {
	users       UserRepository
	roles       RoleRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewUserService creates a new UserService.
func NewUserService(users UserRepository, roles RoleRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *UserService {
	return &UserService{
		users:       users,
		roles:       roles,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// GetUser retrieves a user by ID. Soft-deleted identities are not found.
func (s *UserService) GetUser(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("user not found", slog.String("user_id", id))
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
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

// ListUsers retrieves non-deleted users with pagination.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*UserResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", slog.Int("limit", limit), slog.Int("offset", offset), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	responses := make([]*UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, userModelToResponse(user))
	}
	return responses, nil
}

// Unlock transitions a locked identity back to active: lock cleared,
// counter reset. ErrNotFound when the identity is absent or soft-deleted.
func (s *UserService) Unlock(ctx context.Context, id string) error {
	if err := s.users.Unlock(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("unlock failed: user not found", slog.String("user_id", id))
			return models.ErrNotFound
		}
		s.logger.Error("failed to unlock user", slog.String("user_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user unlocked", slog.String("user_id", id))
	s.auditLogger.LogAccountAction("account_unlocked", id, nil)

	return nil
}
