package handlers

import (
	"context"

	"github.com/vsai-vivek/DataVionAuthentication/internal/models"
	"github.com/vsai-vivek/DataVionAuthentication/internal/services"
)

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterFunc    func(ctx context.Context, username, email, password string) (*services.AuthResponse, error)
	LoginFunc       func(ctx context.Context, usernameOrEmail, password string) (*services.AuthResponse, error)
	RefreshFunc     func(ctx context.Context, refreshToken string) (*services.AuthResponse, error)
	LogoutFunc      func(ctx context.Context, refreshToken string) error
	CurrentUserFunc func(ctx context.Context, userID string) (*services.UserResponse, error)
}

func (m *MockAuthService) Register(ctx context.Context, username, email, password string) (*services.AuthResponse, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, username, email, password)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAuthService) Login(ctx context.Context, usernameOrEmail, password string) (*services.AuthResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, usernameOrEmail, password)
	}
	return nil, models.ErrInvalidCredentials
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	return nil, models.ErrTokenNotFound
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, refreshToken)
	}
	return nil
}

func (m *MockAuthService) CurrentUser(ctx context.Context, userID string) (*services.UserResponse, error) {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

// MockUserService implements UserServiceInterface for testing
type MockUserService struct {
	GetUserFunc   func(ctx context.Context, id string) (*services.UserResponse, error)
	ListUsersFunc func(ctx context.Context, limit, offset int) ([]*services.UserResponse, error)
	UnlockFunc    func(ctx context.Context, id string) error
}

func (m *MockUserService) GetUser(ctx context.Context, id string) (*services.UserResponse, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserService) ListUsers(ctx context.Context, limit, offset int) ([]*services.UserResponse, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx, limit, offset)
	}
	return []*services.UserResponse{}, nil
}

func (m *MockUserService) Unlock(ctx context.Context, id string) error {
	if m.UnlockFunc != nil {
		return m.UnlockFunc(ctx, id)
	}
	return nil
}

func testAuthResponse() *services.AuthResponse {
	return &services.AuthResponse{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresIn:    900,
		User: &services.UserResponse{
			ID:       "user-1",
			Username: "jdoe",
			Email:    "jdoe@example.com",
			Roles:    []string{"USER"},
		},
	}
}
