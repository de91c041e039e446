package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsai-vivek/DataVionAuthentication/internal/auth"
	"github.com/vsai-vivek/DataVionAuthentication/internal/models"
	"github.com/vsai-vivek/DataVionAuthentication/internal/services"
)

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestAuthHandler_Register_Success(t *testing.T) {
	service := &MockAuthService{
		RegisterFunc: func(ctx context.Context, username, email, password string) (*services.AuthResponse, error) {
			assert.Equal(t, "jdoe", username)
			return testAuthResponse(), nil
		},
	}
	handler := NewAuthHandler(service)

	rec := postJSON(t, handler.Register, "/auth/register", RegisterRequest{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Password: "correct-horse-battery",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp services.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "access-token", resp.AccessToken)
	assert.Equal(t, "refresh-token", resp.RefreshToken)
}

func TestAuthHandler_Register_DuplicateUsername(t *testing.T) {
	service := &MockAuthService{
		RegisterFunc: func(ctx context.Context, username, email, password string) (*services.AuthResponse, error) {
			return nil, models.ErrDuplicateUsername
		},
	}
	handler := NewAuthHandler(service)

	rec := postJSON(t, handler.Register, "/auth/register", RegisterRequest{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		Password: "correct-horse-battery",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuthHandler_Register_ValidationFailure(t *testing.T) {
	called := false
	service := &MockAuthService{
		RegisterFunc: func(ctx context.Context, username, email, password string) (*services.AuthResponse, error) {
			called = true
			return testAuthResponse(), nil
		},
	}
	handler := NewAuthHandler(service)

	rec := postJSON(t, handler.Register, "/auth/register", RegisterRequest{
		Username: "jdoe",
		Email:    "not-an-email",
		Password: "short",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called, "validation failures must not reach the service")
}

func TestAuthHandler_Register_MalformedBody(t *testing.T) {
	handler := NewAuthHandler(&MockAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	handler.Register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Login_Success(t *testing.T) {
	service := &MockAuthService{
		LoginFunc: func(ctx context.Context, usernameOrEmail, password string) (*services.AuthResponse, error) {
			assert.Equal(t, "jdoe", usernameOrEmail)
			return testAuthResponse(), nil
		},
	}
	handler := NewAuthHandler(service)

	rec := postJSON(t, handler.Login, "/auth/login", LoginRequest{
		UsernameOrEmail: "jdoe",
		Password:        "correct-horse-battery",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthHandler_Login_FailuresCollapseTo401(t *testing.T) {
	// Credential, lockout and verification failures must be
	// indistinguishable on the wire.
	for _, serviceErr := range []error{
		models.ErrInvalidCredentials,
		models.ErrAccountLocked,
		models.ErrEmailNotVerified,
	} {
		service := &MockAuthService{
			LoginFunc: func(ctx context.Context, usernameOrEmail, password string) (*services.AuthResponse, error) {
				return nil, serviceErr
			},
		}
		handler := NewAuthHandler(service)

		rec := postJSON(t, handler.Login, "/auth/login", LoginRequest{
			UsernameOrEmail: "jdoe",
			Password:        "wrong",
		})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Authentication failed")
		assert.NotContains(t, rec.Body.String(), "locked")
		assert.NotContains(t, rec.Body.String(), "verified")
	}
}

func TestAuthHandler_Refresh_Success(t *testing.T) {
	service := &MockAuthService{
		RefreshFunc: func(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
			assert.Equal(t, "old-refresh-token", refreshToken)
			return testAuthResponse(), nil
		},
	}
	handler := NewAuthHandler(service)

	rec := postJSON(t, handler.Refresh, "/auth/refresh", RefreshRequest{RefreshToken: "old-refresh-token"})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthHandler_Refresh_TokenErrorsTo401(t *testing.T) {
	for _, serviceErr := range []error{
		models.ErrTokenNotFound,
		models.ErrTokenExpired,
		models.ErrTokenRevoked,
	} {
		service := &MockAuthService{
			RefreshFunc: func(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
				return nil, serviceErr
			},
		}
		handler := NewAuthHandler(service)

		rec := postJSON(t, handler.Refresh, "/auth/refresh", RefreshRequest{RefreshToken: "stale"})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthHandler_Refresh_MissingToken(t *testing.T) {
	handler := NewAuthHandler(&MockAuthService{})

	rec := postJSON(t, handler.Refresh, "/auth/refresh", RefreshRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Logout_Always204(t *testing.T) {
	var revoked string
	service := &MockAuthService{
		LogoutFunc: func(ctx context.Context, refreshToken string) error {
			revoked = refreshToken
			return nil
		},
	}
	handler := NewAuthHandler(service)

	rec := postJSON(t, handler.Logout, "/auth/logout", LogoutRequest{RefreshToken: "refresh-token"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "refresh-token", revoked)

	// No body at all is still a 204.
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec = httptest.NewRecorder()
	handler.Logout(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthHandler_Me(t *testing.T) {
	service := &MockAuthService{
		CurrentUserFunc: func(ctx context.Context, userID string) (*services.UserResponse, error) {
			assert.Equal(t, "user-1", userID)
			return &services.UserResponse{ID: "user-1", Username: "jdoe"}, nil
		},
	}
	handler := NewAuthHandler(service)

	claims := &models.AccessClaims{
		Type:     models.TokenTypeAccess,
		Username: "jdoe",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(context.WithValue(req.Context(), auth.UserContextKey, claims))
	rec := httptest.NewRecorder()
	handler.Me(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp services.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "jdoe", resp.Username)
}

func TestAuthHandler_Me_NoClaims(t *testing.T) {
	handler := NewAuthHandler(&MockAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	handler.Me(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
