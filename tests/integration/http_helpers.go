package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"

	"github.com/vsai-vivek/DataVionAuthentication/internal/auth"
	"github.com/vsai-vivek/DataVionAuthentication/internal/handlers"
	"github.com/vsai-vivek/DataVionAuthentication/internal/repositories"
	"github.com/vsai-vivek/DataVionAuthentication/internal/routes"
	"github.com/vsai-vivek/DataVionAuthentication/internal/services"
	pkglogger "github.com/vsai-vivek/DataVionAuthentication/pkg/logger"
)

const (
	testJWTSecret  = "integration-jwt-secret-32-chars!"
	testDigestKey  = "integration-digest-key-32-chars!"
	testBcryptCost = 4
)

// TestServer wires the full application stack over a test database.
type TestServer struct {
	Server       *httptest.Server
	TokenManager *auth.TokenManager
	AuthService  *services.AuthService
	UserService  *services.UserService
	Sessions     *repositories.RefreshSessionRepository
	Users        *repositories.UserRepository
}

// NewTestServer builds the stack the way cmd/api does, minus the process
// lifecycle concerns.
func NewTestServer(db *TestDB) *TestServer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	userRepo := repositories.NewUserRepository(db.DB)
	roleRepo := repositories.NewRoleRepository(db.DB)
	sessionRepo := repositories.NewRefreshSessionRepository(db.DB)

	tokenManager := auth.NewTokenManager(testJWTSecret, testDigestKey, 15*time.Minute)
	auditLogger := pkglogger.NewAuditLogger(logger)

	authService := services.NewAuthService(
		userRepo,
		roleRepo,
		sessionRepo,
		tokenManager,
		nil,
		logger,
		auditLogger,
		services.AuthConfig{
			RefreshTokenExpiry:         time.Hour,
			AccessTokenExpiry:          15 * time.Minute,
			LockoutThreshold:           5,
			BcryptCost:                 testBcryptCost,
			CaseInsensitiveIdentifiers: true,
		},
	)
	userService := services.NewUserService(userRepo, roleRepo, logger, auditLogger)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	routes.RegisterRoutes(router, handlers.NewAuthHandler(authService), handlers.NewUserHandler(userService), tokenManager)

	return &TestServer{
		Server:       httptest.NewServer(router),
		TokenManager: tokenManager,
		AuthService:  authService,
		UserService:  userService,
		Sessions:     sessionRepo,
		Users:        userRepo,
	}
}

// Close shuts the HTTP server down
func (ts *TestServer) Close() {
	ts.Server.Close()
}

// PostJSON sends a JSON POST and decodes the response body into out when
// out is non-nil. Returns the status code.
func (ts *TestServer) PostJSON(t *testing.T, path string, body any, headers map[string]string, out any) int {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for key, val := range headers {
		req.Header.Set(key, val)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// GetJSON sends a GET and decodes the response body into out when out is
// non-nil. Returns the status code.
func (ts *TestServer) GetJSON(t *testing.T, path string, headers map[string]string, out any) int {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, ts.Server.URL+path, nil)
	require.NoError(t, err)
	for key, val := range headers {
		req.Header.Set(key, val)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// BearerHeader builds an Authorization header map for a token.
func BearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": fmt.Sprintf("Bearer %s", token)}
}
