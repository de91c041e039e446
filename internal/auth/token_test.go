package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsai-vivek/DataVionAuthentication/internal/models"
)

const (
	testSecret    = "unit-test-jwt-secret-0123456789abcdef"
	testDigestKey = "unit-test-digest-key-0123456789abcdef"
)

func newTestTokenManager(accessExpiry time.Duration) *TokenManager {
	return NewTokenManager(testSecret, testDigestKey, accessExpiry)
}

func testUser() *models.User {
	return &models.User{
		ID:       "user-1",
		Username: "jdoe",
		Email:    "jdoe@example.com",
	}
}

func TestTokenManager_AccessTokenRoundTrip(t *testing.T) {
	tm := newTestTokenManager(15 * time.Minute)

	token, expiresAt, err := tm.GenerateAccessToken(testUser(), []string{"USER", "users:READ"})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := tm.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "jdoe", claims.Username)
	assert.Equal(t, models.TokenTypeAccess, claims.Type)
	assert.True(t, claims.HasAuthority("users:READ"))
	assert.False(t, claims.HasAuthority("users:DELETE"))
	assert.NotEmpty(t, claims.ID, "jti should be set")
}

func TestTokenManager_ExpiredAccessToken(t *testing.T) {
	tm := newTestTokenManager(-1 * time.Minute)

	token, _, err := tm.GenerateAccessToken(testUser(), nil)
	require.NoError(t, err)

	_, err = tm.ValidateAccessToken(token)
	assert.ErrorIs(t, err, models.ErrTokenExpired)
}

func TestTokenManager_BadSignature(t *testing.T) {
	tm := newTestTokenManager(15 * time.Minute)
	other := NewTokenManager("a-completely-different-signing-secret", testDigestKey, 15*time.Minute)

	token, _, err := other.GenerateAccessToken(testUser(), nil)
	require.NoError(t, err)

	_, err = tm.ValidateAccessToken(token)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestTokenManager_MalformedToken(t *testing.T) {
	tm := newTestTokenManager(15 * time.Minute)

	_, err := tm.ValidateAccessToken("not.a.jwt")
	assert.ErrorIs(t, err, models.ErrInvalidToken)

	_, err = tm.ValidateAccessToken("")
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}

func TestTokenManager_RefreshTokenIsOpaqueAndUnique(t *testing.T) {
	tm := newTestTokenManager(15 * time.Minute)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		raw, err := tm.GenerateRefreshToken()
		require.NoError(t, err)
		require.NotEmpty(t, raw)
		assert.False(t, seen[raw], "refresh tokens must not repeat")
		seen[raw] = true

		// Opaque: validating it as an access token must fail
		_, err = tm.ValidateAccessToken(raw)
		assert.ErrorIs(t, err, models.ErrInvalidToken)
	}
}

func TestTokenManager_DigestDeterministic(t *testing.T) {
	tm := newTestTokenManager(15 * time.Minute)

	raw, err := tm.GenerateRefreshToken()
	require.NoError(t, err)

	d1 := tm.DigestRefreshToken(raw)
	d2 := tm.DigestRefreshToken(raw)
	assert.Equal(t, d1, d2, "same raw token must always produce the same digest")
	assert.Len(t, d1, 64, "hex-encoded sha256")

	other, err := tm.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, d1, tm.DigestRefreshToken(other), "distinct tokens must produce distinct digests")
}

func TestTokenManager_DigestKeyed(t *testing.T) {
	tm := newTestTokenManager(15 * time.Minute)
	otherKey := NewTokenManager(testSecret, "a-different-digest-key", 15*time.Minute)

	raw := "same-raw-token"
	assert.NotEqual(t, tm.DigestRefreshToken(raw), otherKey.DigestRefreshToken(raw),
		"digest must depend on the key")
}
