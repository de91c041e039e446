package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vsai-vivek/DataVionAuthentication/internal/models"
)

const refreshTokenBytes = 32

// TokenManager mints signed access tokens and opaque refresh tokens. The
// signing secret and the digest key are loaded once at startup; mid-process
// rotation is an extension point, not implemented.
type TokenManager struct {
	secret            []byte
	digestKey         []byte
	accessTokenExpiry time.Duration
}

// NewTokenManager creates a TokenManager. digestKey is dedicated to refresh
// token digests and must not be the JWT secret.
func NewTokenManager(secret, digestKey string, accessExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:            []byte(secret),
		digestKey:         []byte(digestKey),
		accessTokenExpiry: accessExpiry,
	}
}

// GenerateAccessToken creates a short-lived signed token embedding the
// subject, username and authority set. The returned time is the embedded expiry.
func (tm *TokenManager) GenerateAccessToken(user *models.User, authorities []string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(tm.accessTokenExpiry)

	claims := &models.AccessClaims{
		Type:        models.TokenTypeAccess,
		Username:    user.Username,
		Authorities: authorities,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// GenerateRefreshToken creates a high-entropy opaque refresh token. It
// carries no claims; its only proof of validity is its digest's presence,
// non-expiry and non-revocation in the refresh session store.
func (tm *TokenManager) GenerateRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DigestRefreshToken computes the deterministic keyed digest stored and
// looked up in place of the raw token. The same raw token always produces
// the same digest, so equality lookup works; the key keeps a leaked sessions
// table from being a usable token list.
func (tm *TokenManager) DigestRefreshToken(raw string) string {
	mac := hmac.New(sha256.New, tm.digestKey)
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidateAccessToken verifies signature and expiry and returns the claims.
// Expiry and signature failures are distinguished so callers can decide
// whether a refresh is worth attempting.
func (tm *TokenManager) ValidateAccessToken(tokenString string) (*models.AccessClaims, error) {
	claims := &models.AccessClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrTokenExpired
		}
		return nil, models.ErrInvalidToken
	}

	if !token.Valid {
		return nil, models.ErrInvalidToken
	}

	if claims.Type != models.TokenTypeAccess {
		return nil, models.ErrInvalidToken
	}

	return claims, nil
}
