package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Token type claim values
const (
	TokenTypeAccess = "access"
)

// AccessClaims are the signed claims embedded in an access token. They are
// verifiable without a database round trip.
type AccessClaims struct {
	Type        string   `json:"type"`
	Username    string   `json:"username"`
	Authorities []string `json:"authorities,omitempty"`
	jwt.RegisteredClaims
}

// HasAuthority reports whether the claim set carries the given authority.
func (c *AccessClaims) HasAuthority(authority string) bool {
	for _, a := range c.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}
