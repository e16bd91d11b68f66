package models

import "github.com/golang-jwt/jwt/v5"

// Token types carried in the typ claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// JWTClaims is the payload shared by access and refresh tokens.
type JWTClaims struct {
	UserID     string   `json:"user_id"`
	SessionID  string   `json:"session_id"`
	Email      string   `json:"email,omitempty"`
	UserName   string   `json:"user_name,omitempty"`
	Roles      []string `json:"roles,omitempty"`
	Privileged bool     `json:"privileged,omitempty"`
	Elevated   bool     `json:"elevated,omitempty"`
	// SecurityStamp is only present in refresh tokens.
	SecurityStamp string `json:"stamp,omitempty"`
	TokenType     string `json:"typ"`
	jwt.RegisteredClaims
}

// HasRole reports whether the claims include role.
func (c *JWTClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
