package auth

import (
	"time"

	"github.com/fasilahammed/snapmob-client/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenClaims mirrors the claim names the backend mints into its
// bearer tokens.
type AccessTokenClaims struct {
	UserID      string `json:"nameid"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	DisplayName string `json:"unique_name"`
	Blocked     bool   `json:"blocked,omitempty"`
	jwt.RegisteredClaims
}

// Session is the client's in-memory representation of an authenticated
// identity. Owned by the session manager; read-only everywhere else.
type Session struct {
	UserID      string         `json:"userId"`
	Email       string         `json:"email"`
	Role        enums.UserRole `json:"role"`
	DisplayName string         `json:"displayName"`
	TokenExpiry time.Time      `json:"tokenExpiry"`
}

// IsAdmin reports whether the session belongs to an admin account.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == enums.UserRoleAdmin
}

// Expired reports whether the session's token expiry has passed.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.TokenExpiry.IsZero() && s.TokenExpiry.Before(now)
}
