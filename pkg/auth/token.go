package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/fasilahammed/snapmob-client/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// DecodeAccessToken parses the backend-issued bearer token into a Session.
// The client never holds the signing secret, so the signature is not
// verified here; the backend remains the authority and every API call is
// re-checked server side. Only structural validity, the required claims and
// the expiry are enforced locally.
func DecodeAccessToken(tokenString string, now time.Time) (*Session, error) {
	trimmed := strings.TrimSpace(tokenString)
	if trimmed == "" {
		return nil, fmt.Errorf("access token is empty")
	}

	claims := &AccessTokenClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(trimmed, claims); err != nil {
		return nil, fmt.Errorf("decoding access token: %w", err)
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("access token missing user id claim")
	}
	if claims.Blocked {
		return nil, fmt.Errorf("account is blocked")
	}

	role, err := enums.ParseUserRole(strings.ToLower(claims.Role))
	if err != nil {
		return nil, fmt.Errorf("access token role: %w", err)
	}

	var expiry time.Time
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}
	if !expiry.IsZero() && expiry.Before(now) {
		return nil, fmt.Errorf("access token expired at %s", expiry.Format(time.RFC3339))
	}

	return &Session{
		UserID:      claims.UserID,
		Email:       claims.Email,
		Role:        role,
		DisplayName: claims.DisplayName,
		TokenExpiry: expiry,
	}, nil
}
