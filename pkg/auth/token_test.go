package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fasilahammed/snapmob-client/pkg/auth"
	"github.com/fasilahammed/snapmob-client/pkg/enums"
)

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("irrelevant"))
	require.NoError(t, err)
	return token
}

func TestDecodeAccessToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	token := mintToken(t, jwt.MapClaims{
		"nameid":      "u-1",
		"email":       "dev@example.com",
		"role":        "admin",
		"unique_name": "Dev Admin",
		"exp":         now.Add(time.Hour).Unix(),
	})

	session, err := auth.DecodeAccessToken(token, now)
	require.NoError(t, err)
	assert.Equal(t, "u-1", session.UserID)
	assert.Equal(t, "dev@example.com", session.Email)
	assert.Equal(t, enums.UserRoleAdmin, session.Role)
	assert.Equal(t, "Dev Admin", session.DisplayName)
	assert.True(t, session.IsAdmin())
	assert.False(t, session.Expired(now))
}

func TestDecodeAccessTokenRoleCaseInsensitive(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{
		"nameid": "u-1",
		"role":   "User",
	})

	session, err := auth.DecodeAccessToken(token, time.Now())
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleUser, session.Role)
	assert.False(t, session.IsAdmin())
}

func TestDecodeAccessTokenMissingUserID(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{"role": "user"})

	_, err := auth.DecodeAccessToken(token, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing user id")
}

func TestDecodeAccessTokenBlocked(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{
		"nameid":  "u-1",
		"role":    "user",
		"blocked": true,
	})

	_, err := auth.DecodeAccessToken(token, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}

func TestDecodeAccessTokenUnknownRole(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{
		"nameid": "u-1",
		"role":   "superuser",
	})

	_, err := auth.DecodeAccessToken(token, time.Now())
	require.Error(t, err)
}

func TestDecodeAccessTokenExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	token := mintToken(t, jwt.MapClaims{
		"nameid": "u-1",
		"role":   "user",
		"exp":    now.Add(-time.Minute).Unix(),
	})

	_, err := auth.DecodeAccessToken(token, now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestDecodeAccessTokenGarbage(t *testing.T) {
	_, err := auth.DecodeAccessToken("", time.Now())
	require.Error(t, err)

	_, err = auth.DecodeAccessToken("not-a-jwt", time.Now())
	require.Error(t, err)
}
