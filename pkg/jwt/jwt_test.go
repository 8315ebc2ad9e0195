package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService("access-secret", "refresh-secret", time.Hour, 7*24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestService()
	userID := uuid.New()
	centerIDs := []string{uuid.New().String()}

	token, err := svc.GenerateAccessToken(userID, "lead@tofa.in", "team_lead", centerIDs)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "lead@tofa.in", claims.Email)
	assert.Equal(t, "team_lead", claims.Role)
	assert.Equal(t, centerIDs, claims.CenterIDs)
	assert.Equal(t, AccessToken, claims.TokenType)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	svc := newTestService()

	refresh, err := svc.GenerateRefreshToken(uuid.New(), "coach@tofa.in")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(refresh)
	assert.Error(t, err, "refresh token must not validate as access token")

	claims, err := svc.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, RefreshToken, claims.TokenType)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	svc := newTestService()
	other := NewService("different-secret", "refresh-secret", time.Hour, time.Hour)

	token, err := svc.GenerateAccessToken(uuid.New(), "member@tofa.in", "team_member", nil)
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestIsTokenExpired(t *testing.T) {
	expired := NewService("s", "r", -time.Minute, -time.Minute)
	token, err := expired.GenerateAccessToken(uuid.New(), "x@tofa.in", "coach", nil)
	require.NoError(t, err)

	assert.True(t, expired.IsTokenExpired(token))
	assert.True(t, expired.IsTokenExpired("garbage"))

	fresh, err := newTestService().GenerateAccessToken(uuid.New(), "x@tofa.in", "coach", nil)
	require.NoError(t, err)
	assert.False(t, newTestService().IsTokenExpired(fresh))
}
