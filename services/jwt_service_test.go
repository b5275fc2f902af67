package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-platform-server/config"
	"service-platform-server/database"
	"service-platform-server/models"
	"service-platform-server/utils"
)

func newJWTService(t *testing.T) *JWTService {
	t.Helper()
	config.Load()
	database.DB = newTestDB(t)
	return NewJWTService()
}

func TestGenerateAndRefreshTokenPair(t *testing.T) {
	js := newJWTService(t)
	user := createCustomer(t, database.DB, "c1@test.com")

	pair, err := js.GenerateTokenPair(user.ID, string(user.Role), "device-1", "test-agent", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Greater(t, pair.ExpiresIn, int64(0))

	claims, err := utils.VerifyToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, string(models.RoleCustomer), claims.Role)

	refreshed, err := js.RefreshAccessToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshToken, refreshed.RefreshToken)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestValidateRefreshTokenExpiry(t *testing.T) {
	js := newJWTService(t)
	user := createCustomer(t, database.DB, "c1@test.com")

	pair, err := js.GenerateTokenPair(user.ID, string(user.Role), "", "", "")
	require.NoError(t, err)

	_, err = js.ValidateRefreshToken("no-such-token")
	assert.Error(t, err)

	expired := time.Now().Add(-time.Hour)
	require.NoError(t, database.DB.Model(&models.RefreshToken{}).
		Where("token = ?", pair.RefreshToken).Update("expires_at", expired).Error)

	_, err = js.ValidateRefreshToken(pair.RefreshToken)
	assert.Error(t, err)
}

func TestRevokeRefreshTokens(t *testing.T) {
	js := newJWTService(t)
	user := createCustomer(t, database.DB, "c1@test.com")

	pair, err := js.GenerateTokenPair(user.ID, string(user.Role), "", "", "")
	require.NoError(t, err)

	require.NoError(t, js.RevokeRefreshToken(pair.RefreshToken))
	_, err = js.ValidateRefreshToken(pair.RefreshToken)
	assert.Error(t, err)

	// Revoking an already deleted token reports it missing
	assert.Error(t, js.RevokeRefreshToken(pair.RefreshToken))

	first, err := js.GenerateTokenPair(user.ID, string(user.Role), "d1", "", "")
	require.NoError(t, err)
	second, err := js.GenerateTokenPair(user.ID, string(user.Role), "d2", "", "")
	require.NoError(t, err)

	require.NoError(t, js.RevokeAllUserTokens(user.ID))
	_, err = js.ValidateRefreshToken(first.RefreshToken)
	assert.Error(t, err)
	_, err = js.ValidateRefreshToken(second.RefreshToken)
	assert.Error(t, err)
}

func TestCleanupExpiredTokens(t *testing.T) {
	js := newJWTService(t)
	user := createCustomer(t, database.DB, "c1@test.com")

	keep, err := js.GenerateTokenPair(user.ID, string(user.Role), "", "", "")
	require.NoError(t, err)
	drop, err := js.GenerateTokenPair(user.ID, string(user.Role), "", "", "")
	require.NoError(t, err)

	expired := time.Now().Add(-time.Minute)
	require.NoError(t, database.DB.Model(&models.RefreshToken{}).
		Where("token = ?", drop.RefreshToken).Update("expires_at", expired).Error)

	require.NoError(t, js.CleanupExpiredTokens())

	_, err = js.ValidateRefreshToken(keep.RefreshToken)
	assert.NoError(t, err)

	var count int64
	require.NoError(t, database.DB.Model(&models.RefreshToken{}).
		Where("token = ?", drop.RefreshToken).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
