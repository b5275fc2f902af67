package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-platform-server/config"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Str0ngPass")
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ngPass", hash)

	assert.True(t, CheckPasswordHash("Str0ngPass", hash))
	assert.False(t, CheckPasswordHash("wrongpass", hash))
}

func TestTokenRoundTrip(t *testing.T) {
	config.Load()

	token, err := GenerateToken(42, "worker")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "worker", claims.Role)

	_, err = VerifyToken(token + "tampered")
	assert.Error(t, err)
}

func TestGeneratePassword(t *testing.T) {
	first, err := GeneratePassword(10)
	require.NoError(t, err)
	assert.Len(t, first, 10)

	second, err := GeneratePassword(10)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	for _, c := range first {
		assert.Contains(t, passwordAlphabet, string(c))
	}
}
