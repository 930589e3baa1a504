package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := "test-secret"
	userID := uuid.New()

	token, err := GenerateToken(secret, userID, time.Hour)
	require.NoError(t, err)

	parsed, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("right-secret", uuid.New(), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("wrong-secret", token)
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken("secret", uuid.New(), -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-password", hash)

	assert.True(t, CheckPassword(hash, "s3cret-password"))
	assert.False(t, CheckPassword(hash, "wrong-password"))
}
