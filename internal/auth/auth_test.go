package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/parley/internal/auth"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)

	token, err := tm.Generate("user123", "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user123", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "user123", claims.Subject)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	tm := auth.NewTokenManager("secret-a", time.Hour)
	other := auth.NewTokenManager("secret-b", time.Hour)

	token, err := tm.Generate("user123", "alice@example.com")
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_Expired(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", -time.Minute)

	token, err := tm.Generate("user123", "alice@example.com")
	require.NoError(t, err)

	_, err = tm.Validate(token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestTokenManager_Garbage(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)

	_, err := tm.Validate("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestPasswordHasher(t *testing.T) {
	h := auth.NewPasswordHasher()

	hash, err := h.Hash("hunter22")
	require.NoError(t, err)
	require.NotEqual(t, "hunter22", hash)

	assert.True(t, h.Verify("hunter22", hash))
	assert.False(t, h.Verify("hunter23", hash))
	assert.False(t, h.Verify("hunter22", "not-a-hash"))
}
