package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, VerifyPassword(hash, "s3cret"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword("not-a-hash", "s3cret"))
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute)

	token, err := m.Issue("user-42")
	require.NoError(t, err)

	userID, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestTokenExpired(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute)
	m.ttl = -time.Minute

	token, err := m.Issue("user-42")
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Minute)
	verifier := NewTokenManager("secret-b", time.Minute)

	token, err := issuer.Issue("user-42")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenGarbage(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute)
	_, err := m.Verify("not.a.token")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestDefaultTTL(t *testing.T) {
	m := NewTokenManager("test-secret", 0)
	assert.Equal(t, DefaultTokenTTL, m.ttl)
}
