package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT(t *testing.T) {
	token, err := GenerateToken("u1", "admin", "jti-1", "supersecret", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, "supersecret")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "jti-1", claims.ID)

	_, err = ValidateToken(token, "wrongsecret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTExpired(t *testing.T) {
	token, err := GenerateToken("u1", "client", "jti-2", "supersecret", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, "supersecret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
