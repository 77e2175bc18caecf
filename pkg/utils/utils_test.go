package utils

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateStateToken(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		token, err := GenerateStateToken()
		require.NoError(t, err)

		raw, err := base64.RawURLEncoding.DecodeString(token)
		require.NoError(t, err)
		assert.Len(t, raw, 32)

		_, dup := seen[token]
		require.False(t, dup, "duplicate state token %q", token)
		seen[token] = struct{}{}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	token, err := GenerateToken("secret", "user-1", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	_, err = ValidateToken("other-secret", token)
	require.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	t.Parallel()

	token, err := GenerateToken("secret", "user-1", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken("secret", token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}
