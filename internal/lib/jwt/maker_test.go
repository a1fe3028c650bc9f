package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTMaker_GenerateAndParseToken_ValidCases(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	tokenTTL := 15 * time.Minute
	maker := NewJWTMaker(secretKey, tokenTTL)

	tests := []struct {
		name     string
		username string
		role     string
	}{
		{
			name:     "admin",
			username: "gym_admin",
			role:     "admin",
		},
		{
			name:     "reception desk",
			username: "reception1",
			role:     "reception",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.username, tt.role)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, tt.username, claims.Username)
			assert.Equal(t, tt.role, claims.Role)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second)
			assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	maker := NewJWTMaker("test_secret_key_1234567890", 15*time.Minute)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "empty", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := maker.ParseToken(tt.token)
			require.Error(t, err)
		})
	}
}

func TestJWTMaker_ParseToken_WrongKey(t *testing.T) {
	maker := NewJWTMaker("original_key_1234567890", 15*time.Minute)
	other := NewJWTMaker("another_key_0987654321", 15*time.Minute)

	token, err := maker.GenerateToken("reception1", "reception")
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	require.Error(t, err)
}

func TestJWTMaker_ParseToken_Expired(t *testing.T) {
	maker := NewJWTMaker("test_secret_key_1234567890", -time.Minute)

	token, err := maker.GenerateToken("reception1", "reception")
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	require.Error(t, err)
}
