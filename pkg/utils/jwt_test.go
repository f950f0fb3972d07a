package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	SetSecret("test-secret")
	t.Cleanup(func() { SetSecret("secret") })

	token, err := GenerateToken("operator-1", []string{"sync_operator"}, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "operator-1", claims.UserID)
	assert.True(t, claims.HasRole("admin", "sync_operator"))
	assert.False(t, claims.HasRole("admin"))
}

func TestValidateTokenRejectsExpiredAndForeign(t *testing.T) {
	SetSecret("test-secret")
	t.Cleanup(func() { SetSecret("secret") })

	expired, err := GenerateToken("operator-1", nil, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(expired)
	assert.Error(t, err)

	SetSecret("other-secret")
	foreign, err := GenerateToken("operator-1", nil, time.Hour)
	require.NoError(t, err)
	SetSecret("test-secret")
	_, err = ValidateToken(foreign)
	assert.Error(t, err)
}

func TestValidateTokenRequiresIssuer(t *testing.T) {
	SetSecret("test-secret")
	t.Cleanup(func() { SetSecret("secret") })

	claims := UserClaims{
		UserID: "intruder",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}
