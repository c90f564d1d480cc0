package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateInternalToken(t *testing.T) {
	svc := NewJWTService("test-secret", "vitrine-checkout-api")

	token, err := svc.GenerateInternalToken("ops")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "internal", claims.Scope)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, "vitrine-checkout-api", claims.Issuer)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", "vitrine-checkout-api").GenerateInternalToken("ops")
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", "vitrine-checkout-api").ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsWrongIssuer(t *testing.T) {
	token, err := NewJWTService("test-secret", "someone-else").GenerateInternalToken("ops")
	require.NoError(t, err)

	_, err = NewJWTService("test-secret", "vitrine-checkout-api").ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := NewJWTService("test-secret", "vitrine-checkout-api").ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
