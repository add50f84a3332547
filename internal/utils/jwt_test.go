package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")
	userID := uuid.New()

	token, err := GenerateJWT(userID, "buyer@example.com", "customer", 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "buyer@example.com", claims.Email)
	assert.Equal(t, "customer", claims.UserType)
}

func TestJWTRejectsOtherSecret(t *testing.T) {
	SetJWTSecret("first-secret")
	token, err := GenerateJWT(uuid.New(), "a@example.com", "customer", 1)
	require.NoError(t, err)

	SetJWTSecret("second-secret")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestRefreshTokenCannotBeUsedAsAccessToken(t *testing.T) {
	SetJWTSecret("test-secret")
	userID := uuid.New()

	refresh, err := GenerateRefreshToken(userID, 24)
	require.NoError(t, err)

	subject, err := ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), subject)

	access, err := GenerateJWT(userID, "a@example.com", "customer", 1)
	require.NoError(t, err)
	_, err = ValidateRefreshToken(access)
	assert.Error(t, err)
}

func TestNewTransactionID(t *testing.T) {
	id := NewTransactionID()
	assert.Regexp(t, `^txn_[0-9a-f]{32}$`, id)
	assert.NotEqual(t, id, NewTransactionID())
	assert.Regexp(t, `^rfnd_[0-9a-f]{32}$`, NewRefundID())
}
