package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "employee-compass/pkg/domain"
)

func TestGenerateAndValidateRoundTrip(t *testing.T) {
	svc := New("test-signing-key")
	userID := id.NewUserID()

	signed, err := svc.GenerateAccessToken(userID, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := svc.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.NotEmpty(t, claims.JTI)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	signed, err := New("key-one").GenerateAccessToken(id.NewUserID(), time.Hour)
	require.NoError(t, err)

	_, err = New("key-two").ValidateToken(signed)
	assert.Error(t, err)
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := New("test-signing-key")
	signed, err := svc.GenerateAccessToken(id.NewUserID(), -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := New("test-signing-key").ValidateToken("not-a-jwt")
	assert.Error(t, err)
}
