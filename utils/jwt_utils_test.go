package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataorbit/api/models"
	"dataorbit/api/utils"
)

func TestJWTRoundTrip(t *testing.T) {
	user := &models.User{ID: 7, Email: "admin@example.com"}

	token, err := utils.GenerateJWT(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := utils.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, "dataorbit-api", claims.Issuer)
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	_, err := utils.ValidateJWT("not-a-token")
	assert.Error(t, err)
}

func TestValidateJWTRejectsTamperedToken(t *testing.T) {
	token, err := utils.GenerateJWT(&models.User{ID: 7, Email: "admin@example.com"})
	require.NoError(t, err)

	_, err = utils.ValidateJWT(token + "x")
	assert.Error(t, err)
}
