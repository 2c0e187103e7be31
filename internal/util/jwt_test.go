package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := ValidateToken("not.a.token")
	assert.Error(t, err)
}
