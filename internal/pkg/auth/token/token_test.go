package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func TestGenerateAndParse(t *testing.T) {
	sessionID := uuid.New()

	tokenString, err := Generate(sessionID, testSecret, ResumeExpiration)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	parsedID, err := Parse(tokenString, testSecret)
	require.NoError(t, err)
	require.Equal(t, sessionID, parsedID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tokenString, err := Generate(uuid.New(), testSecret, ResumeExpiration)
	require.NoError(t, err)

	_, err = Parse(tokenString, "a-different-secret")
	require.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	tokenString, err := Generate(uuid.New(), testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = Parse(tokenString, testSecret)
	require.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("definitely.not.a-jwt", testSecret)
	require.Error(t, err)

	_, err = Parse("", testSecret)
	require.Error(t, err)
}
