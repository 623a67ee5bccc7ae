package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "membership/pkg/domain-errors"
)

var sessionID = uuid.New()

func Test_IssueAndValidate(t *testing.T) {
	svc := NewJWTService("test-signing-key", "membership-test")
	token, err := svc.Issue(sessionID, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, sessionID, got)
}

func Test_Validate_InvalidToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "membership-test")
	_, err := svc.Validate("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_Validate_ExpiredToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "membership-test")
	token, err := svc.Issue(sessionID, -time.Hour)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session has expired")
}

func Test_Validate_WrongKey(t *testing.T) {
	token, err := NewJWTService("other-key", "membership-test").Issue(sessionID, time.Hour)
	require.NoError(t, err)

	_, err = NewJWTService("test-signing-key", "membership-test").Validate(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_Validate_WrongIssuer(t *testing.T) {
	token, err := NewJWTService("test-signing-key", "someone-else").Issue(sessionID, time.Hour)
	require.NoError(t, err)

	_, err = NewJWTService("test-signing-key", "membership-test").Validate(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_Validate_RejectsNoneAlgorithm(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		SessionID:        sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "membership-test"},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTService("test-signing-key", "membership-test").Validate(token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
