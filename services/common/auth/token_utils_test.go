package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenValidator_RequiresSecret(t *testing.T) {
	_, err := NewTokenValidator("  ")
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestIssueAndValidate(t *testing.T) {
	v, err := NewTokenValidator("test-secret")
	require.NoError(t, err)

	tok, err := v.IssueToken("batch-runner", "access", time.Hour)
	require.NoError(t, err)

	claims, err := v.ParseAndValidateToken(tok, "access")
	require.NoError(t, err)
	assert.Equal(t, "batch-runner", claims["sub"])

	_, err = v.ParseAndValidateToken(tok, "refresh")
	assert.EqualError(t, err, "invalid token type")
}

func TestValidate_Rejects(t *testing.T) {
	v, _ := NewTokenValidator("test-secret")
	other, _ := NewTokenValidator("other-secret")

	expired, err := v.IssueToken("x", "", -time.Minute)
	require.NoError(t, err)
	_, err = v.ParseAndValidateToken(expired, "")
	assert.Error(t, err)

	foreign, _ := other.IssueToken("x", "", time.Hour)
	_, err = v.ParseAndValidateToken(foreign, "")
	assert.Error(t, err)

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	_, err = v.ParseAndValidateToken(none, "")
	assert.Error(t, err)

	_, err = v.ParseAndValidateToken("garbage", "")
	assert.Error(t, err)
}
