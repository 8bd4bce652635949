package token

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "metasignet/pkg/domain-errors"
	"metasignet/pkg/requestcontext"
)

const testKey = "test-signing-key-0123456789abcdef"

func TestIssueAndValidate(t *testing.T) {
	svc, err := NewService(testKey, time.Hour)
	require.NoError(t, err)

	signed, err := svc.Issue(context.Background(), "did:plc:abc123", "alice.bsky.social")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := svc.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "did:plc:abc123", claims.ActorID)
	assert.Equal(t, "alice.bsky.social", claims.Handle)
}

func TestIssueRequiresActor(t *testing.T) {
	svc, err := NewService(testKey, time.Hour)
	require.NoError(t, err)

	_, err = svc.Issue(context.Background(), "", "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc, err := NewService(testKey, time.Minute)
	require.NoError(t, err)

	// Issue in the past so the token is already expired.
	past := requestcontext.WithTime(context.Background(), time.Now().Add(-2*time.Minute))
	signed, err := svc.Issue(past, "did:plc:abc123", "")
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateRejectsWrongKey(t *testing.T) {
	svc, err := NewService(testKey, time.Hour)
	require.NoError(t, err)
	other, err := NewService("another-key-another-key-another", time.Hour)
	require.NoError(t, err)

	signed, err := other.Issue(context.Background(), "did:plc:abc123", "")
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	require.Error(t, err)
}

func TestValidateRejectsUnsignedAlgorithm(t *testing.T) {
	svc, err := NewService(testKey, time.Hour)
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, ActorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "did:plc:abc123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(raw)
	require.Error(t, err)
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService("", time.Hour)
	require.Error(t, err)

	_, err = NewService(testKey, 0)
	require.Error(t, err)
}
