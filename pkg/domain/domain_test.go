package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "metasignet/pkg/domain-errors"
)

const sampleTextHash = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

func TestParseFingerprint(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseFingerprint("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects whitespace-only string", func(t *testing.T) {
		_, err := ParseFingerprint("   \t")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects missing separator", func(t *testing.T) {
		_, err := ParseFingerprint(sampleTextHash)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects oversized value", func(t *testing.T) {
		_, err := ParseFingerprint(sampleTextHash + ":" + strings.Repeat("a", 1024))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("accepts text-only fingerprint", func(t *testing.T) {
		fp, err := ParseFingerprint(sampleTextHash + ":")
		require.NoError(t, err)
		assert.Equal(t, sampleTextHash, fp.TextSegment())
		assert.Empty(t, fp.ImageSegment())
	})

	t.Run("accepts fingerprint with image hashes and trims whitespace", func(t *testing.T) {
		raw := "  " + sampleTextHash + ":00ff00ff00ff00ff.123456789abcdef0\n"
		fp, err := ParseFingerprint(raw)
		require.NoError(t, err)
		assert.Equal(t, sampleTextHash, fp.TextSegment())
		assert.Equal(t, "00ff00ff00ff00ff.123456789abcdef0", fp.ImageSegment())
	})
}

func TestFingerprintShort(t *testing.T) {
	fp := Fingerprint(sampleTextHash + ":")
	assert.Len(t, fp.Short(), ShortLength)
	assert.True(t, strings.HasPrefix(fp.String(), fp.Short()))

	// values at or under the display length are returned whole
	assert.Equal(t, "ab:", Fingerprint("ab:").Short())
}

func TestParseActorID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseActorID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects embedded whitespace", func(t *testing.T) {
		_, err := ParseActorID("alice bsky.social")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects oversized identifier", func(t *testing.T) {
		_, err := ParseActorID(strings.Repeat("a", 254))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("accepts a handle", func(t *testing.T) {
		id, err := ParseActorID("alice.bsky.social")
		require.NoError(t, err)
		assert.Equal(t, ActorID("alice.bsky.social"), id)
	})

	t.Run("accepts a DID", func(t *testing.T) {
		id, err := ParseActorID("did:plc:ewvi7nxzyoun6zhxrhs64oiz")
		require.NoError(t, err)
		assert.False(t, id.IsZero())
	})
}
