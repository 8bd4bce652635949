package certificate_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metasignet/internal/certificate"
	"metasignet/internal/verification/models"
)

func sampleRecord() models.VerificationRecord {
	return models.VerificationRecord{
		Fingerprint:  "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824:",
		ContentURI:   "at://did:plc:abc/app.bsky.feed.post/3k44",
		Attester:     "alice.bsky.social",
		CreationType: models.HumanCreated,
		Status:       models.CommunityVouched,
		Vouches:      5,
		CreatedAt:    time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC),
	}
}

func TestFromRecord(t *testing.T) {
	cert := certificate.FromRecord(sampleRecord())

	assert.Equal(t, "2cf24dba5fb0a30e", cert.FingerprintShort)
	assert.Equal(t, "alice.bsky.social", cert.Attester)
	assert.Equal(t, "Human-created", cert.CreationType)
	assert.Equal(t, "Community-vouched", cert.Status)
	assert.Equal(t, 5, cert.Vouches)
	assert.Equal(t, "2025-06-01 12:30:45", cert.VerifiedAt)
	assert.Equal(t, "metasignet.app/verify/2cf24dba5fb0a30e", cert.ShareURL)
}

func TestRenderHTMLContainsFields(t *testing.T) {
	html, err := certificate.FromRecord(sampleRecord()).RenderHTML()
	require.NoError(t, err)

	for _, want := range []string{
		"MetaSignet",
		"2cf24dba5fb0a30e...",
		"alice.bsky.social",
		"Human-created",
		"Community-vouched",
		"2025-06-01 12:30:45",
		"metasignet.app/verify/2cf24dba5fb0a30e",
	} {
		assert.Contains(t, html, want)
	}
}

func TestRenderHTMLEscapesUntrustedFields(t *testing.T) {
	record := sampleRecord()
	record.Attester = `<script>alert("x")</script>`

	html, err := certificate.FromRecord(record).RenderHTML()
	require.NoError(t, err)

	assert.False(t, strings.Contains(html, "<script>"), "attester markup must be escaped")
	assert.Contains(t, html, "&lt;script&gt;")
}
