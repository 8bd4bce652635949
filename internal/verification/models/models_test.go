package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metasignet/internal/verification/models"
)

func TestParseCreationType(t *testing.T) {
	cases := []struct {
		name    string
		raw     uint8
		want    models.CreationType
		wantErr bool
	}{
		{name: "human", raw: 1, want: models.HumanCreated},
		{name: "ai assisted", raw: 2, want: models.AIAssisted},
		{name: "ai generated", raw: 3, want: models.AIGenerated},
		{name: "zero rejected", raw: 0, wantErr: true},
		{name: "out of range rejected", raw: 4, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := models.ParseCreationType(tc.raw)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStatusForCount(t *testing.T) {
	assert.Equal(t, models.SelfAttested, models.StatusForCount(0))
	assert.Equal(t, models.SelfAttested, models.StatusForCount(2))
	assert.Equal(t, models.CommunityVouched, models.StatusForCount(3))
	assert.Equal(t, models.CommunityVouched, models.StatusForCount(100))
}

func TestDisplayLabels(t *testing.T) {
	assert.Equal(t, "Human-created", models.HumanCreated.String())
	assert.Equal(t, "AI-assisted", models.AIAssisted.String())
	assert.Equal(t, "AI-generated", models.AIGenerated.String())
	assert.Equal(t, "Unknown", models.CreationType(9).String())

	assert.Equal(t, "Self-attested", models.SelfAttested.String())
	assert.Equal(t, "Community-vouched", models.CommunityVouched.String())
	assert.Equal(t, "Unknown", models.Status(9).String())
}
