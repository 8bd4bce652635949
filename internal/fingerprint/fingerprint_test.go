package fingerprint_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metasignet/internal/fingerprint"
	"metasignet/pkg/domain"
	dErrors "metasignet/pkg/domain-errors"
)

// testPNG renders a small two-tone image so the average hash has structure.
func testPNG(t *testing.T, w, h int, split int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < split {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestComputeDeterminism(t *testing.T) {
	img := testPNG(t, 64, 64, 32)

	first, err := fingerprint.Compute("hello world", [][]byte{img})
	require.NoError(t, err)
	second, err := fingerprint.Compute("hello world", [][]byte{img})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeTextSegmentIsSHA256(t *testing.T) {
	fp, err := fingerprint.Compute("hello", nil)
	require.NoError(t, err)

	sum := sha256.Sum256([]byte("hello"))
	assert.Equal(t, hex.EncodeToString(sum[:]), fp.TextSegment())
	assert.Empty(t, fp.ImageSegment())
}

func TestComputeSeparatorStability(t *testing.T) {
	img := testPNG(t, 64, 64, 32)

	noImages, err := fingerprint.Compute("hello", nil)
	require.NoError(t, err)
	withImage, err := fingerprint.Compute("hello", [][]byte{img})
	require.NoError(t, err)

	// Same text-hash segment either way; only the image segment differs.
	assert.Equal(t, noImages.TextSegment(), withImage.TextSegment())
	assert.True(t, strings.Contains(noImages.String(), domain.TextImageSeparator),
		"separator must be present even with no images")
	assert.Empty(t, noImages.ImageSegment())
	assert.Len(t, withImage.ImageSegment(), 16)
}

func TestComputeImageOrderMatters(t *testing.T) {
	left := testPNG(t, 64, 64, 8)
	right := testPNG(t, 64, 64, 56)

	forward, err := fingerprint.Compute("post", [][]byte{left, right})
	require.NoError(t, err)
	reversed, err := fingerprint.Compute("post", [][]byte{right, left})
	require.NoError(t, err)

	assert.NotEqual(t, forward, reversed)
	assert.Equal(t, forward.TextSegment(), reversed.TextSegment())
}

func TestComputeMultipleImagesJoined(t *testing.T) {
	a := testPNG(t, 64, 64, 8)
	b := testPNG(t, 64, 64, 56)

	fp, err := fingerprint.Compute("post", [][]byte{a, b})
	require.NoError(t, err)

	segments := strings.Split(fp.ImageSegment(), domain.ImageHashSeparator)
	require.Len(t, segments, 2)
	for _, segment := range segments {
		assert.Len(t, segment, 16)
	}
}

func TestComputeInvalidImage(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{name: "garbage bytes", data: []byte("definitely not an image")},
		{name: "empty entry", data: nil},
		{name: "truncated png", data: testPNG(t, 32, 32, 16)[:20]},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fingerprint.Compute("text", [][]byte{tc.data})
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestComputeEmptyText(t *testing.T) {
	fp, err := fingerprint.Compute("", nil)
	require.NoError(t, err)

	sum := sha256.Sum256(nil)
	assert.Equal(t, hex.EncodeToString(sum[:]), fp.TextSegment())
}

func TestComputeInvalidUTF8(t *testing.T) {
	_, err := fingerprint.Compute(string([]byte{0xff, 0xfe}), nil)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
