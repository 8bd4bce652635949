// Package fingerprint derives deterministic content identifiers from post
// text and images. The text segment is a SHA-256 digest, collision-resistant
// by construction. The image segments are perceptual average hashes: visually
// near-identical images (recompressions, small edits) tend to collide, which
// is the point — the fingerprint identifies reposted and derivative content,
// not byte-identical files.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"strings"
	"unicode/utf8"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/webp"

	"metasignet/pkg/domain"
	dErrors "metasignet/pkg/domain-errors"
)

// Compute derives the fingerprint for a post's text and ordered image set.
//
// The result is <sha256(text) hex> + ":" + <image hashes joined with ".">,
// where each image hash is the 64-bit average hash rendered as 16 hex digits.
// The ":" separator is present even with no images so the shape is stable.
//
// Determinism: byte-identical inputs always produce byte-identical output,
// across processes and restarts. Nothing non-reproducible (salts, timestamps,
// addresses) feeds the digest.
//
// Errors: invalid_input when an image cannot be decoded or the text is not
// valid UTF-8. The generator is stateless and safe for concurrent use.
func Compute(text string, images [][]byte) (domain.Fingerprint, error) {
	textHash, err := textDigest(text)
	if err != nil {
		return "", err
	}

	imageHashes := make([]string, 0, len(images))
	for i, data := range images {
		imgHash, err := imageDigest(data)
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInvalidInput,
				fmt.Sprintf("image %d cannot be decoded", i))
		}
		imageHashes = append(imageHashes, imgHash)
	}

	combined := textHash + domain.TextImageSeparator + strings.Join(imageHashes, domain.ImageHashSeparator)
	return domain.Fingerprint(combined), nil
}

// textDigest returns the SHA-256 hex digest of the canonical UTF-8 bytes.
func textDigest(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "text is not valid UTF-8")
	}
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:]), nil
}

// imageDigest decodes the image and returns its 64-bit average hash as a
// fixed-width hex string.
func imageDigest(data []byte) (string, error) {
	if len(data) == 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "image data is empty")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	hash, err := goimagehash.AverageHash(img)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", hash.GetHash()), nil
}
