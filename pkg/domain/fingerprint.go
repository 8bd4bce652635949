package domain

import (
	"strings"

	dErrors "metasignet/pkg/domain-errors"
)

// Fingerprint is the deterministic content identifier produced by the
// fingerprint generator: a SHA-256 hex digest of the post text, a separator,
// and the perceptual hashes of the post images in input order. It is the
// primary key of the verification ledger.
type Fingerprint string

const (
	// TextImageSeparator divides the text-hash segment from the image-hash
	// segment. It is always present, even when the post carries no images,
	// so the fingerprint shape is stable.
	TextImageSeparator = ":"

	// ImageHashSeparator joins per-image perceptual hashes in input order.
	ImageHashSeparator = "."

	// ShortLength is the number of leading characters shown on certificates
	// and share links. The stored value is never truncated.
	ShortLength = 16

	maxFingerprintLength = 1024
)

// ParseFingerprint validates an externally supplied fingerprint string.
// It checks shape only; whether a record exists is the ledger's concern.
func ParseFingerprint(raw string) (Fingerprint, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", dErrors.New(dErrors.CodeValidation, "fingerprint is required")
	}
	if len(trimmed) > maxFingerprintLength {
		return "", dErrors.New(dErrors.CodeValidation, "fingerprint is too long")
	}
	if !strings.Contains(trimmed, TextImageSeparator) {
		return "", dErrors.New(dErrors.CodeValidation, "fingerprint is missing the text/image separator")
	}
	return Fingerprint(trimmed), nil
}

// String returns the full fingerprint value.
func (f Fingerprint) String() string { return string(f) }

// IsZero reports whether the fingerprint is unset.
func (f Fingerprint) IsZero() bool { return f == "" }

// Short returns the display prefix used on certificates and verify links.
func (f Fingerprint) Short() string {
	if len(f) <= ShortLength {
		return string(f)
	}
	return string(f[:ShortLength])
}

// TextSegment returns the cryptographic text-hash portion of the fingerprint.
func (f Fingerprint) TextSegment() string {
	segment, _, _ := strings.Cut(string(f), TextImageSeparator)
	return segment
}

// ImageSegment returns the perceptual-hash portion, empty when the content
// carried no images.
func (f Fingerprint) ImageSegment() string {
	_, segment, _ := strings.Cut(string(f), TextImageSeparator)
	return segment
}
