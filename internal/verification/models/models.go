// Package models defines the verification ledger's domain types: the
// attestation record, its creation-type and trust-status enumerations, and
// the vouch threshold rule that drives status transitions.
package models

import (
	"time"

	"metasignet/pkg/domain"
	dErrors "metasignet/pkg/domain-errors"
)

// CreationType enumerates how the attester declares the content was made.
// Values match the stored smallint column and the on-chain uint8.
type CreationType uint8

const (
	HumanCreated CreationType = 1
	AIAssisted   CreationType = 2
	AIGenerated  CreationType = 3
)

// ParseCreationType validates an externally supplied creation type.
func ParseCreationType(raw uint8) (CreationType, error) {
	switch CreationType(raw) {
	case HumanCreated, AIAssisted, AIGenerated:
		return CreationType(raw), nil
	default:
		return 0, dErrors.New(dErrors.CodeValidation, "creation_type must be 1 (human), 2 (AI-assisted), or 3 (AI-generated)")
	}
}

// String returns the display label for certificates and API responses.
func (c CreationType) String() string {
	switch c {
	case HumanCreated:
		return "Human-created"
	case AIAssisted:
		return "AI-assisted"
	case AIGenerated:
		return "AI-generated"
	default:
		return "Unknown"
	}
}

// Status is the trust tier of a verification record. It is derived from the
// vouch count and never set directly by a client.
type Status uint8

const (
	SelfAttested     Status = 1
	CommunityVouched Status = 2
)

// VouchThreshold is the vouch count at which a record becomes
// community-vouched.
const VouchThreshold = 3

// StatusForCount derives the trust status from a vouch count.
func StatusForCount(vouches int) Status {
	if vouches >= VouchThreshold {
		return CommunityVouched
	}
	return SelfAttested
}

// String returns the display label for certificates and API responses.
func (s Status) String() string {
	switch s {
	case SelfAttested:
		return "Self-attested"
	case CommunityVouched:
		return "Community-vouched"
	default:
		return "Unknown"
	}
}

// VerificationRecord is one attested piece of content, keyed by fingerprint.
//
// Invariants:
//   - at most one record per fingerprint,
//   - Vouches is monotonically non-decreasing,
//   - Status == CommunityVouched iff Vouches >= VouchThreshold,
//   - Fingerprint, ContentURI, Attester, CreationType, and CreatedAt are
//     immutable after creation.
type VerificationRecord struct {
	Fingerprint     domain.Fingerprint
	ContentURI      string
	Attester        domain.ActorID
	CreationType    CreationType
	CreationContext string
	Status          Status
	Vouches         int
	CreatedAt       time.Time
}

// PlatformSource identifies where attested content originates. The prototype
// only integrates Bluesky; the value travels with chain registrations.
const PlatformSource = "bluesky"
