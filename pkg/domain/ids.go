package domain

import (
	"strings"

	dErrors "metasignet/pkg/domain-errors"
)

// ActorID identifies a social-network identity (a Bluesky DID or handle).
// It is treated as opaque: the ledger never resolves or normalizes it.
type ActorID string

const maxActorIDLength = 253

// ParseActorID validates an actor identifier. Both did:plc:... identifiers
// and dotted handles are accepted; only shape is checked, not existence.
func ParseActorID(raw string) (ActorID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", dErrors.New(dErrors.CodeValidation, "actor id is required")
	}
	if len(trimmed) > maxActorIDLength {
		return "", dErrors.New(dErrors.CodeValidation, "actor id is too long")
	}
	if strings.ContainsAny(trimmed, " \t\r\n") {
		return "", dErrors.New(dErrors.CodeValidation, "actor id must not contain whitespace")
	}
	return ActorID(trimmed), nil
}

// String returns the raw identifier.
func (a ActorID) String() string { return string(a) }

// IsZero reports whether the actor ID is unset.
func (a ActorID) IsZero() bool { return a == "" }
