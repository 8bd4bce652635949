// Package store owns persistence for verification records. The Store
// interface is the capability the ledger service is written against; variant
// selection (memory, postgres, redis) happens at construction time, never by
// per-call branching.
package store

import (
	"context"

	"metasignet/internal/verification/models"
	"metasignet/pkg/domain"
)

// Store is the verification ledger's storage capability.
//
// Implementations must provide per-fingerprint atomicity: Create is
// insert-if-absent (exactly one winner under racing creates), and AddVouch is
// a lost-update-free increment. Operations on different fingerprints are
// independent. Transient backend failures are wrapped around
// sentinel.ErrUnavailable so the service can surface them as retryable.
type Store interface {
	// Create inserts a new record keyed by its fingerprint.
	// Returns sentinel.ErrConflict (wrapped) if a record already exists.
	Create(ctx context.Context, record models.VerificationRecord) error

	// AddVouch atomically increments the vouch count and recomputes the
	// status, returning the updated record.
	// Returns sentinel.ErrNotFound (wrapped) if no record exists.
	AddVouch(ctx context.Context, fp domain.Fingerprint) (models.VerificationRecord, error)

	// Find returns the record for a fingerprint.
	// Returns sentinel.ErrNotFound (wrapped) if no record exists.
	Find(ctx context.Context, fp domain.Fingerprint) (models.VerificationRecord, error)

	// FindByAttester returns all records created by one attester, newest first.
	FindByAttester(ctx context.Context, attester domain.ActorID) ([]models.VerificationRecord, error)
}
