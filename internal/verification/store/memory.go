package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"metasignet/internal/verification/models"
	"metasignet/pkg/domain"
	"metasignet/pkg/platform/sentinel"
)

// MemoryStore is an in-memory implementation of Store for tests or local use.
// It is safe for concurrent access but does not persist across process restarts.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[domain.Fingerprint]models.VerificationRecord
}

// NewMemoryStore constructs an empty in-memory verification store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[domain.Fingerprint]models.VerificationRecord)}
}

// Create inserts the record if no record exists for its fingerprint.
func (s *MemoryStore) Create(_ context.Context, record models.VerificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.Fingerprint]; exists {
		return fmt.Errorf("record for %s: %w", record.Fingerprint.Short(), sentinel.ErrConflict)
	}
	s.records[record.Fingerprint] = record
	return nil
}

// AddVouch increments the vouch count under the write lock, so concurrent
// vouches serialize and no increment is lost.
func (s *MemoryStore) AddVouch(_ context.Context, fp domain.Fingerprint) (models.VerificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, exists := s.records[fp]
	if !exists {
		return models.VerificationRecord{}, fmt.Errorf("record for %s: %w", fp.Short(), sentinel.ErrNotFound)
	}
	record.Vouches++
	record.Status = models.StatusForCount(record.Vouches)
	s.records[fp] = record
	return record, nil
}

// Find returns the record for a fingerprint.
func (s *MemoryStore) Find(_ context.Context, fp domain.Fingerprint) (models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[fp]; ok {
		return record, nil
	}
	return models.VerificationRecord{}, fmt.Errorf("record for %s: %w", fp.Short(), sentinel.ErrNotFound)
}

// FindByAttester returns the attester's records, newest first.
func (s *MemoryStore) FindByAttester(_ context.Context, attester domain.ActorID) ([]models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []models.VerificationRecord
	for _, record := range s.records {
		if record.Attester == attester {
			results = append(results, record)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results, nil
}
