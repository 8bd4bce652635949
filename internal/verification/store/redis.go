package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"metasignet/internal/verification/models"
	"metasignet/pkg/domain"
	"metasignet/pkg/platform/sentinel"
)

const (
	redisRecordKeyPrefix = "verification:record:"
	redisAttesterPrefix  = "verification:attester:"

	// maxVouchRetries bounds the optimistic-lock loop in AddVouch. Each retry
	// means another writer touched the same record between our read and write.
	maxVouchRetries = 16
)

// RedisStore persists verification records in Redis. Create relies on SET NX
// for first-attestation-wins; AddVouch uses WATCH-based optimistic locking so
// concurrent increments retry instead of losing updates.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed verification store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func recordKey(fp domain.Fingerprint) string {
	return redisRecordKeyPrefix + fp.String()
}

func attesterKey(attester domain.ActorID) string {
	return redisAttesterPrefix + attester.String()
}

// Create stores the record if absent and indexes it under its attester.
func (s *RedisStore) Create(ctx context.Context, record models.VerificationRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode verification: %w", err)
	}

	created, err := s.client.SetNX(ctx, recordKey(record.Fingerprint), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("create verification: %w: %w", sentinel.ErrUnavailable, err)
	}
	if !created {
		return fmt.Errorf("record for %s: %w", record.Fingerprint.Short(), sentinel.ErrConflict)
	}

	// Index write is best-effort ordered after the record write; a failure
	// here leaves the record authoritative and the history view incomplete.
	if err := s.client.SAdd(ctx, attesterKey(record.Attester), record.Fingerprint.String()).Err(); err != nil {
		return fmt.Errorf("index verification: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

// AddVouch runs a compare-and-swap loop: WATCH the record key, read, bump the
// count, and commit in a transaction that aborts if another writer got there
// first.
func (s *RedisStore) AddVouch(ctx context.Context, fp domain.Fingerprint) (models.VerificationRecord, error) {
	key := recordKey(fp)
	var updated models.VerificationRecord

	txn := func(tx *redis.Tx) error {
		payload, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return fmt.Errorf("record for %s: %w", fp.Short(), sentinel.ErrNotFound)
			}
			return fmt.Errorf("read verification: %w: %w", sentinel.ErrUnavailable, err)
		}

		var record models.VerificationRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return fmt.Errorf("decode verification: %w", err)
		}
		record.Vouches++
		record.Status = models.StatusForCount(record.Vouches)

		next, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode verification: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		if err != nil {
			return err
		}
		updated = record
		return nil
	}

	for attempt := 0; attempt < maxVouchRetries; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue // lost the race, re-read and retry
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.VerificationRecord{}, err
		}
		return models.VerificationRecord{}, fmt.Errorf("add vouch: %w", err)
	}
	return models.VerificationRecord{}, fmt.Errorf("add vouch for %s: contention retries exhausted: %w", fp.Short(), sentinel.ErrUnavailable)
}

// Find returns the record for a fingerprint.
func (s *RedisStore) Find(ctx context.Context, fp domain.Fingerprint) (models.VerificationRecord, error) {
	payload, err := s.client.Get(ctx, recordKey(fp)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.VerificationRecord{}, fmt.Errorf("record for %s: %w", fp.Short(), sentinel.ErrNotFound)
		}
		return models.VerificationRecord{}, fmt.Errorf("find verification: %w: %w", sentinel.ErrUnavailable, err)
	}
	var record models.VerificationRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return models.VerificationRecord{}, fmt.Errorf("decode verification: %w", err)
	}
	return record, nil
}

// FindByAttester resolves the attester index set, newest records first.
func (s *RedisStore) FindByAttester(ctx context.Context, attester domain.ActorID) ([]models.VerificationRecord, error) {
	fingerprints, err := s.client.SMembers(ctx, attesterKey(attester)).Result()
	if err != nil {
		return nil, fmt.Errorf("list attester verifications: %w: %w", sentinel.ErrUnavailable, err)
	}

	records := make([]models.VerificationRecord, 0, len(fingerprints))
	for _, fp := range fingerprints {
		record, err := s.Find(ctx, domain.Fingerprint(fp))
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				continue // index entry outlived the record
			}
			return nil, err
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}
