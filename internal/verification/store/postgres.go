package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"metasignet/internal/verification/models"
	"metasignet/pkg/domain"
	"metasignet/pkg/platform/sentinel"
)

// PostgresStore persists verification records in PostgreSQL. Atomicity relies
// on the unique primary key for Create and on a single-statement conditional
// UPDATE for AddVouch; the store never does read-modify-write across calls.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed verification store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts the record; ON CONFLICT DO NOTHING keeps racing creates from
// overwriting the first attestation, and zero affected rows means a record
// already existed.
func (s *PostgresStore) Create(ctx context.Context, record models.VerificationRecord) error {
	query := `
		INSERT INTO verification (content_hash, content_uri, user_id, creation_type, creation_context, status, vouches, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7)
		ON CONFLICT (content_hash) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query,
		record.Fingerprint.String(),
		record.ContentURI,
		record.Attester.String(),
		int16(record.CreationType),
		record.CreationContext,
		int16(record.Status),
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create verification: %w: %w", sentinel.ErrUnavailable, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("create verification rows affected: %w: %w", sentinel.ErrUnavailable, err)
	}
	if affected == 0 {
		return fmt.Errorf("record for %s: %w", record.Fingerprint.Short(), sentinel.ErrConflict)
	}
	return nil
}

// AddVouch increments and recomputes status in one statement so concurrent
// vouches serialize on the row lock and no increment is lost.
func (s *PostgresStore) AddVouch(ctx context.Context, fp domain.Fingerprint) (models.VerificationRecord, error) {
	query := `
		UPDATE verification
		SET vouches = vouches + 1,
		    status = CASE WHEN vouches + 1 >= $2 THEN 2 ELSE 1 END
		WHERE content_hash = $1
		RETURNING content_hash, content_uri, user_id, creation_type, creation_context, status, vouches, created_at
	`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, fp.String(), models.VouchThreshold))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.VerificationRecord{}, fmt.Errorf("record for %s: %w", fp.Short(), sentinel.ErrNotFound)
		}
		return models.VerificationRecord{}, fmt.Errorf("add vouch: %w: %w", sentinel.ErrUnavailable, err)
	}
	return record, nil
}

// Find returns the record for a fingerprint.
func (s *PostgresStore) Find(ctx context.Context, fp domain.Fingerprint) (models.VerificationRecord, error) {
	query := `
		SELECT content_hash, content_uri, user_id, creation_type, creation_context, status, vouches, created_at
		FROM verification
		WHERE content_hash = $1
	`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, fp.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.VerificationRecord{}, fmt.Errorf("record for %s: %w", fp.Short(), sentinel.ErrNotFound)
		}
		return models.VerificationRecord{}, fmt.Errorf("find verification: %w: %w", sentinel.ErrUnavailable, err)
	}
	return record, nil
}

// FindByAttester returns the attester's records, newest first.
func (s *PostgresStore) FindByAttester(ctx context.Context, attester domain.ActorID) ([]models.VerificationRecord, error) {
	query := `
		SELECT content_hash, content_uri, user_id, creation_type, creation_context, status, vouches, created_at
		FROM verification
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, attester.String())
	if err != nil {
		return nil, fmt.Errorf("find verifications by attester: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()

	var records []models.VerificationRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verifications: %w: %w", sentinel.ErrUnavailable, err)
	}
	return records, nil
}

type recordRow interface {
	Scan(dest ...any) error
}

func scanRecord(row recordRow) (models.VerificationRecord, error) {
	var record models.VerificationRecord
	var fp, attester string
	var creationType, status int16
	if err := row.Scan(&fp, &record.ContentURI, &attester, &creationType, &record.CreationContext, &status, &record.Vouches, &record.CreatedAt); err != nil {
		return models.VerificationRecord{}, err
	}
	record.Fingerprint = domain.Fingerprint(fp)
	record.Attester = domain.ActorID(attester)
	record.CreationType = models.CreationType(creationType)
	record.Status = models.Status(status)
	return record, nil
}
