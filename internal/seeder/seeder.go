// Package seeder populates in-memory stores with demo data so a fresh local
// server has attestations to look up, vouch on, and render certificates for.
package seeder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"metasignet/internal/audit"
	"metasignet/internal/verification/models"
	"metasignet/pkg/domain"
)

// VerificationStore defines the methods used for seeding attestations.
type VerificationStore interface {
	Create(ctx context.Context, record models.VerificationRecord) error
	AddVouch(ctx context.Context, fp domain.Fingerprint) (models.VerificationRecord, error)
}

// AuditStore defines methods for seeding audit events.
type AuditStore interface {
	Append(ctx context.Context, event audit.Event) error
}

// Seeder populates stores with demo data.
type Seeder struct {
	verifications VerificationStore
	audit         AuditStore
	logger        *slog.Logger
}

// New creates a new seeder. The audit store may be nil.
func New(verifications VerificationStore, auditStore AuditStore, logger *slog.Logger) *Seeder {
	return &Seeder{
		verifications: verifications,
		audit:         auditStore,
		logger:        logger,
	}
}

type demoPost struct {
	text         string
	attester     domain.ActorID
	creationType models.CreationType
	context      string
	vouchers     []domain.ActorID
	ageDays      int
}

var demoPosts = []demoPost{
	{
		text:         "Sunrise over the harbor this morning. No filters, just patience.",
		attester:     "alice.bsky.social",
		creationType: models.HumanCreated,
		context:      "Shot on my phone from the pier",
		vouchers:     []domain.ActorID{"bob.bsky.social", "carol.bsky.social", "dave.bsky.social"},
		ageDays:      14,
	},
	{
		text:         "Drafted this essay myself, then used an assistant to tighten the phrasing.",
		attester:     "bob.bsky.social",
		creationType: models.AIAssisted,
		context:      "Editing pass only, argument and structure are mine",
		vouchers:     []domain.ActorID{"alice.bsky.social"},
		ageDays:      7,
	},
	{
		text:         "Generated this artwork with a prompt I iterated on for an hour.",
		attester:     "carol.bsky.social",
		creationType: models.AIGenerated,
		ageDays:      2,
	},
}

// SeedAll populates the verification store with demo attestations and their
// vouches, plus matching audit events.
func (s *Seeder) SeedAll(ctx context.Context) error {
	s.logger.Info("seeding demo data...")

	seeded := 0
	for _, post := range demoPosts {
		fp := demoFingerprint(post.text)
		record := models.VerificationRecord{
			Fingerprint:     fp,
			ContentURI:      fmt.Sprintf("https://bsky.app/profile/%s/post/%s", post.attester, fp.Short()[:8]),
			Attester:        post.attester,
			CreationType:    post.creationType,
			CreationContext: post.context,
			Status:          models.SelfAttested,
			Vouches:         0,
			CreatedAt:       time.Now().UTC().AddDate(0, 0, -post.ageDays),
		}
		if err := s.verifications.Create(ctx, record); err != nil {
			return fmt.Errorf("failed to seed attestation for %s: %w", post.attester, err)
		}
		s.appendAudit(ctx, audit.ActionContentAttested, post.attester, fp, record.CreatedAt)

		for i, voucher := range post.vouchers {
			if _, err := s.verifications.AddVouch(ctx, fp); err != nil {
				return fmt.Errorf("failed to seed vouch for %s: %w", fp.Short(), err)
			}
			s.appendAudit(ctx, audit.ActionContentVouched, voucher, fp, record.CreatedAt.Add(time.Duration(i+1)*time.Hour))
		}
		seeded++
	}

	s.logger.Info("demo data seeded successfully", "attestations", seeded)
	return nil
}

func (s *Seeder) appendAudit(ctx context.Context, action audit.Action, actor domain.ActorID, fp domain.Fingerprint, at time.Time) {
	if s.audit == nil {
		return
	}
	event := audit.Event{
		Timestamp:   at,
		Actor:       actor,
		Fingerprint: fp.Short(),
		Action:      action,
		Outcome:     "seeded",
		Device:      "cli",
	}
	if err := s.audit.Append(ctx, event); err != nil {
		s.logger.Warn("failed to seed audit event", "action", action, "error", err)
	}
}

// demoFingerprint computes the text-only fingerprint of a demo post, same
// shape the fingerprint generator produces.
func demoFingerprint(text string) domain.Fingerprint {
	sum := sha256.Sum256([]byte(text))
	return domain.Fingerprint(hex.EncodeToString(sum[:]) + domain.TextImageSeparator)
}
