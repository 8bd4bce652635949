// Package service implements the verification ledger: attestation,
// vouching, and lookups over a Store capability. The ledger owns the trust
// state machine (self-attested to community-vouched) and the policy checks
// around it; storage variants and optional collaborators (audit, chain
// mirror, tracing, metrics) are injected at construction time.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	contract "metasignet/contracts/chain"
	"metasignet/internal/audit"
	"metasignet/internal/chain"
	"metasignet/internal/verification/metrics"
	"metasignet/internal/verification/models"
	"metasignet/internal/verification/store"
	"metasignet/internal/verification/tracer"
	"metasignet/pkg/domain"
	dErrors "metasignet/pkg/domain-errors"
	"metasignet/pkg/platform/sentinel"
	"metasignet/pkg/requestcontext"
)

// maxCreationContextLength caps the attester's free-text note.
const maxCreationContextLength = 1000

// AuditPublisher emits audit events for ledger actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Option configures the verification service.
type Option func(*Service)

// Service is the verification ledger. It holds no mutable state of its own;
// all shared state lives behind the Store, so any number of callers may use
// one Service concurrently.
type Service struct {
	store     store.Store
	auditor   AuditPublisher
	registrar chain.Registrar
	tracer    tracer.Tracer
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewService creates a verification ledger over the given store.
func NewService(s store.Store, opts ...Option) *Service {
	svc := &Service{
		store:  s,
		tracer: tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// WithAuditor configures an audit publisher for the service.
func WithAuditor(auditor AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = auditor
	}
}

// WithRegistrar configures the optional on-chain mirror. The ledger works
// identically without one; mirror failures are logged and never change a
// ledger result.
func WithRegistrar(registrar chain.Registrar) Option {
	return func(s *Service) {
		s.registrar = registrar
	}
}

// WithTracer configures a tracer for the service.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithMetrics configures ledger metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger configures a logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// AttestRequest carries one attestation submission.
type AttestRequest struct {
	Fingerprint     domain.Fingerprint
	ContentURI      string
	Attester        domain.ActorID
	CreationType    models.CreationType
	CreationContext string
}

// Attest registers content under its fingerprint. First attestation wins:
// a second attempt for the same fingerprint fails with a conflict and leaves
// the original record untouched. The operation is all-or-nothing; atomicity
// under racing attests comes from the store's insert-if-absent guarantee.
func (s *Service) Attest(ctx context.Context, req AttestRequest) (models.VerificationRecord, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanAttest,
		tracer.String(tracer.AttrFingerprint, req.Fingerprint.Short()),
	)
	var opErr error
	defer func() { span.End(opErr) }()
	defer s.observe("attest", time.Now())

	if err := s.validateAttest(req); err != nil {
		opErr = err
		s.countRejection(metrics.ReasonInvalidInput)
		return models.VerificationRecord{}, err
	}

	record := models.VerificationRecord{
		Fingerprint:     req.Fingerprint,
		ContentURI:      req.ContentURI,
		Attester:        req.Attester,
		CreationType:    req.CreationType,
		CreationContext: req.CreationContext,
		Status:          models.SelfAttested,
		Vouches:         0,
		CreatedAt:       requestcontext.Now(ctx).UTC(),
	}

	if err := s.store.Create(ctx, record); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			s.countRejection(metrics.ReasonAlreadyAttested)
			s.emitAudit(ctx, audit.ActionAttestRejected, req.Attester, req.Fingerprint, "rejected", "already attested")
			opErr = dErrors.New(dErrors.CodeConflict, "content is already attested; vouch for it instead")
		default:
			opErr = s.storageError(err, "store attestation")
		}
		return models.VerificationRecord{}, opErr
	}

	if s.metrics != nil {
		s.metrics.AttestationsTotal.WithLabelValues(record.CreationType.String()).Inc()
	}
	s.emitAudit(ctx, audit.ActionContentAttested, req.Attester, req.Fingerprint, "created", "")
	s.mirrorRegistration(ctx, span, record)

	return record, nil
}

// Vouch endorses an existing attestation on behalf of voucher. An attester
// cannot vouch for their own content. Repeat vouches by one identity each
// count: the ledger does not deduplicate voucher identities.
func (s *Service) Vouch(ctx context.Context, fp domain.Fingerprint, voucher domain.ActorID) (models.VerificationRecord, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanVouch,
		tracer.String(tracer.AttrFingerprint, fp.Short()),
	)
	var opErr error
	defer func() { span.End(opErr) }()
	defer s.observe("vouch", time.Now())

	if fp.IsZero() {
		opErr = dErrors.New(dErrors.CodeValidation, "fingerprint is required")
		return models.VerificationRecord{}, opErr
	}
	if voucher.IsZero() {
		opErr = dErrors.New(dErrors.CodeValidation, "voucher identity is required")
		return models.VerificationRecord{}, opErr
	}

	// Attester is immutable after creation, so checking it before the
	// increment cannot race with anything that would change the outcome.
	existing, err := s.store.Find(ctx, fp)
	if err != nil {
		opErr = s.translateFindErr(err, fp)
		return models.VerificationRecord{}, opErr
	}
	if existing.Attester == voucher {
		s.countRejection(metrics.ReasonSelfVouch)
		s.emitAudit(ctx, audit.ActionVouchRejected, voucher, fp, "rejected", "self vouch")
		opErr = dErrors.New(dErrors.CodePolicyViolation, "cannot vouch for your own content")
		return models.VerificationRecord{}, opErr
	}

	updated, err := s.store.AddVouch(ctx, fp)
	if err != nil {
		opErr = s.translateFindErr(err, fp)
		return models.VerificationRecord{}, opErr
	}

	if s.metrics != nil {
		s.metrics.VouchesTotal.Inc()
		if updated.Vouches == models.VouchThreshold {
			s.metrics.PromotionsTotal.Inc()
		}
	}
	span.SetAttributes(
		tracer.Int64(tracer.AttrVouches, int64(updated.Vouches)),
		tracer.String(tracer.AttrStatus, updated.Status.String()),
	)
	s.emitAudit(ctx, audit.ActionContentVouched, voucher, fp, "counted", "")
	s.mirrorVouch(ctx, span, fp)

	return updated, nil
}

// Lookup returns the current record for a fingerprint. Pure read.
func (s *Service) Lookup(ctx context.Context, fp domain.Fingerprint) (models.VerificationRecord, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanLookup,
		tracer.String(tracer.AttrFingerprint, fp.Short()),
	)
	var opErr error
	defer func() { span.End(opErr) }()
	defer s.observe("lookup", time.Now())

	if fp.IsZero() {
		opErr = dErrors.New(dErrors.CodeValidation, "fingerprint is required")
		return models.VerificationRecord{}, opErr
	}

	record, err := s.store.Find(ctx, fp)
	if err != nil {
		opErr = s.translateFindErr(err, fp)
		return models.VerificationRecord{}, opErr
	}
	return record, nil
}

// History returns all attestations created by one actor, newest first.
func (s *Service) History(ctx context.Context, attester domain.ActorID) ([]models.VerificationRecord, error) {
	if attester.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "attester identity is required")
	}
	records, err := s.store.FindByAttester(ctx, attester)
	if err != nil {
		return nil, s.storageError(err, "list attestations")
	}
	return records, nil
}

func (s *Service) validateAttest(req AttestRequest) error {
	if req.Fingerprint.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "fingerprint is required")
	}
	if req.Attester.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "attester identity is required")
	}
	if req.ContentURI == "" {
		return dErrors.New(dErrors.CodeValidation, "content_uri is required")
	}
	if len(req.CreationContext) > maxCreationContextLength {
		return dErrors.New(dErrors.CodeValidation, "creation_context is too long")
	}
	if _, err := models.ParseCreationType(uint8(req.CreationType)); err != nil {
		return err
	}
	return nil
}

// translateFindErr maps store sentinels for single-record operations.
func (s *Service) translateFindErr(err error, fp domain.Fingerprint) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		s.countRejection(metrics.ReasonNotFound)
		return dErrors.New(dErrors.CodeNotFound, "no attestation exists for this content")
	}
	return s.storageError(err, "read verification for "+fp.Short())
}

// storageError surfaces a transient storage failure as retryable, never
// conflating it with the policy rejections.
func (s *Service) storageError(err error, action string) error {
	if s.metrics != nil {
		s.metrics.StorageErrorsTotal.Inc()
	}
	s.logger.Error("verification storage failure", "action", action, "error", err)
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "verification storage is unavailable, retry later")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "verification storage failed")
}

func (s *Service) emitAudit(ctx context.Context, action audit.Action, actor domain.ActorID, fp domain.Fingerprint, outcome, reason string) {
	if s.auditor == nil {
		return
	}
	meta := requestcontext.GetClientMetadata(ctx)
	event := audit.Event{
		Timestamp:   requestcontext.Now(ctx).UTC(),
		Actor:       actor,
		Fingerprint: fp.Short(),
		Action:      action,
		Outcome:     outcome,
		Reason:      reason,
		RequestID:   requestcontext.RequestID(ctx),
		Device:      meta.Device,
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.Error("failed to emit audit event", "action", action, "error", err)
	}
}

// mirrorRegistration escalates an attestation to the chain registry.
// Best-effort: the local record is authoritative either way.
func (s *Service) mirrorRegistration(ctx context.Context, span tracer.Span, record models.VerificationRecord) {
	if s.registrar == nil {
		return
	}
	receipt, err := s.registrar.RegisterContent(ctx, contract.Registration{
		ContentHash:     record.Fingerprint.String(),
		ContentURI:      record.ContentURI,
		CreationType:    uint8(record.CreationType),
		PlatformSource:  models.PlatformSource,
		CreationContext: record.CreationContext,
	})
	s.recordMirror(span, record.Fingerprint, receipt.TxHash, err)
}

// mirrorVouch escalates a vouch to the chain registry. Best-effort.
func (s *Service) mirrorVouch(ctx context.Context, span tracer.Span, fp domain.Fingerprint) {
	if s.registrar == nil {
		return
	}
	receipt, err := s.registrar.VouchForContent(ctx, fp.String())
	s.recordMirror(span, fp, receipt.TxHash, err)
}

func (s *Service) recordMirror(span tracer.Span, fp domain.Fingerprint, txHash string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
		if errors.Is(err, chain.ErrDisabled) {
			outcome = "disabled"
		} else {
			s.logger.Warn("chain mirror failed", "fingerprint", fp.Short(), "error", err)
		}
	} else {
		span.AddEvent(tracer.EventChainMirrored, tracer.String("tx_hash", txHash))
	}
	if s.metrics != nil {
		s.metrics.ChainMirrorsTotal.WithLabelValues(outcome).Inc()
	}
	span.SetAttributes(tracer.Bool(tracer.AttrChainMirror, err == nil))
}

func (s *Service) countRejection(reason string) {
	if s.metrics != nil {
		s.metrics.RejectionsTotal.WithLabelValues(reason).Inc()
	}
}

func (s *Service) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
