package handler

import (
	"context"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"metasignet/internal/certificate"
	"metasignet/internal/fingerprint"
	"metasignet/internal/source/bluesky"
	"metasignet/internal/verification/models"
	"metasignet/internal/verification/service"
	"metasignet/pkg/domain"
	dErrors "metasignet/pkg/domain-errors"
	"metasignet/pkg/platform/httputil"
	"metasignet/pkg/requestcontext"
)

// Service defines the ledger operations the HTTP layer depends on.
type Service interface {
	Attest(ctx context.Context, req service.AttestRequest) (models.VerificationRecord, error)
	Vouch(ctx context.Context, fp domain.Fingerprint, voucher domain.ActorID) (models.VerificationRecord, error)
	Lookup(ctx context.Context, fp domain.Fingerprint) (models.VerificationRecord, error)
	History(ctx context.Context, attester domain.ActorID) ([]models.VerificationRecord, error)
}

// PostSource fetches post content from the social network so fingerprints
// can be computed server-side from a post reference.
type PostSource interface {
	GetPost(ctx context.Context, ref string) (*bluesky.Post, error)
}

// Handler exposes the verification ledger over HTTP.
type Handler struct {
	logger       *slog.Logger
	verification Service
	source       PostSource
}

// New creates a verification Handler. The post source may be nil, in which
// case fingerprint requests must carry the content inline.
func New(verification Service, source PostSource, logger *slog.Logger) *Handler {
	return &Handler{
		logger:       logger,
		verification: verification,
		source:       source,
	}
}

// RegisterPublic registers the routes that need no authentication: lookups,
// certificates, and fingerprint computation.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/verification/{fingerprint}", h.handleLookup)
	r.Get("/certificate/{fingerprint}", h.handleCertificate)
	r.Post("/fingerprint", h.handleFingerprint)
}

// RegisterProtected registers the mutating routes. The caller mounts these
// behind the bearer-auth middleware so the actor is always in context.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/verify", h.handleAttest)
	r.Post("/vouch", h.handleVouch)
	r.Get("/verifications", h.handleHistory)
}

func (h *Handler) handleAttest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	attester, err := httputil.RequireActor(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeJSON[AttestRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(ctx, "invalid attest request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	svcReq, err := req.ToServiceRequest(attester)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.verification.Attest(ctx, svcReq)
	if err != nil {
		h.logger.WarnContext(ctx, "attest failed",
			"request_id", requestID,
			"fingerprint", svcReq.Fingerprint.Short(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &AttestResponse{
		Verification: toVerificationResponse(record),
		Message:      "Content attested as " + record.CreationType.String(),
	})
}

func (h *Handler) handleVouch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	voucher, err := httputil.RequireActor(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeJSON[VouchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	fp, err := domain.ParseFingerprint(req.Fingerprint)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.verification.Vouch(ctx, fp, voucher)
	if err != nil {
		h.logger.WarnContext(ctx, "vouch failed",
			"request_id", requestID,
			"fingerprint", fp.Short(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &VouchResponse{
		Verification: toVerificationResponse(record),
		Message:      "Vouch counted",
	})
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fp, err := fingerprintParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.verification.Lookup(ctx, fp)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVerificationResponse(record))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	attester, err := httputil.RequireActor(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.verification.History(ctx, attester)
	if err != nil {
		h.logger.ErrorContext(ctx, "history lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"attester", attester,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toHistoryResponse(records))
}

// handleCertificate serves a shareable certificate for an attested
// fingerprint, as JSON by default or as an HTML fragment with ?format=html.
func (h *Handler) handleCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fp, err := fingerprintParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.verification.Lookup(ctx, fp)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cert := certificate.FromRecord(record)
	if r.URL.Query().Get("format") == "html" {
		html, err := cert.RenderHTML()
		if err != nil {
			h.logger.ErrorContext(ctx, "certificate rendering failed",
				"fingerprint", fp.Short(),
				"error", err,
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to render certificate"))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(html))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cert)
}

// handleFingerprint computes a fingerprint without touching the ledger, so
// clients can check for an existing attestation before submitting one.
// Content arrives inline (text plus base64 images) or as a post_url the
// server fetches itself.
func (h *Handler) handleFingerprint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndValidate[FingerprintRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	text, images := req.Text, req.Images
	var contentURI string
	if req.PostURL != "" {
		if h.source == nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "post fetching is not enabled, supply content inline"))
			return
		}
		post, err := h.source.GetPost(ctx, req.PostURL)
		if err != nil {
			h.logger.WarnContext(ctx, "post fetch failed",
				"request_id", requestID,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		text, images, contentURI = post.Text, post.Images, post.URI
	}

	fp, err := fingerprint.Compute(text, images)
	if err != nil {
		h.logger.WarnContext(ctx, "fingerprint computation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &FingerprintResponse{
		Fingerprint: fp.String(),
		ContentURI:  contentURI,
	})
}

func fingerprintParam(r *http.Request) (domain.Fingerprint, error) {
	raw := chi.URLParam(r, "fingerprint")
	return domain.ParseFingerprint(raw)
}
