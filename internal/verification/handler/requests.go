package handler

import (
	"strings"

	"metasignet/internal/verification/models"
	"metasignet/internal/verification/service"
	"metasignet/pkg/domain"
	dErrors "metasignet/pkg/domain-errors"
)

// HTTP request DTOs. JSON tags live here; the DTOs are converted to service
// requests before processing. The attester/voucher identity always comes from
// the authenticated context, never from the body.

type AttestRequest struct {
	Fingerprint     string `json:"fingerprint"`
	ContentURI      string `json:"content_uri"`
	CreationType    uint8  `json:"creation_type"`
	CreationContext string `json:"creation_context"`
}

func (r *AttestRequest) Normalize() {
	if r == nil {
		return
	}
	r.Fingerprint = strings.TrimSpace(r.Fingerprint)
	r.ContentURI = strings.TrimSpace(r.ContentURI)
	r.CreationContext = strings.TrimSpace(r.CreationContext)
}

func (r *AttestRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Fingerprint == "" {
		return dErrors.New(dErrors.CodeValidation, "fingerprint is required")
	}
	if r.ContentURI == "" {
		return dErrors.New(dErrors.CodeValidation, "content_uri is required")
	}
	if _, err := models.ParseCreationType(r.CreationType); err != nil {
		return err
	}
	return nil
}

// ToServiceRequest converts the HTTP request to a service attest request.
func (r *AttestRequest) ToServiceRequest(attester domain.ActorID) (service.AttestRequest, error) {
	fp, err := domain.ParseFingerprint(r.Fingerprint)
	if err != nil {
		return service.AttestRequest{}, err
	}
	creationType, err := models.ParseCreationType(r.CreationType)
	if err != nil {
		return service.AttestRequest{}, err
	}
	return service.AttestRequest{
		Fingerprint:     fp,
		ContentURI:      r.ContentURI,
		Attester:        attester,
		CreationType:    creationType,
		CreationContext: r.CreationContext,
	}, nil
}

type VouchRequest struct {
	Fingerprint string `json:"fingerprint"`
}

func (r *VouchRequest) Normalize() {
	if r == nil {
		return
	}
	r.Fingerprint = strings.TrimSpace(r.Fingerprint)
}

func (r *VouchRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Fingerprint == "" {
		return dErrors.New(dErrors.CodeValidation, "fingerprint is required")
	}
	return nil
}

// FingerprintRequest carries content for fingerprint computation: either the
// post content inline (images base64-encoded per encoding/json's []byte
// convention) or a post_url for the server to fetch.
type FingerprintRequest struct {
	Text    string   `json:"text"`
	Images  [][]byte `json:"images,omitempty"`
	PostURL string   `json:"post_url,omitempty"`
}

const maxFingerprintImages = 4

func (r *FingerprintRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.PostURL != "" && (r.Text != "" || len(r.Images) > 0) {
		return dErrors.New(dErrors.CodeValidation, "supply either post_url or inline content, not both")
	}
	if len(r.Images) > maxFingerprintImages {
		return dErrors.New(dErrors.CodeValidation, "too many images")
	}
	return nil
}
