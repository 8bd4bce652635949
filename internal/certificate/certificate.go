// Package certificate projects a verification record into a shareable
// certificate: display labels, a truncated fingerprint, and an HTML
// rendering. It is a pure read model over the ledger and never mutates
// anything.
package certificate

import (
	"bytes"
	"fmt"
	"html/template"

	"metasignet/internal/verification/models"
)

// shareBaseURL is where a certificate can be independently re-checked.
const shareBaseURL = "metasignet.app/verify/"

// timestampLayout is the human-facing date format on certificates.
const timestampLayout = "2006-01-02 15:04:05"

// Certificate is the displayable projection of a verification record.
type Certificate struct {
	FingerprintShort string `json:"fingerprint"`
	Attester         string `json:"attester"`
	CreationType     string `json:"creation_type"`
	Status           string `json:"status"`
	Vouches          int    `json:"vouches"`
	VerifiedAt       string `json:"verified_at"`
	ContentURI       string `json:"content_uri"`
	ShareURL         string `json:"share_url"`
}

// FromRecord builds a certificate from a ledger record.
func FromRecord(record models.VerificationRecord) Certificate {
	short := record.Fingerprint.Short()
	return Certificate{
		FingerprintShort: short,
		Attester:         record.Attester.String(),
		CreationType:     record.CreationType.String(),
		Status:           record.Status.String(),
		Vouches:          record.Vouches,
		VerifiedAt:       record.CreatedAt.UTC().Format(timestampLayout),
		ContentURI:       record.ContentURI,
		ShareURL:         shareBaseURL + short,
	}
}

var htmlTemplate = template.Must(template.New("certificate").Parse(`<div style="border: 2px solid #1E40AF; border-radius: 8px; padding: 20px; max-width: 600px; font-family: Arial, sans-serif;">
    <div style="text-align: center; margin-bottom: 20px;">
        <h2 style="color: #1E40AF; margin: 0;">MetaSignet</h2>
        <p style="color: #666; margin: 5px 0;">Human Content Verification</p>
    </div>
    <div style="display: flex; margin-bottom: 20px;">
        <div style="flex: 1;">
            <p><strong>Content Hash:</strong><br/>{{.FingerprintShort}}...</p>
            <p><strong>Creator:</strong><br/>{{.Attester}}</p>
            <p><strong>Verified As:</strong><br/>{{.CreationType}}</p>
        </div>
        <div style="flex: 1;">
            <p><strong>Verification Level:</strong><br/>{{.Status}}</p>
            <p><strong>Vouches:</strong><br/>{{.Vouches}}</p>
            <p><strong>Verified On:</strong><br/>{{.VerifiedAt}}</p>
        </div>
    </div>
    <div style="margin-bottom: 20px;">
        <p><strong>Original Content:</strong><br/>
        <a href="{{.ContentURI}}" target="_blank" style="color: #1E40AF;">{{.ContentURI}}</a></p>
    </div>
    <div style="text-align: center; margin-top: 20px; padding-top: 20px; border-top: 1px solid #ddd;">
        <p style="color: #666; margin: 0; font-size: 14px;">Verify at: {{.ShareURL}}</p>
    </div>
</div>
`))

// RenderHTML renders the certificate as a self-contained HTML fragment.
// Field values are escaped by html/template, so attester handles and
// content URIs cannot inject markup.
func (c Certificate) RenderHTML() (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, c); err != nil {
		return "", fmt.Errorf("render certificate: %w", err)
	}
	return buf.String(), nil
}
