package handler

import (
	"time"

	"metasignet/internal/verification/models"
)

type VerificationResponse struct {
	Fingerprint  string    `json:"fingerprint"`
	ContentURI   string    `json:"content_uri"`
	Attester     string    `json:"attester"`
	CreationType string    `json:"creation_type"`
	Status       string    `json:"status"`
	Vouches      int       `json:"vouches"`
	CreatedAt    time.Time `json:"created_at"`
}

type AttestResponse struct {
	Verification *VerificationResponse `json:"verification"`
	Message      string                `json:"message"`
}

type VouchResponse struct {
	Verification *VerificationResponse `json:"verification"`
	Message      string                `json:"message"`
}

type HistoryResponse struct {
	Verifications []*VerificationResponse `json:"verifications"`
	Count         int                     `json:"count"`
}

type FingerprintResponse struct {
	Fingerprint string `json:"fingerprint"`
	ContentURI  string `json:"content_uri,omitempty"`
}

func toVerificationResponse(record models.VerificationRecord) *VerificationResponse {
	return &VerificationResponse{
		Fingerprint:  record.Fingerprint.String(),
		ContentURI:   record.ContentURI,
		Attester:     record.Attester.String(),
		CreationType: record.CreationType.String(),
		Status:       record.Status.String(),
		Vouches:      record.Vouches,
		CreatedAt:    record.CreatedAt,
	}
}

func toHistoryResponse(records []models.VerificationRecord) *HistoryResponse {
	out := make([]*VerificationResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toVerificationResponse(record))
	}
	return &HistoryResponse{Verifications: out, Count: len(out)}
}
