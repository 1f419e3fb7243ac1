package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tundeafolabi/indicert-backend/api/middleware"
	"github.com/tundeafolabi/indicert-backend/api/responses"
	"github.com/tundeafolabi/indicert-backend/api/validators"
	"github.com/tundeafolabi/indicert-backend/internal/certificates"
	pkgerrors "github.com/tundeafolabi/indicert-backend/pkg/errors"
	"github.com/tundeafolabi/indicert-backend/pkg/logger"
)

type certificateVerifyResponse struct {
	IsValid          bool       `json:"is_valid"`
	Name             string     `json:"name,omitempty"`
	State            string     `json:"state,omitempty"`
	LGA              string     `json:"lga,omitempty"`
	Status           string     `json:"status,omitempty"`
	IssuedAt         *time.Time `json:"issued_at,omitempty"`
	IsRevoked        bool       `json:"is_revoked"`
	RevocationReason *string    `json:"revocation_reason,omitempty"`
	Message          string     `json:"message"`
}

func certificateVerifyResponseFromResult(result *certificates.VerifyResult) certificateVerifyResponse {
	resp := certificateVerifyResponse{
		IsValid:          result.IsValid,
		Name:             result.Name,
		State:            result.State,
		LGA:              result.LGA,
		Status:           result.Status,
		IsRevoked:        result.IsRevoked,
		RevocationReason: result.RevocationReason,
		Message:          result.Message,
	}
	if !result.IssuedAt.IsZero() {
		issued := result.IssuedAt
		resp.IssuedAt = &issued
	}
	return resp
}

// CertificateVerify is the public, unauthenticated verification endpoint.
// Negative outcomes are results, not errors: the caller always gets a body
// with a message.
func CertificateVerify(svc certificates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "certificates service unavailable"))
			return
		}

		certificateID := strings.TrimSpace(chi.URLParam(r, "certificateId"))
		if certificateID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "certificate id is required"))
			return
		}

		result, err := svc.VerifyCertificate(r.Context(), certificateID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, certificateVerifyResponseFromResult(result))
	}
}

type certificateRevokeRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// CertificateRevoke handles admin revocation of an issued certificate.
func CertificateRevoke(svc certificates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "certificates service unavailable"))
			return
		}

		certificateID := strings.TrimSpace(chi.URLParam(r, "certificateId"))
		if certificateID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "certificate id is required"))
			return
		}

		actorID := middleware.ActorIDFromContext(r.Context())
		if actorID == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		var payload certificateRevokeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		revoked, err := svc.RevokeCertificate(r.Context(), certificateID, strings.TrimSpace(payload.Reason), actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !revoked {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "Certificate not found"))
			return
		}

		responses.WriteSuccess(w, map[string]any{"certificate_id": certificateID, "revoked": true})
	}
}

// CertificatePDF streams the stored certificate document.
func CertificatePDF(svc certificates.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "certificates service unavailable"))
			return
		}

		certificateID := strings.TrimSpace(chi.URLParam(r, "certificateId"))
		if certificateID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "certificate id is required"))
			return
		}

		pdf, err := svc.GetCertificatePDF(r.Context(), certificateID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", certificateID+".pdf"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(pdf)
	}
}
