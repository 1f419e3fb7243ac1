package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/tundeafolabi/indicert-backend/api/middleware"
	"github.com/tundeafolabi/indicert-backend/api/responses"
	"github.com/tundeafolabi/indicert-backend/api/validators"
	"github.com/tundeafolabi/indicert-backend/internal/applications"
	"github.com/tundeafolabi/indicert-backend/internal/verification"
	"github.com/tundeafolabi/indicert-backend/pkg/db/models"
	"github.com/tundeafolabi/indicert-backend/pkg/enums"
	pkgerrors "github.com/tundeafolabi/indicert-backend/pkg/errors"
	"github.com/tundeafolabi/indicert-backend/pkg/logger"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type applicationDraftRequest struct {
	State               string   `json:"state" validate:"required,max=50"`
	LGA                 string   `json:"lga" validate:"required,max=100"`
	FatherNIN           *string  `json:"father_nin" validate:"omitempty,max=11"`
	MotherNIN           *string  `json:"mother_nin" validate:"omitempty,max=11"`
	SupportingDocuments []string `json:"supporting_documents" validate:"max=10,dive,max=255"`
	DeclarationAccepted bool     `json:"declaration_accepted"`
}

func (r applicationDraftRequest) toInput() applications.DraftInput {
	return applications.DraftInput{
		State:               strings.TrimSpace(r.State),
		LGA:                 strings.TrimSpace(r.LGA),
		FatherNIN:           trimOptional(r.FatherNIN),
		MotherNIN:           trimOptional(r.MotherNIN),
		SupportingDocuments: r.SupportingDocuments,
		DeclarationAccepted: r.DeclarationAccepted,
	}
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// ApplicationCreate handles draft creation for the calling citizen.
func ApplicationCreate(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "applications service unavailable"))
			return
		}

		actorID := middleware.ActorIDFromContext(r.Context())
		if actorID == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		var payload applicationDraftRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), actorID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, applicationResponseFromModel(created))
	}
}

// ApplicationDetail returns a single application. Citizens see their own;
// admins can read any.
func ApplicationDetail(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "applications service unavailable"))
			return
		}

		applicationID, err := applicationIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID := middleware.ActorIDFromContext(r.Context())
		if middleware.RoleFromContext(r.Context()) == "admin" {
			actorID = 0
		} else if actorID == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		app, err := svc.Get(r.Context(), actorID, applicationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, applicationResponseFromModel(app))
	}
}

// ApplicationList returns the calling citizen's applications, newest first.
func ApplicationList(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "applications service unavailable"))
			return
		}

		actorID := middleware.ActorIDFromContext(r.Context())
		if actorID == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultListLimit, 1, maxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		apps, err := svc.List(r.Context(), actorID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]applicationResponse, 0, len(apps))
		for i := range apps {
			items = append(items, applicationResponseFromModel(&apps[i]))
		}
		responses.WriteSuccess(w, items)
	}
}

// ApplicationUpdate replaces the mutable fields of a draft application.
func ApplicationUpdate(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "applications service unavailable"))
			return
		}

		applicationID, err := applicationIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID := middleware.ActorIDFromContext(r.Context())
		if actorID == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		var payload applicationDraftRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateDraft(r.Context(), actorID, applicationID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, applicationResponseFromModel(updated))
	}
}

// ApplicationSubmit moves a draft into the verification pipeline and reports
// the automated decision.
func ApplicationSubmit(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "applications service unavailable"))
			return
		}

		applicationID, err := applicationIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID := middleware.ActorIDFromContext(r.Context())
		if actorID == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing"))
			return
		}

		outcome, err := svc.Submit(r.Context(), actorID, applicationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, submitResponseFromOutcome(outcome))
	}
}

func applicationIDParam(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "applicationId"))
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "application id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid application id")
	}
	return id, nil
}

type applicationResponse struct {
	ID                  int64                   `json:"id"`
	UserID              int64                   `json:"user_id"`
	State               string                  `json:"state"`
	LGA                 string                  `json:"lga"`
	FatherNIN           *string                 `json:"father_nin"`
	MotherNIN           *string                 `json:"mother_nin"`
	SupportingDocuments []string                `json:"supporting_documents"`
	DeclarationAccepted bool                    `json:"declaration_accepted"`
	Status              enums.ApplicationStatus `json:"status"`
	RiskScore           decimal.Decimal         `json:"risk_score"`
	ConfidenceScore     decimal.Decimal         `json:"confidence_score"`
	RejectionReason     *string                 `json:"rejection_reason"`
	VerificationNotes   *string                 `json:"verification_notes"`
	ReviewedBy          *int64                  `json:"reviewed_by"`
	CreatedAt           time.Time               `json:"created_at"`
	SubmittedAt         *time.Time              `json:"submitted_at"`
	VerifiedAt          *time.Time              `json:"verified_at"`
	ApprovedAt          *time.Time              `json:"approved_at"`
	CertificateID       *string                 `json:"certificate_id"`
}

func applicationResponseFromModel(m *models.Application) applicationResponse {
	resp := applicationResponse{
		ID:                  m.ID,
		UserID:              m.UserID,
		State:               m.State,
		LGA:                 m.LGA,
		FatherNIN:           m.FatherNIN,
		MotherNIN:           m.MotherNIN,
		SupportingDocuments: applications.DeserializeDocuments(m.SupportingDocuments),
		DeclarationAccepted: m.DeclarationAccepted,
		Status:              m.Status,
		RiskScore:           m.RiskScore,
		ConfidenceScore:     m.ConfidenceScore,
		RejectionReason:     m.RejectionReason,
		VerificationNotes:   m.VerificationNotes,
		ReviewedBy:          m.ReviewedBy,
		CreatedAt:           m.CreatedAt,
		SubmittedAt:         m.SubmittedAt,
		VerifiedAt:          m.VerifiedAt,
		ApprovedAt:          m.ApprovedAt,
	}
	if m.Certificate != nil {
		resp.CertificateID = &m.Certificate.CertificateID
	}
	return resp
}

type verificationResponse struct {
	IsVerified           bool                    `json:"is_verified"`
	RiskScore            decimal.Decimal         `json:"risk_score"`
	ConfidenceScore      decimal.Decimal         `json:"confidence_score"`
	Status               enums.ApplicationStatus `json:"status"`
	Issues               []string                `json:"issues"`
	RequiresManualReview bool                    `json:"requires_manual_review"`
}

func verificationResponseFromResult(result *verification.Result) verificationResponse {
	issues := result.Issues
	if issues == nil {
		issues = []string{}
	}
	return verificationResponse{
		IsVerified:           result.IsVerified,
		RiskScore:            result.RiskScore,
		ConfidenceScore:      result.ConfidenceScore,
		Status:               result.Status,
		Issues:               issues,
		RequiresManualReview: result.RequiresManualReview,
	}
}

type submitResponse struct {
	Application  applicationResponse  `json:"application"`
	Verification verificationResponse `json:"verification"`
}

func submitResponseFromOutcome(outcome *applications.SubmitOutcome) submitResponse {
	return submitResponse{
		Application:  applicationResponseFromModel(outcome.Application),
		Verification: verificationResponseFromResult(outcome.Verification),
	}
}
