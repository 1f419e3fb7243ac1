package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/tundeafolabi/indicert-backend/api/responses"
	"github.com/tundeafolabi/indicert-backend/api/validators"
	"github.com/tundeafolabi/indicert-backend/internal/audit"
	"github.com/tundeafolabi/indicert-backend/pkg/db/models"
	pkgerrors "github.com/tundeafolabi/indicert-backend/pkg/errors"
	"github.com/tundeafolabi/indicert-backend/pkg/logger"
)

type auditLogResponse struct {
	ID            int64     `json:"id"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	ApplicationID *int64    `json:"application_id"`
	CertificateID *int64    `json:"certificate_id"`
	Description   *string   `json:"description"`
	UserID        *int64    `json:"user_id"`
	UserRole      *string   `json:"user_role"`
	IPAddress     *string   `json:"ip_address"`
	CreatedAt     time.Time `json:"created_at"`
}

func auditLogResponseFromModel(m *models.AuditLog) auditLogResponse {
	return auditLogResponse{
		ID:            m.ID,
		Action:        m.Action,
		EntityType:    m.EntityType,
		ApplicationID: m.ApplicationID,
		CertificateID: m.CertificateID,
		Description:   m.Description,
		UserID:        m.UserID,
		UserRole:      m.UserRole,
		IPAddress:     m.IPAddress,
		CreatedAt:     m.CreatedAt,
	}
}

// AuditByApplication returns the audit trail for one application.
func AuditByApplication(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit service unavailable"))
			return
		}

		applicationID, err := applicationIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultListLimit, 1, maxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		logs, err := svc.ListByApplication(r.Context(), applicationID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]auditLogResponse, 0, len(logs))
		for i := range logs {
			items = append(items, auditLogResponseFromModel(&logs[i]))
		}
		responses.WriteSuccess(w, items)
	}
}

// AuditByAction returns recent audit entries matching one action label.
func AuditByAction(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit service unavailable"))
			return
		}

		action := strings.TrimSpace(r.URL.Query().Get("action"))
		if action == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "action is required"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultListLimit, 1, maxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		logs, err := svc.ListByAction(r.Context(), action, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]auditLogResponse, 0, len(logs))
		for i := range logs {
			items = append(items, auditLogResponseFromModel(&logs[i]))
		}
		responses.WriteSuccess(w, items)
	}
}
