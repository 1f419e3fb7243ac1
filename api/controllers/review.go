package controllers

import (
	"net/http"
	"strings"

	"github.com/tundeafolabi/indicert-backend/api/middleware"
	"github.com/tundeafolabi/indicert-backend/api/responses"
	"github.com/tundeafolabi/indicert-backend/api/validators"
	"github.com/tundeafolabi/indicert-backend/internal/review"
	pkgerrors "github.com/tundeafolabi/indicert-backend/pkg/errors"
	"github.com/tundeafolabi/indicert-backend/pkg/logger"
)

// ReviewQueue lists applications flagged for manual review, newest first.
func ReviewQueue(svc review.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultListLimit, 1, maxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		apps, err := svc.ListQueue(r.Context(), limit)
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

type reviewApproveRequest struct {
	Notes string `json:"notes" validate:"max=500"`
}

// ReviewApprove resolves an exception-review application in the applicant's
// favor and triggers certificate issuance.
func ReviewApprove(svc review.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
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

		var payload reviewApproveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		app, err := svc.Approve(r.Context(), applicationID, actorID, strings.TrimSpace(payload.Notes))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, applicationResponseFromModel(app))
	}
}

type reviewRejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
	Notes  string `json:"notes" validate:"max=500"`
}

// ReviewReject resolves an exception-review application against the applicant.
func ReviewReject(svc review.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
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

		var payload reviewRejectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		app, err := svc.Reject(r.Context(), applicationID, actorID, strings.TrimSpace(payload.Reason), strings.TrimSpace(payload.Notes))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, applicationResponseFromModel(app))
	}
}
