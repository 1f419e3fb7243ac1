package review

import (
	"context"
	"fmt"
	"time"

	"github.com/tundeafolabi/indicert-backend/internal/audit"
	"github.com/tundeafolabi/indicert-backend/internal/certificates"
	"github.com/tundeafolabi/indicert-backend/pkg/db"
	"github.com/tundeafolabi/indicert-backend/pkg/db/models"
	"github.com/tundeafolabi/indicert-backend/pkg/enums"
	pkgerrors "github.com/tundeafolabi/indicert-backend/pkg/errors"
	"github.com/tundeafolabi/indicert-backend/pkg/logger"
)

type reviewRepository interface {
	ListExceptionQueue(ctx context.Context, limit int) ([]models.Application, error)
	FindByID(ctx context.Context, id int64) (*models.Application, error)
	ApplyResolution(ctx context.Context, app *models.Application) error
}

// Service resolves applications queued for human adjudication. Approve and
// Reject are single-shot: they only succeed while the application is still in
// exception review.
type Service interface {
	ListQueue(ctx context.Context, limit int) ([]models.Application, error)
	Approve(ctx context.Context, applicationID, adminUserID int64, notes string) (*models.Application, error)
	Reject(ctx context.Context, applicationID, adminUserID int64, reason, notes string) (*models.Application, error)
}

type service struct {
	repo    reviewRepository
	issuer  certificates.Service
	auditor audit.Service
	logg    *logger.Logger

	now func() time.Time
}

// NewService builds a review service backed by the provided collaborators.
func NewService(repo reviewRepository, issuer certificates.Service, auditor audit.Service, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if issuer == nil {
		return nil, fmt.Errorf("certificate service required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		issuer:  issuer,
		auditor: auditor,
		logg:    logg,
		now:     time.Now,
	}, nil
}

func (s *service) ListQueue(ctx context.Context, limit int) ([]models.Application, error) {
	return s.repo.ListExceptionQueue(ctx, limit)
}

func (s *service) Approve(ctx context.Context, applicationID, adminUserID int64, notes string) (*models.Application, error) {
	app, err := s.loadForResolution(ctx, applicationID, adminUserID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	app.Status = enums.ApplicationStatusApproved
	app.ApprovedAt = &now
	app.VerifiedAt = &now
	app.ReviewedBy = &adminUserID
	if notes != "" {
		app.VerificationNotes = &notes
	}

	if err := s.applyResolution(ctx, app); err != nil {
		return nil, err
	}

	// issuance failure leaves the application approved; the caller can retry
	// generation, which is idempotent
	if _, err := s.issuer.GenerateCertificate(ctx, app.ID); err != nil {
		s.logg.Error(s.logg.WithApplicationID(ctx, app.ID), "certificate issuance after approval failed", err)
		return nil, err
	}

	adminRole := "Admin"
	s.auditor.LogAction(ctx, audit.Entry{
		Action:        audit.ActionApplicationApproved,
		EntityType:    audit.EntityApplication,
		ApplicationID: &app.ID,
		Description:   fmt.Sprintf("Application approved by admin. Notes: %s", notes),
		ActorID:       &adminUserID,
		ActorRole:     adminRole,
	})

	return app, nil
}

func (s *service) Reject(ctx context.Context, applicationID, adminUserID int64, reason, notes string) (*models.Application, error) {
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}

	app, err := s.loadForResolution(ctx, applicationID, adminUserID)
	if err != nil {
		return nil, err
	}

	app.Status = enums.ApplicationStatusRejected
	app.RejectionReason = &reason
	app.ReviewedBy = &adminUserID
	if notes != "" {
		app.VerificationNotes = &notes
	}

	if err := s.applyResolution(ctx, app); err != nil {
		return nil, err
	}

	adminRole := "Admin"
	s.auditor.LogAction(ctx, audit.Entry{
		Action:        audit.ActionApplicationRejected,
		EntityType:    audit.EntityApplication,
		ApplicationID: &app.ID,
		Description:   fmt.Sprintf("Application rejected by admin. Reason: %s", reason),
		ActorID:       &adminUserID,
		ActorRole:     adminRole,
	})

	return app, nil
}

func (s *service) loadForResolution(ctx context.Context, applicationID, adminUserID int64) (*models.Application, error) {
	if applicationID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "application id required")
	}
	if adminUserID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin identity required")
	}

	app, err := s.repo.FindByID(ctx, applicationID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading application")
	}
	if app.Status != enums.ApplicationStatusExceptionReview {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "application is not in exception review status")
	}
	return app, nil
}

func (s *service) applyResolution(ctx context.Context, app *models.Application) error {
	if err := s.repo.ApplyResolution(ctx, app); err != nil {
		if db.IsNotFound(err) {
			// lost the race with another reviewer
			return pkgerrors.New(pkgerrors.CodeStateConflict, "application is not in exception review status")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting review resolution")
	}
	return nil
}
