package verification

import (
	"context"

	"github.com/tundeafolabi/indicert-backend/pkg/db/models"
	"github.com/tundeafolabi/indicert-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository exposes the application queries the verification pipeline needs.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a verification repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByIDWithUser loads an application together with its owning user.
func (r *Repository) FindByIDWithUser(ctx context.Context, id int64) (*models.Application, error) {
	var app models.Application
	err := r.db.WithContext(ctx).
		Preload("User").
		First(&app, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// CountOtherApplications counts the user's applications excluding the given one.
func (r *Repository) CountOtherApplications(ctx context.Context, userID, excludeID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("user_id = ? AND id <> ?", userID, excludeID).
		Count(&count).Error
	return count, err
}

// HasDuplicateApproval reports whether the holder of nin already has an
// Approved application or an Active certificate for the given state.
func (r *Repository) HasDuplicateApproval(ctx context.Context, nin, state string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Joins("JOIN users ON users.id = applications.user_id").
		Joins("LEFT JOIN certificates ON certificates.application_id = applications.id").
		Where("users.nin = ? AND applications.state = ?", nin, state).
		Where("applications.status = ? OR certificates.status = ?",
			enums.ApplicationStatusApproved, enums.CertificateStatusActive).
		Count(&count).Error
	return count > 0, err
}

// ApplyDecision writes the verification outcome onto the application row in
// a single statement so scores, status, and timestamps land together.
func (r *Repository) ApplyDecision(ctx context.Context, app *models.Application) error {
	return r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ?", app.ID).
		Select("status", "risk_score", "confidence_score", "rejection_reason", "verified_at", "approved_at").
		Updates(map[string]any{
			"status":           app.Status,
			"risk_score":       app.RiskScore,
			"confidence_score": app.ConfidenceScore,
			"rejection_reason": app.RejectionReason,
			"verified_at":      app.VerifiedAt,
			"approved_at":      app.ApprovedAt,
		}).Error
}
