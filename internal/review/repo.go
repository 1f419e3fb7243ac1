package review

import (
	"context"

	"github.com/tundeafolabi/indicert-backend/pkg/db/models"
	"github.com/tundeafolabi/indicert-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository exposes the application queries the review queue needs.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a review repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListExceptionQueue returns applications awaiting human adjudication, most
// recently submitted first.
func (r *Repository) ListExceptionQueue(ctx context.Context, limit int) ([]models.Application, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.Application
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Certificate").
		Where("status = ?", enums.ApplicationStatusExceptionReview).
		Order("submitted_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID loads an application by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Application, error) {
	var app models.Application
	if err := r.db.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// ApplyResolution writes a manual review outcome in a single statement,
// guarded on the row still being in exception review. Returns
// gorm.ErrRecordNotFound when the guard misses.
func (r *Repository) ApplyResolution(ctx context.Context, app *models.Application) error {
	result := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ? AND status = ?", app.ID, enums.ApplicationStatusExceptionReview).
		Select("status", "rejection_reason", "verification_notes", "reviewed_by", "verified_at", "approved_at").
		Updates(map[string]any{
			"status":             app.Status,
			"rejection_reason":   app.RejectionReason,
			"verification_notes": app.VerificationNotes,
			"reviewed_by":        app.ReviewedBy,
			"verified_at":        app.VerifiedAt,
			"approved_at":        app.ApprovedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
