package applications

import (
	"context"

	"github.com/tundeafolabi/indicert-backend/pkg/db/models"
	"github.com/tundeafolabi/indicert-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository exposes application persistence operations for intake.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an applications repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new application row.
func (r *Repository) Create(ctx context.Context, app *models.Application) (*models.Application, error) {
	if err := r.db.WithContext(ctx).Create(app).Error; err != nil {
		return nil, err
	}
	return app, nil
}

// FindByID loads an application with its certificate.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Application, error) {
	var app models.Application
	err := r.db.WithContext(ctx).
		Preload("Certificate").
		First(&app, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// FindUserByID loads a citizen record.
func (r *Repository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByUser returns a user's applications, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.Application, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.Application
	err := r.db.WithContext(ctx).
		Preload("Certificate").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// HasOpenApplication reports whether the user already has an approved or
// pending application for the state.
func (r *Repository) HasOpenApplication(ctx context.Context, userID int64, state string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("user_id = ? AND state = ?", userID, state).
		Where("status IN ?", []enums.ApplicationStatus{
			enums.ApplicationStatusApproved,
			enums.ApplicationStatusPendingVerification,
		}).
		Count(&count).Error
	return count > 0, err
}

// UpdateDraft writes the mutable draft fields.
func (r *Repository) UpdateDraft(ctx context.Context, app *models.Application) error {
	return r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ?", app.ID).
		Select("state", "lga", "father_nin", "mother_nin", "supporting_documents", "declaration_accepted").
		Updates(map[string]any{
			"state":                app.State,
			"lga":                  app.LGA,
			"father_nin":           app.FatherNIN,
			"mother_nin":           app.MotherNIN,
			"supporting_documents": app.SupportingDocuments,
			"declaration_accepted": app.DeclarationAccepted,
		}).Error
}

// MarkSubmitted transitions a draft to pending verification, guarded on the
// row still being a draft. Returns gorm.ErrRecordNotFound when the guard
// misses.
func (r *Repository) MarkSubmitted(ctx context.Context, app *models.Application) error {
	result := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ? AND status = ?", app.ID, enums.ApplicationStatusDraft).
		Select("status", "submitted_at").
		Updates(map[string]any{
			"status":       app.Status,
			"submitted_at": app.SubmittedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
