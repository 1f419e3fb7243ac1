package audit

import (
	"context"

	"github.com/tundeafolabi/indicert-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes audit log persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an audit repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new audit log row.
func (r *Repository) Create(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error) {
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return nil, err
	}
	return log, nil
}

// ListByApplication returns audit entries for an application, newest first.
func (r *Repository) ListByApplication(ctx context.Context, applicationID int64, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByAction returns audit entries for a given action, newest first.
func (r *Repository) ListByAction(ctx context.Context, action string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("action = ?", action).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
