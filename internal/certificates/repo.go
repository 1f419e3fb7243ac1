package certificates

import (
	"context"

	"github.com/tundeafolabi/indicert-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes certificate persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a certificate repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindApplicationForIssuance loads an application with its user and any
// already-issued certificate.
func (r *Repository) FindApplicationForIssuance(ctx context.Context, applicationID int64) (*models.Application, error) {
	var app models.Application
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Certificate").
		First(&app, "id = ?", applicationID).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// FindByCertificateID loads a certificate with its application and user.
func (r *Repository) FindByCertificateID(ctx context.Context, certificateID string) (*models.Certificate, error) {
	var cert models.Certificate
	err := r.db.WithContext(ctx).
		Preload("Application").
		Preload("Application.User").
		First(&cert, "certificate_id = ?", certificateID).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

// ExistsCertificateID reports whether a certificate id is already taken.
func (r *Repository) ExistsCertificateID(ctx context.Context, certificateID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Certificate{}).
		Where("certificate_id = ?", certificateID).
		Count(&count).Error
	return count > 0, err
}

// Create inserts a new certificate row.
func (r *Repository) Create(ctx context.Context, cert *models.Certificate) (*models.Certificate, error) {
	if err := r.db.WithContext(ctx).Create(cert).Error; err != nil {
		return nil, err
	}
	return cert, nil
}

// ApplyRevocation writes the revocation fields in a single statement.
func (r *Repository) ApplyRevocation(ctx context.Context, cert *models.Certificate) error {
	return r.db.WithContext(ctx).
		Model(&models.Certificate{}).
		Where("id = ?", cert.ID).
		Select("status", "revocation_reason", "revoked_at", "revoked_by").
		Updates(map[string]any{
			"status":            cert.Status,
			"revocation_reason": cert.RevocationReason,
			"revoked_at":        cert.RevokedAt,
			"revoked_by":        cert.RevokedBy,
		}).Error
}
