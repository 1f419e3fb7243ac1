package audit

import (
	"context"
	"fmt"

	"github.com/tundeafolabi/indicert-backend/pkg/db/models"
	pkgerrors "github.com/tundeafolabi/indicert-backend/pkg/errors"
	"github.com/tundeafolabi/indicert-backend/pkg/logger"
)

// Audit actions emitted by the verification and certificate pipeline.
const (
	ActionCertificateGenerated = "CertificateGenerated"
	ActionCertificateRevoked   = "CertificateRevoked"
	ActionApplicationApproved  = "ApplicationApproved"
	ActionApplicationRejected  = "ApplicationRejected"
)

// Entity types recorded alongside actions.
const (
	EntityApplication = "Application"
	EntityCertificate = "Certificate"
)

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error)
	ListByApplication(ctx context.Context, applicationID int64, limit int) ([]models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit int) ([]models.AuditLog, error)
}

// Entry is the metadata for a single audit record.
type Entry struct {
	Action        string
	EntityType    string
	ApplicationID *int64
	CertificateID *int64
	Description   string
	ActorID       *int64
	ActorRole     string
	IPAddress     string
}

// Service records and queries audit events.
type Service interface {
	// LogAction persists an audit record best-effort. Failures are logged
	// and swallowed so an audit outage never rolls back a decision.
	LogAction(ctx context.Context, entry Entry)
	ListByApplication(ctx context.Context, applicationID int64, limit int) ([]models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit int) ([]models.AuditLog, error)
}

type service struct {
	repo auditRepository
	logg *logger.Logger
}

// NewService builds an audit service backed by the provided repository.
func NewService(repo auditRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) LogAction(ctx context.Context, entry Entry) {
	if entry.Action == "" || entry.EntityType == "" {
		s.logg.Warn(ctx, "audit entry missing action or entity type, dropping")
		return
	}

	row := &models.AuditLog{
		ApplicationID: entry.ApplicationID,
		CertificateID: entry.CertificateID,
		Action:        entry.Action,
		EntityType:    entry.EntityType,
		UserID:        entry.ActorID,
	}
	if entry.Description != "" {
		row.Description = &entry.Description
	}
	if entry.ActorRole != "" {
		row.UserRole = &entry.ActorRole
	}
	if entry.IPAddress != "" {
		row.IPAddress = &entry.IPAddress
	}

	if _, err := s.repo.Create(ctx, row); err != nil {
		meta := map[string]any{"action": entry.Action}
		s.logg.Error(s.logg.WithFields(ctx, meta), "failed to persist audit entry", err)
	}
}

func (s *service) ListByApplication(ctx context.Context, applicationID int64, limit int) ([]models.AuditLog, error) {
	if applicationID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "application id required")
	}
	return s.repo.ListByApplication(ctx, applicationID, limit)
}

func (s *service) ListByAction(ctx context.Context, action string, limit int) ([]models.AuditLog, error) {
	if action == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "action required")
	}
	return s.repo.ListByAction(ctx, action, limit)
}
