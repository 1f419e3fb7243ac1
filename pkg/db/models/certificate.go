package models

import (
	"time"

	"github.com/tundeafolabi/indicert-backend/pkg/enums"
)

// Certificate is the issued artifact for an approved Application. Immutable
// after issuance except for the revocation fields.
type Certificate struct {
	ID               int64                   `gorm:"column:id;primaryKey;autoIncrement"`
	ApplicationID    int64                   `gorm:"column:application_id;not null;unique"`
	CertificateID    string                  `gorm:"column:certificate_id;size:50;not null;unique"`
	QRCodeData       string                  `gorm:"column:qr_code_data;size:5000;not null"`
	PDFPath          string                  `gorm:"column:pdf_path;size:500;not null"`
	Hash             string                  `gorm:"column:hash;size:64;not null"`
	Status           enums.CertificateStatus `gorm:"column:status;size:50;not null;default:'Active'"`
	RevocationReason *string                 `gorm:"column:revocation_reason;size:500"`
	RevokedAt        *time.Time              `gorm:"column:revoked_at"`
	RevokedBy        *int64                  `gorm:"column:revoked_by"`
	IssuedAt         time.Time               `gorm:"column:issued_at;not null"`
	ExpiresAt        time.Time               `gorm:"column:expires_at;not null"`

	Application *Application `gorm:"foreignKey:ApplicationID"`
}

// IsExpired reports whether the certificate has passed its expiry instant.
// Expiry is advisory: no sweep flips rows to Expired, callers compare at read
// time.
func (c Certificate) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
