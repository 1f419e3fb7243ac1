package models

import "time"

// AuditLog records an action taken against an application or certificate.
type AuditLog struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ApplicationID *int64    `gorm:"column:application_id"`
	CertificateID *int64    `gorm:"column:certificate_id"`
	Action        string    `gorm:"column:action;size:50;not null"`
	EntityType    string    `gorm:"column:entity_type;size:50;not null"`
	Description   *string   `gorm:"column:description;size:500"`
	UserID        *int64    `gorm:"column:user_id"`
	UserRole      *string   `gorm:"column:user_role;size:50"`
	IPAddress     *string   `gorm:"column:ip_address;size:50"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
