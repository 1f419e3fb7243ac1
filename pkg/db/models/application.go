package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tundeafolabi/indicert-backend/pkg/enums"
)

// Application is one citizen's claim to indigene status for a State+LGA.
// At most one Application per (user_id, state) may hold Approved status at a
// time; a partial unique index enforces that as the last line of defense.
type Application struct {
	ID                  int64                   `gorm:"column:id;primaryKey;autoIncrement"`
	UserID              int64                   `gorm:"column:user_id;not null"`
	State               string                  `gorm:"column:state;size:50;not null"`
	LGA                 string                  `gorm:"column:lga;size:100;not null"`
	FatherNIN           *string                 `gorm:"column:father_nin;size:11"`
	MotherNIN           *string                 `gorm:"column:mother_nin;size:11"`
	SupportingDocuments *string                 `gorm:"column:supporting_documents;size:500"`
	DeclarationAccepted bool                    `gorm:"column:declaration_accepted;not null;default:false"`
	Status              enums.ApplicationStatus `gorm:"column:status;size:50;not null;default:'Draft'"`
	RiskScore           decimal.Decimal         `gorm:"column:risk_score;type:numeric(5,2);not null;default:0"`
	ConfidenceScore     decimal.Decimal         `gorm:"column:confidence_score;type:numeric(5,2);not null;default:0"`
	RejectionReason     *string                 `gorm:"column:rejection_reason;size:500"`
	VerificationNotes   *string                 `gorm:"column:verification_notes;size:500"`
	ReviewedBy          *int64                  `gorm:"column:reviewed_by"`
	CreatedAt           time.Time               `gorm:"column:created_at;autoCreateTime"`
	SubmittedAt         *time.Time              `gorm:"column:submitted_at"`
	VerifiedAt          *time.Time              `gorm:"column:verified_at"`
	ApprovedAt          *time.Time              `gorm:"column:approved_at"`

	User        *User        `gorm:"foreignKey:UserID"`
	Certificate *Certificate `gorm:"foreignKey:ApplicationID"`
}

// HasParentNIN reports whether at least one parent NIN was supplied.
func (a Application) HasParentNIN() bool {
	return (a.FatherNIN != nil && *a.FatherNIN != "") || (a.MotherNIN != nil && *a.MotherNIN != "")
}

// HasSupportingDocuments reports whether any document references were supplied.
func (a Application) HasSupportingDocuments() bool {
	return a.SupportingDocuments != nil && *a.SupportingDocuments != ""
}
