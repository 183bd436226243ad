package models

import "time"

// Procedure status codes mirror procedures.status.
const (
	ProcedureStatusNew             = 0
	ProcedureStatusPendingApproval = 1
	ProcedureStatusApproved        = 2
	ProcedureStatusRejected        = 3 // also the prevention ("needs correction") bucket
	ProcedureStatusLicenseIssued   = 7
)

// Procedure is one submitted application instance (business license or
// construction permit). Rows are never deleted, only status-transitioned.
type Procedure struct {
	ProcedureID      int        `gorm:"primaryKey;column:procedure_id" json:"procedure_id"`
	Folio            string     `gorm:"column:folio;unique" json:"folio"`
	MunicipalityID   int        `gorm:"column:municipality_id;index" json:"municipality_id"`
	ProcedureType    string     `gorm:"column:procedure_type" json:"procedure_type"`
	Status           int        `gorm:"column:status;default:0" json:"status"`
	DirectorApproval *bool      `gorm:"column:director_approval" json:"director_approval"`
	UserID           int        `gorm:"column:user_id;index" json:"user_id"`
	SubmittedAt      *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	CreateAt         time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt         time.Time  `gorm:"column:update_at" json:"update_at"`

	// Relations
	Municipality Municipality `gorm:"foreignKey:MunicipalityID" json:"municipality,omitempty"`
	User         User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Procedure) TableName() string {
	return "procedures"
}

// StatusLabel maps a procedure status code to its display name.
func (p *Procedure) StatusLabel() string {
	switch p.Status {
	case ProcedureStatusNew:
		return "new"
	case ProcedureStatusPendingApproval:
		return "pending_approval"
	case ProcedureStatusApproved:
		return "approved"
	case ProcedureStatusRejected:
		return "rejected"
	case ProcedureStatusLicenseIssued:
		return "license_issued"
	}
	return "unknown"
}
