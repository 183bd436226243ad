package models

import "time"

// DependencyReview status codes.
const (
	ReviewStatusPending       = 0
	ReviewStatusApproved      = 1
	ReviewStatusRejected      = 2
	ReviewStatusPrevention    = 3
	ReviewStatusLicenseIssued = 4
)

// DependencyResolution status codes.
const (
	ResolutionApprove           = 1
	ResolutionReject            = 2
	ResolutionRequestCorrection = 3
)

// DependencyReview is the routing unit: one row per (procedure, department)
// pair, plus a reserved director row keyed by the fixed director role. The
// unique index on (procedure_id, department_id) closes the check-then-insert
// race between concurrent assignment calls; a conflict on insert means the
// row already exists and must be reselected, not treated as an error.
//
// Director rows carry a NULL department_id, and NULLs never collide in a
// composite unique index, so the reserved director slot needs its own partial
// unique index on (procedure_id, role) restricted to department-less rows.
type DependencyReview struct {
	ReviewID          int        `gorm:"primaryKey;column:review_id" json:"review_id"`
	ProcedureID       int        `gorm:"column:procedure_id;index;uniqueIndex:uq_review_procedure_department;uniqueIndex:uq_review_director_slot,where:department_id IS NULL" json:"procedure_id"`
	MunicipalityID    int        `gorm:"column:municipality_id" json:"municipality_id"`
	Folio             string     `gorm:"column:folio;index" json:"folio"`
	DepartmentID      *int       `gorm:"column:department_id;uniqueIndex:uq_review_procedure_department" json:"department_id,omitempty"`
	Role              int        `gorm:"column:role;uniqueIndex:uq_review_director_slot,where:department_id IS NULL" json:"role"`
	CurrentStatus     int        `gorm:"column:current_status;default:0" json:"current_status"`
	DirectorApproved  *bool      `gorm:"column:director_approved" json:"director_approved"`
	UserID            *int       `gorm:"column:user_id" json:"user_id,omitempty"`
	StartDate         time.Time  `gorm:"column:start_date" json:"start_date"`
	UpdateDate        time.Time  `gorm:"column:update_date" json:"update_date"`
	LicenseIssuedDate *time.Time `gorm:"column:license_issued_date" json:"license_issued_date,omitempty"`
	LicensePath       *string    `gorm:"column:license_path" json:"license_path,omitempty"`

	// Relations
	Procedure  Procedure   `gorm:"foreignKey:ProcedureID" json:"procedure,omitempty"`
	Department *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
}

// IsDirectorReview reports whether the row is the reserved director slot.
func (r *DependencyReview) IsDirectorReview() bool {
	return r.Role == RoleDirector && r.DepartmentID == nil
}

// DependencyResolution is one recorded decision event by a reviewer against a
// review. The latest row per (review, role, user) is authoritative; earlier
// rows are history.
type DependencyResolution struct {
	ResolutionID int       `gorm:"primaryKey;column:resolution_id" json:"resolution_id"`
	ReviewID     int       `gorm:"column:review_id;index" json:"review_id"`
	Role         int       `gorm:"column:role" json:"role"`
	UserID       int       `gorm:"column:user_id" json:"user_id"`
	Status       int       `gorm:"column:status" json:"status"`
	Explanation  string    `gorm:"column:explanation" json:"explanation"`
	FilePaths    string    `gorm:"column:file_paths" json:"file_paths"` // newline-separated opaque storage paths
	CreateAt     time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt     time.Time `gorm:"column:update_at" json:"update_at"`
}

// PreventionRequest opens a time-boxed correction window for the applicant.
// Created exactly when a resolution requests correction.
type PreventionRequest struct {
	PreventionID      int       `gorm:"primaryKey;column:prevention_id" json:"prevention_id"`
	ReviewID          int       `gorm:"column:review_id;index" json:"review_id"`
	Role              int       `gorm:"column:role" json:"role"`
	UserID            int       `gorm:"column:user_id" json:"user_id"`
	Comments          string    `gorm:"column:comments" json:"comments"`
	BusinessDays      int       `gorm:"column:business_days" json:"business_days"`
	MaxResolutionDate time.Time `gorm:"column:max_resolution_date" json:"max_resolution_date"`
	CreateAt          time.Time `gorm:"column:create_at" json:"create_at"`
}

// DirectorApproval is an append-only audit log of director decisions. The
// current director state lives on DependencyReview.DirectorApproved; this
// table is never updated after insert.
type DirectorApproval struct {
	DirectorApprovalID int       `gorm:"primaryKey;column:director_approval_id" json:"director_approval_id"`
	ProcedureID        int       `gorm:"column:procedure_id;index" json:"procedure_id"`
	Folio              string    `gorm:"column:folio" json:"folio"`
	UserID             int       `gorm:"column:user_id" json:"user_id"`
	Approved           bool      `gorm:"column:approved" json:"approved"`
	Comments           string    `gorm:"column:comments" json:"comments"`
	CreateAt           time.Time `gorm:"column:create_at" json:"create_at"`
}

// TableName overrides
func (DependencyReview) TableName() string {
	return "dependency_reviews"
}

func (DependencyResolution) TableName() string {
	return "dependency_resolutions"
}

func (PreventionRequest) TableName() string {
	return "prevention_requests"
}

func (DirectorApproval) TableName() string {
	return "director_approvals"
}
