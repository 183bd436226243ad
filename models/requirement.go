package models

import "time"

// RequirementField is the catalog of intake form fields. Answers reference
// fields by name, the routing table references them by id.
type RequirementField struct {
	FieldID  int        `gorm:"primaryKey;column:field_id" json:"field_id"`
	Name     string     `gorm:"column:name;unique" json:"name"`
	Label    string     `gorm:"column:label" json:"label"`
	IsActive bool       `gorm:"column:is_active;default:true" json:"is_active"`
	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
}

// ProcedureAnswer is one recorded intake answer for a folio. An answer only
// activates its field when the value is non-empty.
type ProcedureAnswer struct {
	AnswerID  int       `gorm:"primaryKey;column:answer_id" json:"answer_id"`
	Folio     string    `gorm:"column:folio;index" json:"folio"`
	FieldName string    `gorm:"column:field_name" json:"field_name"`
	Value     string    `gorm:"column:value" json:"value"`
	CreateAt  time.Time `gorm:"column:create_at" json:"create_at"`
}

// RequirementDepartmentAssignment is the declarative routing table: which
// department must review a procedure when a given field is answered (or, on
// the fallback tier, when the procedure carries a given type).
type RequirementDepartmentAssignment struct {
	RequirementAssignmentID int        `gorm:"primaryKey;column:requirement_assignment_id" json:"requirement_assignment_id"`
	FieldID                 int        `gorm:"column:field_id;index" json:"field_id"`
	DepartmentID            int        `gorm:"column:department_id;index" json:"department_id"`
	MunicipalityID          int        `gorm:"column:municipality_id;index" json:"municipality_id"`
	ProcedureType           string     `gorm:"column:procedure_type" json:"procedure_type"`
	IsRequiredForApproval   bool       `gorm:"column:is_required_for_approval;default:true" json:"is_required_for_approval"`
	ParallelReviewAllowed   bool       `gorm:"column:parallel_review_allowed;default:true" json:"parallel_review_allowed"`
	ReviewPriority          int        `gorm:"column:review_priority;default:1" json:"review_priority"`
	DependsOnDepartmentID   *int       `gorm:"column:depends_on_department_id" json:"depends_on_department_id,omitempty"`
	RequireAllUsersApproval bool       `gorm:"column:require_all_users_approval" json:"require_all_users_approval"`
	AutoApproveIfNoIssues   bool       `gorm:"column:auto_approve_if_no_issues" json:"auto_approve_if_no_issues"`
	CreateAt                *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt                *time.Time `gorm:"column:update_at" json:"update_at"`

	// Relations
	Field      RequirementField `gorm:"foreignKey:FieldID" json:"field,omitempty"`
	Department Department       `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
}

// TableName overrides
func (RequirementField) TableName() string {
	return "requirement_fields"
}

func (ProcedureAnswer) TableName() string {
	return "procedure_answers"
}

func (RequirementDepartmentAssignment) TableName() string {
	return "requirement_department_assignments"
}
