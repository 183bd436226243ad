package models

import "time"

// Department is an organizational reviewing unit scoped to a municipality.
// The routing engine treats departments as read-only configuration.
type Department struct {
	DepartmentID            int        `gorm:"primaryKey;column:department_id" json:"department_id"`
	MunicipalityID          int        `gorm:"column:municipality_id;uniqueIndex:uq_department_code" json:"municipality_id"`
	Code                    string     `gorm:"column:code;uniqueIndex:uq_department_code" json:"code"`
	Name                    string     `gorm:"column:name" json:"name"`
	CanApprove              bool       `gorm:"column:can_approve;default:true" json:"can_approve"`
	CanReject               bool       `gorm:"column:can_reject;default:true" json:"can_reject"`
	RequiresAllRequirements bool       `gorm:"column:requires_all_requirements" json:"requires_all_requirements"`
	IsActive                bool       `gorm:"column:is_active;default:true" json:"is_active"`
	CreateAt                *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt                *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt                *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Municipality Municipality     `gorm:"foreignKey:MunicipalityID" json:"municipality,omitempty"`
	Roles        []DepartmentRole `gorm:"foreignKey:DepartmentID" json:"roles,omitempty"`
}

// DepartmentRole joins a department with a role identifier. It exists only so
// legacy review rows can carry a single representative role integer.
type DepartmentRole struct {
	DepartmentRoleID int  `gorm:"primaryKey;column:department_role_id" json:"department_role_id"`
	DepartmentID     int  `gorm:"column:department_id;index" json:"department_id"`
	RoleID           int  `gorm:"column:role_id" json:"role_id"`
	CanReview        bool `gorm:"column:can_review;default:true" json:"can_review"`
	CanApprove       bool `gorm:"column:can_approve;default:true" json:"can_approve"`
	CanReject        bool `gorm:"column:can_reject;default:true" json:"can_reject"`
	IsLead           bool `gorm:"column:is_lead" json:"is_lead"`
}

// DepartmentUserAssignment marks a user as a member of a department for
// review purposes. Only rows with IsActiveForReviews are eligible to receive
// assignment notifications.
type DepartmentUserAssignment struct {
	AssignmentID          int        `gorm:"primaryKey;column:assignment_id" json:"assignment_id"`
	UserID                int        `gorm:"column:user_id;index" json:"user_id"`
	DepartmentID          int        `gorm:"column:department_id;index" json:"department_id"`
	MunicipalityID        int        `gorm:"column:municipality_id" json:"municipality_id"`
	IsActiveForReviews    bool       `gorm:"column:is_active_for_reviews;default:true" json:"is_active_for_reviews"`
	CanReceiveAssignments bool       `gorm:"column:can_receive_assignments;default:true" json:"can_receive_assignments"`
	NotifyOnAssignment    bool       `gorm:"column:notify_on_assignment;default:true" json:"notify_on_assignment"`
	CreateAt              *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt              *time.Time `gorm:"column:update_at" json:"update_at"`

	// Relations
	User       User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Department Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
}

// TableName overrides
func (Department) TableName() string {
	return "departments"
}

func (DepartmentRole) TableName() string {
	return "department_roles"
}

func (DepartmentUserAssignment) TableName() string {
	return "department_user_assignments"
}
