package models

import "time"

// Notification types written by the dispatcher.
const (
	NotificationTypeAssignment   = "assignment"
	NotificationTypeApproval     = "approval"
	NotificationTypeRejection    = "rejection"
	NotificationTypePrevention   = "prevention"
	NotificationTypeStatusChange = "status_change"
)

// Notification is an append-only audit and deduplication record: one row per
// send attempt, successful or not. Rows are never mutated after creation.
type Notification struct {
	NotificationID int       `gorm:"primaryKey;column:notification_id" json:"notification_id"`
	UserID         int       `gorm:"column:user_id;index" json:"user_id"`
	ReviewID       *int      `gorm:"column:review_id;index" json:"review_id,omitempty"`
	Folio          string    `gorm:"column:folio;index" json:"folio"`
	Type           string    `gorm:"column:type" json:"type"`
	EmailSent      bool      `gorm:"column:email_sent" json:"email_sent"`
	ErrorMessage   *string   `gorm:"column:error_message" json:"error_message,omitempty"`
	DepartmentID   *int      `gorm:"column:department_id" json:"department_id,omitempty"`
	CreateAt       time.Time `gorm:"column:create_at" json:"create_at"`
}

func (Notification) TableName() string { return "notifications" }
