package services

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"time"

	"permit-management-api/config"
	"permit-management-api/models"

	"gorm.io/gorm"
)

// SendFunc delivers one rendered message. config.SendMail in production;
// tests substitute a stub.
type SendFunc func(to []string, subject, body string) error

// maxErrorMessageLen bounds the error text stored on failed notification
// audit rows.
const maxErrorMessageLen = 255

var emailBody = template.Must(template.New("email").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px;">
  <h3>{{.Subject}}</h3>
  <p>Dear {{.Name}},</p>
  <p>{{.Message}}</p>
  <p style="color:#666">Folio: <strong>{{.Folio}}</strong></p>
  <hr>
  <p style="font-size:12px;color:#999">This is an automated message from the permit management system. Please do not reply.</p>
</div>`))

// Notifier dispatches review notifications and records an append-only audit
// row per attempt. It never returns an error to its caller: per-recipient
// failures are recorded and logged, and one recipient's failure never blocks
// the others.
type Notifier struct {
	DB   *gorm.DB
	Send SendFunc
}

func (n *Notifier) sender() SendFunc {
	if n.Send != nil {
		return n.Send
	}
	return config.SendMail
}

// NotifyAssignments messages the live reviewer roster of each review,
// deduplicating against prior notification records so a reviewer is notified
// at most once per assignment event.
func (n *Notifier) NotifyAssignments(reviews []models.DependencyReview) {
	var sent, failed, skipped int

	for i := range reviews {
		review := &reviews[i]

		recipients, err := n.recipientsFor(review)
		if err != nil {
			log.Printf("notifier: failed to resolve recipients for review %d (folio %s): %v",
				review.ReviewID, review.Folio, err)
			continue
		}

		for _, user := range recipients {
			if user.Email == "" {
				continue
			}

			dup, err := n.alreadyNotified(user.UserID, review)
			if err != nil {
				log.Printf("notifier: dedup check failed for user %d review %d: %v",
					user.UserID, review.ReviewID, err)
				continue
			}
			if dup {
				skipped++
				continue
			}

			subject := fmt.Sprintf("New review assignment - folio %s", review.Folio)
			message := "A procedure has been assigned to your department for review. Please sign in to record your resolution."
			if review.IsDirectorReview() {
				subject = fmt.Sprintf("Director review required - folio %s", review.Folio)
				message = "A procedure requires director-level review. Please sign in to record your decision."
			}

			sendErr := n.deliver(user, subject, message, review.Folio)
			if err := n.recordAttempt(user.UserID, review, models.NotificationTypeAssignment, sendErr); err != nil {
				log.Printf("notifier: failed to write notification audit row for user %d review %d: %v",
					user.UserID, review.ReviewID, err)
			}
			if sendErr != nil {
				failed++
				log.Printf("notifier: send failed for user %d review %d: %v", user.UserID, review.ReviewID, sendErr)
			} else {
				sent++
			}
		}
	}

	log.Printf("notifier: assignment dispatch for %d review(s): %d sent, %d failed, %d deduplicated",
		len(reviews), sent, failed, skipped)
}

// NotifyProcedureStatus tells the procedure's submitter about a status
// change. Best-effort: failures are logged and recorded, never propagated.
func (n *Notifier) NotifyProcedureStatus(proc *models.Procedure, newStatus int) {
	var submitter models.User
	if err := n.DB.Where("user_id = ? AND delete_at IS NULL", proc.UserID).First(&submitter).Error; err != nil {
		log.Printf("notifier: submitter %d not found for folio %s: %v", proc.UserID, proc.Folio, err)
		return
	}
	if submitter.Email == "" {
		return
	}

	label := statusChangeLabel(newStatus)
	subject := fmt.Sprintf("Procedure %s: %s", proc.Folio, label)
	message := fmt.Sprintf("The status of your procedure has changed to: %s.", label)

	sendErr := n.deliver(submitter, subject, message, proc.Folio)
	rec := models.Notification{
		UserID:    submitter.UserID,
		Folio:     proc.Folio,
		Type:      models.NotificationTypeStatusChange,
		EmailSent: sendErr == nil,
		CreateAt:  time.Now(),
	}
	if sendErr != nil {
		msg := truncateError(sendErr)
		rec.ErrorMessage = &msg
		log.Printf("notifier: status-change send failed for folio %s: %v", proc.Folio, sendErr)
	}
	if err := n.DB.Create(&rec).Error; err != nil {
		log.Printf("notifier: failed to write status-change audit row for folio %s: %v", proc.Folio, err)
	}
}

// recipientsFor resolves the candidate recipients of a review: active users
// assigned to its department who have not opted out of assignment mail, or,
// for legacy department-less rows, active users sharing the legacy role in
// the municipality.
func (n *Notifier) recipientsFor(review *models.DependencyReview) ([]models.User, error) {
	var users []models.User

	if review.DepartmentID != nil {
		err := n.DB.Model(&models.User{}).
			Joins("JOIN department_user_assignments dua ON dua.user_id = users.user_id").
			Where("dua.department_id = ?", *review.DepartmentID).
			Where("dua.is_active_for_reviews = ?", true).
			Where("dua.can_receive_assignments = ?", true).
			Where("dua.notify_on_assignment = ?", true).
			Where("users.is_active = ? AND users.delete_at IS NULL", true).
			Find(&users).Error
		return users, err
	}

	err := n.DB.Where("role_id = ? AND municipality_id = ? AND is_active = ? AND delete_at IS NULL",
		review.Role, review.MunicipalityID, true).
		Find(&users).Error
	return users, err
}

// alreadyNotified reports whether a prior audit row makes a new send
// redundant: either the recipient already got the email, or an assignment
// attempt for the same (user, review, folio) was recorded earlier today.
func (n *Notifier) alreadyNotified(userID int, review *models.DependencyReview) (bool, error) {
	now := time.Now()
	year, month, day := now.Date()
	startOfDay := time.Date(year, month, day, 0, 0, 0, 0, now.Location())

	var count int64
	err := n.DB.Model(&models.Notification{}).
		Where("user_id = ? AND review_id = ? AND folio = ?", userID, review.ReviewID, review.Folio).
		Where("email_sent = ? OR (type = ? AND create_at >= ?)",
			true, models.NotificationTypeAssignment, startOfDay).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (n *Notifier) deliver(user models.User, subject, message, folio string) error {
	var body bytes.Buffer
	err := emailBody.Execute(&body, map[string]string{
		"Subject": subject,
		"Name":    user.FullName(),
		"Message": message,
		"Folio":   folio,
	})
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}
	return n.sender()([]string{user.Email}, subject, body.String())
}

// recordAttempt writes the audit row for one send attempt. Each row is its
// own insert so one recipient's rollback cannot affect another's.
func (n *Notifier) recordAttempt(userID int, review *models.DependencyReview, ntype string, sendErr error) error {
	rec := models.Notification{
		UserID:       userID,
		ReviewID:     &review.ReviewID,
		Folio:        review.Folio,
		Type:         ntype,
		EmailSent:    sendErr == nil,
		DepartmentID: review.DepartmentID,
		CreateAt:     time.Now(),
	}
	if sendErr != nil {
		msg := truncateError(sendErr)
		rec.ErrorMessage = &msg
	}
	return n.DB.Create(&rec).Error
}

func truncateError(err error) string {
	msg := err.Error()
	if len(msg) > maxErrorMessageLen {
		msg = msg[:maxErrorMessageLen]
	}
	return msg
}

func statusChangeLabel(status int) string {
	switch status {
	case models.ProcedureStatusApproved:
		return "approved"
	case models.ProcedureStatusRejected:
		return "rejected / correction required"
	case models.ProcedureStatusLicenseIssued:
		return "license issued"
	case models.ProcedureStatusPendingApproval:
		return "pending approval"
	}
	return "updated"
}
