package services

import (
	"errors"
	"strings"
	"time"

	"permit-management-api/models"

	"gorm.io/gorm"
)

// ResolutionInput carries one reviewer decision against a review.
type ResolutionInput struct {
	ReviewID    int
	Role        int
	UserID      int
	Status      int
	Explanation string
	FilePaths   []string
}

// ResolutionService persists reviewer decisions and keeps the owning review
// and procedure in sync.
type ResolutionService struct {
	DB       *gorm.DB
	Policy   RoutingPolicy
	Notifier *Notifier
}

// RecordResolution upserts the resolution for (review, role, user), latest
// wins, updates the review's current status, maps the decision onto the
// procedure status, and opens a prevention window when the decision requests
// correction. The whole mutation is one transaction; the submitter
// notification on a status change is best-effort and happens after commit.
func (s *ResolutionService) RecordResolution(in ResolutionInput) (*models.DependencyResolution, error) {
	return s.record(in, false)
}

// RecordDirectorDecision is the director path: same recorder, plus the
// review's director-approved tri-state and an immutable DirectorApproval
// audit row.
func (s *ResolutionService) RecordDirectorDecision(in ResolutionInput) (*models.DependencyResolution, error) {
	return s.record(in, true)
}

func (s *ResolutionService) record(in ResolutionInput, director bool) (*models.DependencyResolution, error) {
	switch in.Status {
	case models.ResolutionApprove, models.ResolutionReject, models.ResolutionRequestCorrection:
	default:
		return nil, ErrInvalidResolutionStatus
	}

	var review models.DependencyReview
	if err := s.DB.Where("review_id = ?", in.ReviewID).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	if director && !review.IsDirectorReview() {
		return nil, ErrNotDirectorReview
	}

	var proc models.Procedure
	if err := s.DB.Where("procedure_id = ?", review.ProcedureID).First(&proc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProcedureNotFound
		}
		return nil, err
	}

	now := time.Now()
	newProcStatus := procedureStatusFor(in.Status)
	statusChanged := proc.Status != newProcStatus

	var resolution models.DependencyResolution
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("review_id = ? AND role = ? AND user_id = ?", in.ReviewID, in.Role, in.UserID).
			Order("resolution_id DESC").
			First(&resolution).Error
		switch {
		case err == nil:
			resolution.Status = in.Status
			resolution.Explanation = in.Explanation
			resolution.FilePaths = strings.Join(in.FilePaths, "\n")
			resolution.UpdateAt = now
			if err := tx.Save(&resolution).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			resolution = models.DependencyResolution{
				ReviewID:    in.ReviewID,
				Role:        in.Role,
				UserID:      in.UserID,
				Status:      in.Status,
				Explanation: in.Explanation,
				FilePaths:   strings.Join(in.FilePaths, "\n"),
				CreateAt:    now,
				UpdateAt:    now,
			}
			if err := tx.Create(&resolution).Error; err != nil {
				return err
			}
		default:
			return err
		}

		reviewUpdates := map[string]interface{}{
			"current_status": reviewStatusFor(in.Status),
			"update_date":    now,
		}
		if director {
			reviewUpdates["director_approved"] = in.Status == models.ResolutionApprove
		}
		if err := tx.Model(&models.DependencyReview{}).
			Where("review_id = ?", in.ReviewID).
			Updates(reviewUpdates).Error; err != nil {
			return err
		}

		if in.Status == models.ResolutionRequestCorrection {
			prevention := models.PreventionRequest{
				ReviewID:          in.ReviewID,
				Role:              in.Role,
				UserID:            in.UserID,
				Comments:          in.Explanation,
				BusinessDays:      s.Policy.PreventionBusinessDays,
				MaxResolutionDate: AddBusinessDays(now, s.Policy.PreventionBusinessDays),
				CreateAt:          now,
			}
			if err := tx.Create(&prevention).Error; err != nil {
				return err
			}
		}

		if statusChanged {
			procUpdates := map[string]interface{}{
				"status":    newProcStatus,
				"update_at": now,
			}
			if director {
				procUpdates["director_approval"] = in.Status == models.ResolutionApprove
			}
			if err := tx.Model(&models.Procedure{}).
				Where("procedure_id = ?", proc.ProcedureID).
				Updates(procUpdates).Error; err != nil {
				return err
			}
		} else if director {
			if err := tx.Model(&models.Procedure{}).
				Where("procedure_id = ?", proc.ProcedureID).
				Updates(map[string]interface{}{
					"director_approval": in.Status == models.ResolutionApprove,
					"update_at":         now,
				}).Error; err != nil {
				return err
			}
		}

		if director {
			audit := models.DirectorApproval{
				ProcedureID: proc.ProcedureID,
				Folio:       proc.Folio,
				UserID:      in.UserID,
				Approved:    in.Status == models.ResolutionApprove,
				Comments:    in.Explanation,
				CreateAt:    now,
			}
			if err := tx.Create(&audit).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if statusChanged && s.Notifier != nil {
		s.Notifier.NotifyProcedureStatus(&proc, newProcStatus)
	}

	return &resolution, nil
}

// reviewStatusFor maps a resolution status onto the review status it leaves
// behind. The numeric values line up today, but the mapping stays explicit.
func reviewStatusFor(resolutionStatus int) int {
	switch resolutionStatus {
	case models.ResolutionApprove:
		return models.ReviewStatusApproved
	case models.ResolutionReject:
		return models.ReviewStatusRejected
	case models.ResolutionRequestCorrection:
		return models.ReviewStatusPrevention
	}
	return models.ReviewStatusPending
}

// procedureStatusFor maps a resolution status onto the procedure status.
// Correction requests land in the same rejected bucket as rejections; the
// prevention window distinguishes them.
func procedureStatusFor(resolutionStatus int) int {
	if resolutionStatus == models.ResolutionApprove {
		return models.ProcedureStatusApproved
	}
	return models.ProcedureStatusRejected
}
