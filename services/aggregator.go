package services

import (
	"permit-management-api/models"

	"gorm.io/gorm"
)

// OverallStatus is the procedure-level aggregate of its review rows.
type OverallStatus string

const (
	OverallPending            OverallStatus = "pending"
	OverallApproved           OverallStatus = "approved"
	OverallRejected           OverallStatus = "rejected"
	OverallPreventionRequired OverallStatus = "prevention_required"
	OverallPendingDirector    OverallStatus = "pending_director"
)

// StatusSummary reports the aggregate plus the per-status counts it was
// computed from.
type StatusSummary struct {
	Overall          OverallStatus `json:"overall"`
	TotalReviews     int           `json:"total_reviews"`
	Pending          int           `json:"pending"`
	Approved         int           `json:"approved"`
	Rejected         int           `json:"rejected"`
	Prevention       int           `json:"prevention"`
	DirectorRequired bool          `json:"director_required"`
	DirectorApproved bool          `json:"director_approved"`
}

// OverallProcedureStatus folds all review rows of a procedure into one
// status. Precedence, first match wins: any rejection dominates, then any
// prevention, then completeness (which defers to the director when a
// director review exists and has not approved), then pending. The order is
// load-bearing; do not reorder.
//
// Director rows participate in the rejected/prevention counts but not in the
// pending count: a procedure whose department reviews are all approved and
// which only waits on its director reports pending_director, not pending.
func OverallProcedureStatus(db *gorm.DB, procedureID int) (*StatusSummary, error) {
	var reviews []models.DependencyReview
	if err := db.Where("procedure_id = ?", procedureID).Find(&reviews).Error; err != nil {
		return nil, err
	}

	summary := &StatusSummary{}
	for i := range reviews {
		review := &reviews[i]

		if review.IsDirectorReview() {
			summary.DirectorRequired = true
			if review.DirectorApproved != nil && *review.DirectorApproved {
				summary.DirectorApproved = true
			}
			switch review.CurrentStatus {
			case models.ReviewStatusRejected:
				summary.Rejected++
			case models.ReviewStatusPrevention:
				summary.Prevention++
			}
			continue
		}

		summary.TotalReviews++
		switch review.CurrentStatus {
		case models.ReviewStatusPending:
			summary.Pending++
		case models.ReviewStatusApproved:
			summary.Approved++
		case models.ReviewStatusRejected:
			summary.Rejected++
		case models.ReviewStatusPrevention:
			summary.Prevention++
		}
	}

	switch {
	case summary.Rejected > 0:
		summary.Overall = OverallRejected
	case summary.Prevention > 0:
		summary.Overall = OverallPreventionRequired
	case summary.Pending == 0 && summary.TotalReviews > 0:
		if !summary.DirectorRequired || summary.DirectorApproved {
			summary.Overall = OverallApproved
		} else {
			summary.Overall = OverallPendingDirector
		}
	default:
		summary.Overall = OverallPending
	}

	return summary, nil
}
