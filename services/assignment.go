package services

import (
	"errors"
	"log"
	"time"

	"permit-management-api/models"

	"gorm.io/gorm"
)

// AssignmentService routes a procedure to its reviewing departments. Routing
// rows are created in one all-or-nothing transaction; notification dispatch
// happens after commit and its failures never roll routing back.
type AssignmentService struct {
	DB       *gorm.DB
	Policy   RoutingPolicy
	Notifier *Notifier
}

// Assign creates (or, with force, re-notifies) the review rows for a
// procedure. Idempotent by default: when reviews already exist and force is
// false they are returned untouched and nobody is re-notified.
func (s *AssignmentService) Assign(proc *models.Procedure, force bool) ([]models.DependencyReview, error) {
	var existing []models.DependencyReview
	if err := s.DB.Where("procedure_id = ?", proc.ProcedureID).Find(&existing).Error; err != nil {
		return nil, err
	}
	if len(existing) > 0 && !force {
		return existing, nil
	}

	departments, err := ResolveDepartments(s.DB, proc, s.Policy)
	if err != nil {
		return nil, err
	}
	if len(departments) == 0 {
		// Configuration gap, not a failure: the procedure proceeds with
		// whatever coverage exists (possibly none).
		log.Printf("assignment: no reviewing departments configured for municipality %d (folio %s)",
			proc.MunicipalityID, proc.Folio)
	}

	var reviews []models.DependencyReview
	var toNotify []models.DependencyReview

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		for _, dept := range departments {
			review, created, err := ensureReview(tx, proc, dept)
			if err != nil {
				return err
			}
			reviews = append(reviews, *review)
			if created || force {
				toNotify = append(toNotify, *review)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	directorReview, err := s.ensureDirectorReview(proc)
	if err != nil {
		return nil, err
	}
	if directorReview != nil {
		reviews = append(reviews, *directorReview)
		toNotify = append(toNotify, *directorReview)
	}

	if s.Notifier != nil && len(toNotify) > 0 {
		s.Notifier.NotifyAssignments(toNotify)
	}

	return reviews, nil
}

// ensureReview finds or creates the review row for one (procedure,
// department) pair. The unique index on that pair closes the
// check-then-insert race: an insert conflict means a concurrent assignment
// call won, so the existing row is reselected and reused.
func ensureReview(tx *gorm.DB, proc *models.Procedure, dept models.Department) (*models.DependencyReview, bool, error) {
	var review models.DependencyReview
	err := tx.Where("procedure_id = ? AND department_id = ?", proc.ProcedureID, dept.DepartmentID).
		First(&review).Error
	if err == nil {
		return &review, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	role := models.RoleReviewer
	var deptRole models.DepartmentRole
	if err := tx.Where("department_id = ?", dept.DepartmentID).
		Order("department_role_id ASC").
		First(&deptRole).Error; err == nil {
		role = deptRole.RoleID
	}

	now := time.Now()
	departmentID := dept.DepartmentID
	review = models.DependencyReview{
		ProcedureID:    proc.ProcedureID,
		MunicipalityID: proc.MunicipalityID,
		Folio:          proc.Folio,
		DepartmentID:   &departmentID,
		Role:           role,
		CurrentStatus:  models.ReviewStatusPending,
		StartDate:      now,
		UpdateDate:     now,
	}
	if err := tx.Create(&review).Error; err != nil {
		var current models.DependencyReview
		if selErr := tx.Where("procedure_id = ? AND department_id = ?", proc.ProcedureID, dept.DepartmentID).
			First(&current).Error; selErr == nil {
			return &current, false, nil
		}
		return nil, false, err
	}
	return &review, true, nil
}

// ensureDirectorReview creates the reserved director review row when the
// escalation policy demands one. An unresolvable director is logged and
// skipped so the rest of the assignment survives.
func (s *AssignmentService) ensureDirectorReview(proc *models.Procedure) (*models.DependencyReview, error) {
	required, err := RequiresDirector(s.DB, proc, s.Policy)
	if err != nil {
		return nil, err
	}
	if !required {
		return nil, nil
	}

	// Checked both by procedure id and by folio: the folio column carries its
	// own uniqueness expectations and a concurrent call may have inserted
	// under either key.
	var count int64
	err = s.DB.Model(&models.DependencyReview{}).
		Where("role = ? AND department_id IS NULL", models.RoleDirector).
		Where("procedure_id = ? OR folio = ?", proc.ProcedureID, proc.Folio).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, nil
	}

	director, err := ResolveDirectorUser(s.DB, proc.MunicipalityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("assignment: director review required for folio %s but no director is configured for municipality %d",
				proc.Folio, proc.MunicipalityID)
			return nil, nil
		}
		return nil, err
	}

	now := time.Now()
	review := models.DependencyReview{
		ProcedureID:    proc.ProcedureID,
		MunicipalityID: proc.MunicipalityID,
		Folio:          proc.Folio,
		Role:           models.RoleDirector,
		CurrentStatus:  models.ReviewStatusPending,
		UserID:         &director.UserID,
		StartDate:      now,
		UpdateDate:     now,
	}
	if err := s.DB.Create(&review).Error; err != nil {
		var current models.DependencyReview
		if selErr := s.DB.Where("folio = ? AND role = ? AND department_id IS NULL", proc.Folio, models.RoleDirector).
			First(&current).Error; selErr == nil {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}
