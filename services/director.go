package services

import (
	"errors"
	"strings"

	"permit-management-api/models"

	"gorm.io/gorm"
)

// RequiresDirector decides whether a procedure needs a director-level review
// in addition to its department reviews. Cascading checks, first true wins:
//
//  1. at least DirectorPriorityQuorum distinct priority-1 required routing
//     rows for the procedure's type and municipality;
//  2. any matching routing row (any priority) demanding all-users approval;
//  3. legacy keyword test against the procedure-type string.
//
// The keyword fallback is the only safety net when the routing table is
// incomplete, so it must stay even though it looks redundant.
func RequiresDirector(db *gorm.DB, proc *models.Procedure, policy RoutingPolicy) (bool, error) {
	scoped := func() *gorm.DB {
		return db.Model(&models.RequirementDepartmentAssignment{}).
			Joins("JOIN departments ON departments.department_id = requirement_department_assignments.department_id").
			Where("requirement_department_assignments.procedure_type = ?", proc.ProcedureType).
			Where("requirement_department_assignments.municipality_id = ?", proc.MunicipalityID).
			Where("departments.is_active = ? AND departments.can_approve = ?", true, true).
			Where("departments.delete_at IS NULL")
	}

	var topPriority int64
	err := scoped().
		Where("requirement_department_assignments.review_priority = ?", 1).
		Where("requirement_department_assignments.is_required_for_approval = ?", true).
		Distinct("requirement_department_assignments.requirement_assignment_id").
		Count(&topPriority).Error
	if err != nil {
		return false, err
	}
	if int(topPriority) >= policy.DirectorPriorityQuorum {
		return true, nil
	}

	var unanimity int64
	err = scoped().
		Where("requirement_department_assignments.require_all_users_approval = ?", true).
		Count(&unanimity).Error
	if err != nil {
		return false, err
	}
	if unanimity > 0 {
		return true, nil
	}

	procedureType := strings.ToLower(proc.ProcedureType)
	for _, keyword := range policy.DirectorKeywords {
		if strings.Contains(procedureType, strings.ToLower(keyword)) {
			return true, nil
		}
	}
	return false, nil
}

// ResolveDirectorUser picks the user who will hold a new director review:
// the first active user attached to a department that carries the director
// role, falling back to any active user holding the director role directly.
// Returns gorm.ErrRecordNotFound when the municipality has no director
// configured.
func ResolveDirectorUser(db *gorm.DB, municipalityID int) (*models.User, error) {
	var user models.User
	err := db.Model(&models.User{}).
		Joins("JOIN department_user_assignments dua ON dua.user_id = users.user_id").
		Joins("JOIN department_roles dr ON dr.department_id = dua.department_id").
		Where("dr.role_id = ?", models.RoleDirector).
		Where("dua.municipality_id = ?", municipalityID).
		Where("dua.is_active_for_reviews = ?", true).
		Where("users.is_active = ? AND users.delete_at IS NULL", true).
		Order("users.user_id ASC").
		First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = db.Where("role_id = ? AND municipality_id = ? AND is_active = ? AND delete_at IS NULL",
		models.RoleDirector, municipalityID, true).
		Order("user_id ASC").
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
