package services

import (
	"permit-management-api/models"

	"gorm.io/gorm"
)

// ResolveDepartments determines the set of departments that must review a
// procedure. Three tiers, each attempted only when the previous one comes
// back empty:
//
//  1. field-driven: routing-table rows matching the procedure's answered
//     fields (the procedure type is deliberately not consulted on this tier;
//     routing follows what was actually answered);
//  2. type-driven: the same join filtered by procedure_type instead;
//  3. default: up to DefaultDepartmentCount active, approval-capable
//     departments for the municipality, lowest id first.
//
// Callers must not depend on the ordering of tiers 1 and 2. An empty final
// result means the municipality has no reviewing departments configured; the
// orchestrator logs that and proceeds without reviews.
func ResolveDepartments(db *gorm.DB, proc *models.Procedure, policy RoutingPolicy) ([]models.Department, error) {
	fieldIDs, err := ActiveFieldIDs(db, proc.Folio)
	if err != nil {
		return nil, err
	}

	if len(fieldIDs) > 0 {
		departments, err := routedDepartments(db, proc.MunicipalityID, func(q *gorm.DB) *gorm.DB {
			return q.Where("requirement_department_assignments.field_id IN ?", fieldIDs)
		})
		if err != nil {
			return nil, err
		}
		if len(departments) > 0 {
			return departments, nil
		}
	}

	departments, err := routedDepartments(db, proc.MunicipalityID, func(q *gorm.DB) *gorm.DB {
		return q.Where("requirement_department_assignments.procedure_type = ?", proc.ProcedureType)
	})
	if err != nil {
		return nil, err
	}
	if len(departments) > 0 {
		return departments, nil
	}

	return defaultDepartments(db, proc.MunicipalityID, policy.DefaultDepartmentCount)
}

// routedDepartments runs the shared routing-table join and loads the distinct
// matching departments. The extra filter distinguishes the field-driven tier
// from the type-driven tier.
func routedDepartments(db *gorm.DB, municipalityID int, filter func(*gorm.DB) *gorm.DB) ([]models.Department, error) {
	query := db.Model(&models.RequirementDepartmentAssignment{}).
		Joins("JOIN departments ON departments.department_id = requirement_department_assignments.department_id").
		Where("requirement_department_assignments.municipality_id = ?", municipalityID).
		Where("requirement_department_assignments.is_required_for_approval = ?", true).
		Where("departments.is_active = ? AND departments.can_approve = ?", true, true).
		Where("departments.delete_at IS NULL")
	query = filter(query)

	var ids []int
	if err := query.Distinct().Pluck("requirement_department_assignments.department_id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var departments []models.Department
	if err := db.Where("department_id IN ?", ids).Find(&departments).Error; err != nil {
		return nil, err
	}
	return departments, nil
}

// defaultDepartments guarantees minimal review coverage when the routing
// table has nothing for the procedure: the first limit active
// approval-capable departments of the municipality, by ascending id.
func defaultDepartments(db *gorm.DB, municipalityID, limit int) ([]models.Department, error) {
	var departments []models.Department
	err := db.Where("municipality_id = ? AND is_active = ? AND can_approve = ? AND delete_at IS NULL",
		municipalityID, true, true).
		Order("department_id ASC").
		Limit(limit).
		Find(&departments).Error
	if err != nil {
		return nil, err
	}
	return departments, nil
}
