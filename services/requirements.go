package services

import (
	"permit-management-api/models"

	"gorm.io/gorm"
)

// ActiveFieldIDs returns the requirement-field ids that have a non-empty
// recorded answer for the folio's intake record. Field names are resolved to
// ids via the requirement-field catalog.
//
// An empty result is not an error: it tells the department resolver to fall
// through to its next tier.
func ActiveFieldIDs(db *gorm.DB, folio string) ([]int, error) {
	var names []string
	err := db.Model(&models.ProcedureAnswer{}).
		Where("folio = ? AND TRIM(value) <> ''", folio).
		Distinct().
		Pluck("field_name", &names).Error
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}

	var ids []int
	err = db.Model(&models.RequirementField{}).
		Where("name IN ?", names).
		Pluck("field_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
