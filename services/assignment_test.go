package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"permit-management-api/models"
)

func TestAssign_CreatesPendingReviewsAndNotifiesOnce(t *testing.T) {
	db := newTestDB(t)
	muni := seedMunicipality(t, db)
	applicant := seedUser(t, db, muni.MunicipalityID, models.RoleReviewer, "applicant@example.com")
	proc := seedProcedure(t, db, muni.MunicipalityID, "business_license", applicant.UserID)

	dept := seedDepartment(t, db, muni.MunicipalityID, "ZON")
	reviewer := seedUser(t, db, muni.MunicipalityID, models.RoleReviewer, "reviewer@example.com")
	assignUserToDepartment(t, db, reviewer, dept)

	field := seedField(t, db, "zoning_use")
	seedAnswer(t, db, proc.Folio, "zoning_use", "commercial")
	seedRouting(t, db, muni.MunicipalityID, routingRow{
		fieldID: field.FieldID, departmentID: dept.DepartmentID,
		procedureType: "business_license", priority: 1, required: true,
	})

	var sink []sentMail
	svc := &AssignmentService{DB: db, Policy: DefaultRoutingPolicy(), Notifier: collectingNotifier(db, &sink)}

	reviews, err := svc.Assign(&proc, false)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, models.ReviewStatusPending, reviews[0].CurrentStatus)
	assert.Equal(t, proc.Folio, reviews[0].Folio)
	require.NotNil(t, reviews[0].DepartmentID)
	assert.Equal(t, dept.DepartmentID, *reviews[0].DepartmentID)

	require.Len(t, sink, 1)
	assert.Equal(t, []string{"reviewer@example.com"}, sink[0].to)
}

func TestAssign_IsIdempotent(t *testing.T) {
	db := newTestDB(t)
	muni := seedMunicipality(t, db)
	applicant := seedUser(t, db, muni.MunicipalityID, models.RoleReviewer, "applicant@example.com")
	proc := seedProcedure(t, db, muni.MunicipalityID, "business_license", applicant.UserID)
	seedDepartment(t, db, muni.MunicipalityID, "ZON")

	var sink []sentMail
	svc := &AssignmentService{DB: db, Policy: DefaultRoutingPolicy(), Notifier: collectingNotifier(db, &sink)}

	first, err := svc.Assign(&proc, false)
	require.NoError(t, err)
	second, err := svc.Assign(&proc, false)
	require.NoError(t, err)

	assert.Len(t, second, len(first))

	var count int64
	require.NoError(t, db.Model(&models.DependencyReview{}).
		Where("procedure_id = ?", proc.ProcedureID).Count(&count).Error)
	assert.EqualValues(t, len(first), count)
}

func TestAssign_ForceReNotifiesWithoutDuplicating(t *testing.T) {
	db := newTestDB(t)
	muni := seedMunicipality(t, db)
	applicant := seedUser(t, db, muni.MunicipalityID, models.RoleReviewer, "applicant@example.com")
	proc := seedProcedure(t, db, muni.MunicipalityID, "business_license", applicant.UserID)
	dept := seedDepartment(t, db, muni.MunicipalityID, "ZON")
	reviewer := seedUser(t, db, muni.MunicipalityID, models.RoleReviewer, "reviewer@example.com")
	assignUserToDepartment(t, db, reviewer, dept)

	var sink []sentMail
	svc := &AssignmentService{DB: db, Policy: DefaultRoutingPolicy(), Notifier: collectingNotifier(db, &sink)}

	_, err := svc.Assign(&proc, false)
	require.NoError(t, err)
	// same-day dedup keeps force from double-mailing, but the review set must
	// stay stable either way
	reviews, err := svc.Assign(&proc, true)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)

	var count int64
	require.NoError(t, db.Model(&models.DependencyReview{}).
		Where("procedure_id = ?", proc.ProcedureID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAssign_NoDepartmentsConfigured(t *testing.T) {
	db := newTestDB(t)
	muni := seedMunicipality(t, db)
	applicant := seedUser(t, db, muni.MunicipalityID, models.RoleReviewer, "applicant@example.com")
	proc := seedProcedure(t, db, muni.MunicipalityID, "business_license", applicant.UserID)

	var sink []sentMail
	svc := &AssignmentService{DB: db, Policy: DefaultRoutingPolicy(), Notifier: collectingNotifier(db, &sink)}

	reviews, err := svc.Assign(&proc, false)
	require.NoError(t, err)
	assert.Empty(t, reviews)
	assert.Empty(t, sink)
}

func TestAssign_CreatesDirectorReviewOnEscalation(t *testing.T) {
	db := newTestDB(t)
	muni := seedMunicipality(t, db)
	applicant := seedUser(t, db, muni.MunicipalityID, models.RoleReviewer, "applicant@example.com")
	director := seedUser(t, db, muni.MunicipalityID, models.RoleDirector, "director@example.com")
	proc := seedProcedure(t, db, muni.MunicipalityID, "Construccion de plaza comercial", applicant.UserID)
	dept := seedDepartment(t, db, muni.MunicipalityID, "OBR")
	reviewer := seedUser(t, db, muni.MunicipalityID, models.RoleReviewer, "reviewer@example.com")
	assignUserToDepartment(t, db, reviewer, dept)

	var sink []sentMail
	svc := &AssignmentService{DB: db, Policy: DefaultRoutingPolicy(), Notifier: collectingNotifier(db, &sink)}

	reviews, err := svc.Assign(&proc, false)
	require.NoError(t, err)
	require.Len(t, reviews, 2)

	var directorReview models.DependencyReview
	require.NoError(t, db.Where("procedure_id = ? AND role = ? AND department_id IS NULL",
		proc.ProcedureID, models.RoleDirector).First(&directorReview).Error)
	require.NotNil(t, directorReview.UserID)
	assert.Equal(t, director.UserID, *directorReview.UserID)

	// second run must not add a second director slot
	_, err = svc.Assign(&proc, false)
	require.NoError(t, err)
	var count int64
	require.NoError(t, db.Model(&models.DependencyReview{}).
		Where("procedure_id = ? AND role = ? AND department_id IS NULL",
			proc.ProcedureID, models.RoleDirector).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAssign_DirectorUnresolvableIsSkippedNotFatal(t *testing.T) {
	db := newTestDB(t)
	muni := seedMunicipality(t, db)
	applicant := seedUser(t, db, muni.MunicipalityID, models.RoleReviewer, "applicant@example.com")
	proc := seedProcedure(t, db, muni.MunicipalityID, "Ampliacion de local", applicant.UserID)
	seedDepartment(t, db, muni.MunicipalityID, "OBR")

	var sink []sentMail
	svc := &AssignmentService{DB: db, Policy: DefaultRoutingPolicy(), Notifier: collectingNotifier(db, &sink)}

	reviews, err := svc.Assign(&proc, false)
	require.NoError(t, err)
	// department review survives even though no director exists
	assert.Len(t, reviews, 1)
}

func TestDirectorSlotAdmitsExactlyOneRowPerProcedure(t *testing.T) {
	db := newTestDB(t)
	muni := seedMunicipality(t, db)
	applicant := seedUser(t, db, muni.MunicipalityID, models.RoleReviewer, "applicant@example.com")
	proc := seedProcedure(t, db, muni.MunicipalityID, "Demolicion de inmueble", applicant.UserID)

	first := models.DependencyReview{
		ProcedureID:    proc.ProcedureID,
		MunicipalityID: muni.MunicipalityID,
		Folio:          proc.Folio,
		Role:           models.RoleDirector,
		CurrentStatus:  models.ReviewStatusPending,
	}
	require.NoError(t, db.Create(&first).Error)

	second := models.DependencyReview{
		ProcedureID:    proc.ProcedureID,
		MunicipalityID: muni.MunicipalityID,
		Folio:          proc.Folio,
		Role:           models.RoleDirector,
		CurrentStatus:  models.ReviewStatusPending,
	}
	assert.Error(t, db.Create(&second).Error,
		"a second department-less director row must violate the slot index")

	// the slot index only guards department-less rows
	dept := seedDepartment(t, db, muni.MunicipalityID, "OBR")
	deptID := dept.DepartmentID
	withDept := models.DependencyReview{
		ProcedureID:    proc.ProcedureID,
		MunicipalityID: muni.MunicipalityID,
		Folio:          proc.Folio,
		DepartmentID:   &deptID,
		Role:           models.RoleDirector,
		CurrentStatus:  models.ReviewStatusPending,
	}
	require.NoError(t, db.Create(&withDept).Error)

	var count int64
	require.NoError(t, db.Model(&models.DependencyReview{}).
		Where("procedure_id = ? AND role = ? AND department_id IS NULL",
			proc.ProcedureID, models.RoleDirector).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

// raceDepartmentInsert slips a competing review row onto the current
// connection right before the orchestrator's own insert runs, reproducing the
// interleaving where another assignment call wins between check and create.
func raceDepartmentInsert(t *testing.T, db *gorm.DB, raced *bool) {
	t.Helper()
	err := db.Callback().Create().Before("gorm:create").Register("race_department_insert", func(tx *gorm.DB) {
		review, ok := tx.Statement.Dest.(*models.DependencyReview)
		if !ok || *raced || review.DepartmentID == nil {
			return
		}
		*raced = true
		now := time.Now()
		_, execErr := tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"INSERT INTO dependency_reviews (procedure_id, municipality_id, folio, department_id, role, current_status, start_date, update_date) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			review.ProcedureID, review.MunicipalityID, review.Folio, *review.DepartmentID,
			review.Role, models.ReviewStatusPending, now, now)
		require.NoError(t, execErr)
	})
	require.NoError(t, err)
}

func TestAssign_ConvergesWhenDepartmentRowWonTheRace(t *testing.T) {
	db := newTestDB(t)
	muni := seedMunicipality(t, db)
	applicant := seedUser(t, db, muni.MunicipalityID, models.RoleReviewer, "applicant@example.com")
	proc := seedProcedure(t, db, muni.MunicipalityID, "business_license", applicant.UserID)
	dept := seedDepartment(t, db, muni.MunicipalityID, "ZON")

	var raced bool
	raceDepartmentInsert(t, db, &raced)

	svc := &AssignmentService{DB: db, Policy: DefaultRoutingPolicy()}
	reviews, err := svc.Assign(&proc, false)
	require.NoError(t, err)
	require.True(t, raced, "the competing insert must have run")
	require.Len(t, reviews, 1)
	require.NotNil(t, reviews[0].DepartmentID)
	assert.Equal(t, dept.DepartmentID, *reviews[0].DepartmentID)

	var count int64
	require.NoError(t, db.Model(&models.DependencyReview{}).
		Where("procedure_id = ? AND department_id = ?", proc.ProcedureID, dept.DepartmentID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count, "both racers must converge on one review per department")
}

func TestAssign_ConvergesWhenDirectorRowWonTheRace(t *testing.T) {
	db := newTestDB(t)
	muni := seedMunicipality(t, db)
	applicant := seedUser(t, db, muni.MunicipalityID, models.RoleReviewer, "applicant@example.com")
	director := seedUser(t, db, muni.MunicipalityID, models.RoleDirector, "director@example.com")
	proc := seedProcedure(t, db, muni.MunicipalityID, "Construccion de nave industrial", applicant.UserID)

	var raced bool
	err := db.Callback().Create().Before("gorm:create").Register("race_director_insert", func(tx *gorm.DB) {
		review, ok := tx.Statement.Dest.(*models.DependencyReview)
		if !ok || raced || review.DepartmentID != nil || review.Role != models.RoleDirector {
			return
		}
		raced = true
		now := time.Now()
		_, execErr := tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"INSERT INTO dependency_reviews (procedure_id, municipality_id, folio, role, current_status, user_id, start_date, update_date) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			review.ProcedureID, review.MunicipalityID, review.Folio,
			models.RoleDirector, models.ReviewStatusPending, director.UserID, now, now)
		require.NoError(t, execErr)
	})
	require.NoError(t, err)

	// skip the per-create transaction so the competing row survives the
	// doomed insert
	svc := &AssignmentService{
		DB:     db.Session(&gorm.Session{SkipDefaultTransaction: true}),
		Policy: DefaultRoutingPolicy(),
	}
	reviews, err := svc.Assign(&proc, false)
	require.NoError(t, err)
	require.True(t, raced, "the competing insert must have run")
	assert.Empty(t, reviews, "the losing racer reuses the existing slot instead of reporting a new one")

	var count int64
	require.NoError(t, db.Model(&models.DependencyReview{}).
		Where("procedure_id = ? AND role = ? AND department_id IS NULL",
			proc.ProcedureID, models.RoleDirector).Count(&count).Error)
	assert.EqualValues(t, 1, count, "both racers must converge on one director slot")
}
