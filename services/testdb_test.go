package services

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"permit-management-api/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:routing_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open sqlite")

	err = db.AutoMigrate(
		&models.Role{},
		&models.Municipality{},
		&models.User{},
		&models.Department{},
		&models.DepartmentRole{},
		&models.DepartmentUserAssignment{},
		&models.RequirementField{},
		&models.ProcedureAnswer{},
		&models.RequirementDepartmentAssignment{},
		&models.Procedure{},
		&models.DependencyReview{},
		&models.DependencyResolution{},
		&models.PreventionRequest{},
		&models.DirectorApproval{},
		&models.Notification{},
	)
	require.NoError(t, err, "automigrate")
	return db
}

func seedMunicipality(t *testing.T, db *gorm.DB) models.Municipality {
	t.Helper()
	m := models.Municipality{Name: "Test Municipality", Code: "TST", IsActive: true}
	require.NoError(t, db.Create(&m).Error)
	return m
}

func seedDepartment(t *testing.T, db *gorm.DB, municipalityID int, code string) models.Department {
	t.Helper()
	d := models.Department{
		MunicipalityID: municipalityID,
		Code:           code,
		Name:           "Department " + code,
		CanApprove:     true,
		CanReject:      true,
		IsActive:       true,
	}
	require.NoError(t, db.Create(&d).Error)
	return d
}

func seedUser(t *testing.T, db *gorm.DB, municipalityID, roleID int, email string) models.User {
	t.Helper()
	u := models.User{
		UserFname:      "Test",
		UserLname:      "Reviewer",
		Email:          email,
		RoleID:         roleID,
		MunicipalityID: municipalityID,
		IsActive:       true,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func assignUserToDepartment(t *testing.T, db *gorm.DB, user models.User, dept models.Department) {
	t.Helper()
	a := models.DepartmentUserAssignment{
		UserID:                user.UserID,
		DepartmentID:          dept.DepartmentID,
		MunicipalityID:        dept.MunicipalityID,
		IsActiveForReviews:    true,
		CanReceiveAssignments: true,
		NotifyOnAssignment:    true,
	}
	require.NoError(t, db.Create(&a).Error)
}

func seedProcedure(t *testing.T, db *gorm.DB, municipalityID int, procedureType string, userID int) models.Procedure {
	t.Helper()
	now := time.Now()
	p := models.Procedure{
		Folio:          fmt.Sprintf("TST-%d-%s", now.Year(), uuid.NewString()[:8]),
		MunicipalityID: municipalityID,
		ProcedureType:  procedureType,
		Status:         models.ProcedureStatusNew,
		UserID:         userID,
		SubmittedAt:    &now,
		CreateAt:       now,
		UpdateAt:       now,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func seedField(t *testing.T, db *gorm.DB, name string) models.RequirementField {
	t.Helper()
	f := models.RequirementField{Name: name, Label: name, IsActive: true}
	require.NoError(t, db.Create(&f).Error)
	return f
}

func seedAnswer(t *testing.T, db *gorm.DB, folio, field, value string) {
	t.Helper()
	a := models.ProcedureAnswer{Folio: folio, FieldName: field, Value: value, CreateAt: time.Now()}
	require.NoError(t, db.Create(&a).Error)
}

type routingRow struct {
	fieldID       int
	departmentID  int
	procedureType string
	priority      int
	allUsers      bool
	required      bool
}

func seedRouting(t *testing.T, db *gorm.DB, municipalityID int, row routingRow) {
	t.Helper()
	r := models.RequirementDepartmentAssignment{
		FieldID:                 row.fieldID,
		DepartmentID:            row.departmentID,
		MunicipalityID:          municipalityID,
		ProcedureType:           row.procedureType,
		IsRequiredForApproval:   row.required,
		ParallelReviewAllowed:   true,
		ReviewPriority:          row.priority,
		RequireAllUsersApproval: row.allUsers,
	}
	require.NoError(t, db.Create(&r).Error)
}

// silentNotifier collects outbound messages instead of touching SMTP.
type sentMail struct {
	to      []string
	subject string
}

func collectingNotifier(db *gorm.DB, sink *[]sentMail) *Notifier {
	return &Notifier{
		DB: db,
		Send: func(to []string, subject, body string) error {
			*sink = append(*sink, sentMail{to: to, subject: subject})
			return nil
		},
	}
}
