package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"permit-management-api/models"
)

type reviewFixture struct {
	status   int
	director bool
	approved *bool // director tri-state
}

func boolPtr(v bool) *bool { return &v }

func seedAggregateFixture(t *testing.T, rows []reviewFixture) (*StatusSummary, error) {
	t.Helper()
	db := newTestDB(t)
	muni := seedMunicipality(t, db)
	applicant := seedUser(t, db, muni.MunicipalityID, models.RoleReviewer, "applicant@example.com")
	proc := seedProcedure(t, db, muni.MunicipalityID, "business_license", applicant.UserID)

	for i, row := range rows {
		review := models.DependencyReview{
			ProcedureID:    proc.ProcedureID,
			MunicipalityID: muni.MunicipalityID,
			Folio:          proc.Folio,
			CurrentStatus:  row.status,
		}
		if row.director {
			review.Role = models.RoleDirector
			review.DirectorApproved = row.approved
		} else {
			dept := seedDepartment(t, db, muni.MunicipalityID, string(rune('A'+i))+"DP")
			deptID := dept.DepartmentID
			review.DepartmentID = &deptID
			review.Role = models.RoleReviewer
		}
		require.NoError(t, db.Create(&review).Error)
	}

	return OverallProcedureStatus(db, proc.ProcedureID)
}

func TestOverallStatus_RejectionDominates(t *testing.T) {
	summary, err := seedAggregateFixture(t, []reviewFixture{
		{status: models.ReviewStatusApproved},
		{status: models.ReviewStatusRejected},
		{status: models.ReviewStatusPending},
	})
	require.NoError(t, err)
	assert.Equal(t, OverallRejected, summary.Overall)
	assert.Equal(t, 3, summary.TotalReviews)
	assert.Equal(t, 1, summary.Rejected)
}

func TestOverallStatus_PreventionBeatsApprovalAndPending(t *testing.T) {
	summary, err := seedAggregateFixture(t, []reviewFixture{
		{status: models.ReviewStatusApproved},
		{status: models.ReviewStatusPrevention},
		{status: models.ReviewStatusPending},
	})
	require.NoError(t, err)
	assert.Equal(t, OverallPreventionRequired, summary.Overall)
}

func TestOverallStatus_AllApprovedNoDirector(t *testing.T) {
	summary, err := seedAggregateFixture(t, []reviewFixture{
		{status: models.ReviewStatusApproved},
		{status: models.ReviewStatusApproved},
	})
	require.NoError(t, err)
	assert.Equal(t, OverallApproved, summary.Overall)
	assert.False(t, summary.DirectorRequired)
}

func TestOverallStatus_WaitsOnDirector(t *testing.T) {
	summary, err := seedAggregateFixture(t, []reviewFixture{
		{status: models.ReviewStatusApproved},
		{status: models.ReviewStatusPending, director: true},
	})
	require.NoError(t, err)
	assert.Equal(t, OverallPendingDirector, summary.Overall)
	assert.True(t, summary.DirectorRequired)
	assert.False(t, summary.DirectorApproved)
	// the director slot is not a department review
	assert.Equal(t, 1, summary.TotalReviews)
}

func TestOverallStatus_DirectorApprovalCompletes(t *testing.T) {
	summary, err := seedAggregateFixture(t, []reviewFixture{
		{status: models.ReviewStatusApproved},
		{status: models.ReviewStatusApproved, director: true, approved: boolPtr(true)},
	})
	require.NoError(t, err)
	assert.Equal(t, OverallApproved, summary.Overall)
	assert.True(t, summary.DirectorApproved)
}

func TestOverallStatus_DirectorRejectionDominates(t *testing.T) {
	summary, err := seedAggregateFixture(t, []reviewFixture{
		{status: models.ReviewStatusApproved},
		{status: models.ReviewStatusRejected, director: true, approved: boolPtr(false)},
	})
	require.NoError(t, err)
	assert.Equal(t, OverallRejected, summary.Overall)
}

func TestOverallStatus_PendingWhileAnyDepartmentPending(t *testing.T) {
	summary, err := seedAggregateFixture(t, []reviewFixture{
		{status: models.ReviewStatusApproved},
		{status: models.ReviewStatusPending},
	})
	require.NoError(t, err)
	assert.Equal(t, OverallPending, summary.Overall)
}

func TestOverallStatus_NoReviewsIsPending(t *testing.T) {
	summary, err := seedAggregateFixture(t, nil)
	require.NoError(t, err)
	assert.Equal(t, OverallPending, summary.Overall)
	assert.Zero(t, summary.TotalReviews)
}
