package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"permit-management-api/config"
	"permit-management-api/middleware"
	"permit-management-api/models"
	"permit-management-api/services"
	"permit-management-api/utils"

	"github.com/gin-gonic/gin"
)

type ResolutionRequest struct {
	Decision    string   `json:"decision" binding:"required"`
	Explanation string   `json:"explanation"`
	FilePaths   []string `json:"file_paths"`
}

func resolutionService() *services.ResolutionService {
	return &services.ResolutionService{
		DB:       config.DB,
		Policy:   services.DefaultRoutingPolicy(),
		Notifier: &services.Notifier{DB: config.DB},
	}
}

// GetReviews lists the reviews the acting user may act on: department
// reviews for their departments, the director slots for directors, and every
// review of the municipality for admins.
func GetReviews(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	query := config.DB.Preload("Department").Preload("Procedure").Order("start_date DESC")
	switch {
	case actor.IsAdmin:
		query = query.Where("municipality_id = ?", actor.MunicipalityID)
	case actor.IsDirector:
		query = query.Where("municipality_id = ? AND role = ? AND department_id IS NULL",
			actor.MunicipalityID, models.RoleDirector)
	default:
		if len(actor.DepartmentIDs) == 0 {
			c.JSON(http.StatusOK, gin.H{"success": true, "reviews": []models.DependencyReview{}, "total": 0})
			return
		}
		query = query.Where("department_id IN ?", actor.DepartmentIDs)
	}

	if status := c.Query("status"); status != "" {
		code, err := strconv.Atoi(status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
			return
		}
		query = query.Where("current_status = ?", code)
	}

	var reviews []models.DependencyReview
	if err := query.Find(&reviews).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reviews"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"reviews": reviews,
		"total":   len(reviews),
	})
}

// PostResolution records a reviewer decision against a review.
func PostResolution(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	review, ok := loadReview(c)
	if !ok {
		return
	}

	if review.DepartmentID != nil && !actor.IsAdmin && !actor.CanReviewDepartment(*review.DepartmentID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not assigned to this department"})
		return
	}
	if review.IsDirectorReview() {
		c.JSON(http.StatusConflict, gin.H{"error": "Use the director-decision endpoint for director reviews"})
		return
	}

	var req ResolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	status, ok := utils.ResolutionStatusFromString(req.Decision)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Decision must be approve, reject or request_correction"})
		return
	}

	resolution, err := resolutionService().RecordResolution(services.ResolutionInput{
		ReviewID:    review.ReviewID,
		Role:        review.Role,
		UserID:      actor.UserID,
		Status:      status,
		Explanation: utils.SanitizeInput(req.Explanation),
		FilePaths:   req.FilePaths,
	})
	if err != nil {
		respondResolutionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"resolution": resolution,
		"status":     utils.ReviewStatusLabel(status),
	})
}

// DirectorDecision records the director's decision on the reserved director
// review of a procedure.
func DirectorDecision(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}
	if !actor.IsDirector && !actor.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Director role required"})
		return
	}

	review, ok := loadReview(c)
	if !ok {
		return
	}

	var req ResolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	status, ok := utils.ResolutionStatusFromString(req.Decision)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Decision must be approve, reject or request_correction"})
		return
	}

	resolution, err := resolutionService().RecordDirectorDecision(services.ResolutionInput{
		ReviewID:    review.ReviewID,
		Role:        models.RoleDirector,
		UserID:      actor.UserID,
		Status:      status,
		Explanation: utils.SanitizeInput(req.Explanation),
		FilePaths:   req.FilePaths,
	})
	if err != nil {
		respondResolutionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"resolution": resolution,
		"status":     utils.ReviewStatusLabel(status),
	})
}

func loadReview(c *gin.Context) (*models.DependencyReview, bool) {
	reviewID, err := strconv.Atoi(c.Param("id"))
	if err != nil || reviewID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review ID"})
		return nil, false
	}

	var review models.DependencyReview
	if err := config.DB.Where("review_id = ?", reviewID).First(&review).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
		return nil, false
	}
	return &review, true
}

func respondResolutionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrReviewNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
	case errors.Is(err, services.ErrInvalidResolutionStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid resolution status"})
	case errors.Is(err, services.ErrNotDirectorReview):
		c.JSON(http.StatusConflict, gin.H{"error": "Review is not a director review"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record resolution"})
	}
}
