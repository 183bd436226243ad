package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"permit-management-api/config"
	"permit-management-api/middleware"
	"permit-management-api/models"
	"permit-management-api/services"
	"permit-management-api/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CreateProcedureRequest struct {
	MunicipalityID int               `json:"municipality_id" binding:"required"`
	ProcedureType  string            `json:"procedure_type" binding:"required"`
	Answers        map[string]string `json:"answers"`
}

// assignmentService wires the routing engine against the live database.
func assignmentService() *services.AssignmentService {
	notifier := &services.Notifier{DB: config.DB}
	return &services.AssignmentService{
		DB:       config.DB,
		Policy:   services.DefaultRoutingPolicy(),
		Notifier: notifier,
	}
}

// CreateProcedure handles intake: it persists the procedure and its answers,
// then routes it to the reviewing departments.
func CreateProcedure(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	var req CreateProcedureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var municipality models.Municipality
	if err := config.DB.Where("municipality_id = ? AND is_active = ?", req.MunicipalityID, true).
		First(&municipality).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown municipality"})
		return
	}

	now := time.Now()
	procedure := models.Procedure{
		Folio:          newFolio(municipality.Code, now),
		MunicipalityID: req.MunicipalityID,
		ProcedureType:  utils.SanitizeInput(req.ProcedureType),
		Status:         models.ProcedureStatusNew,
		UserID:         actor.UserID,
		SubmittedAt:    &now,
		CreateAt:       now,
		UpdateAt:       now,
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&procedure).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create procedure"})
		return
	}

	for field, value := range req.Answers {
		answer := models.ProcedureAnswer{
			Folio:     procedure.Folio,
			FieldName: utils.SanitizeInput(field),
			Value:     strings.TrimSpace(value),
			CreateAt:  now,
		}
		if err := tx.Create(&answer).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record answers"})
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create procedure"})
		return
	}

	reviews, err := assignmentService().Assign(&procedure, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Procedure created but review assignment failed"})
		return
	}

	if len(reviews) > 0 {
		if err := config.DB.Model(&models.Procedure{}).
			Where("procedure_id = ?", procedure.ProcedureID).
			Updates(map[string]interface{}{
				"status":    models.ProcedureStatusPendingApproval,
				"update_at": time.Now(),
			}).Error; err == nil {
			procedure.Status = models.ProcedureStatusPendingApproval
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"procedure": procedure,
		"reviews":   reviews,
	})
}

// GetProcedures lists the procedures visible to the acting user: admins and
// directors see their municipality, applicants see their own.
func GetProcedures(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	query := config.DB.Preload("Municipality").Order("create_at DESC")
	if actor.IsAdmin || actor.IsDirector {
		query = query.Where("municipality_id = ?", actor.MunicipalityID)
	} else {
		query = query.Where("user_id = ?", actor.UserID)
	}
	if status := c.Query("status"); status != "" {
		code, err := strconv.Atoi(status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
			return
		}
		query = query.Where("status = ?", code)
	}

	var procedures []models.Procedure
	if err := query.Find(&procedures).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch procedures"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"procedures": procedures,
		"total":      len(procedures),
	})
}

// GetProcedure returns one procedure with its reviews.
func GetProcedure(c *gin.Context) {
	procedure, ok := loadProcedure(c)
	if !ok {
		return
	}

	var reviews []models.DependencyReview
	if err := config.DB.Preload("Department").
		Where("procedure_id = ?", procedure.ProcedureID).
		Find(&reviews).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reviews"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"procedure": procedure,
		"reviews":   reviews,
	})
}

// GetProcedureStatus returns the aggregated review status of a procedure.
func GetProcedureStatus(c *gin.Context) {
	procedure, ok := loadProcedure(c)
	if !ok {
		return
	}

	summary, err := services.OverallProcedureStatus(config.DB, procedure.ProcedureID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"folio":   procedure.Folio,
		"status":  summary,
	})
}

// AssignProcedure re-runs routing for a procedure. force=true re-notifies
// the roster of every routed department.
func AssignProcedure(c *gin.Context) {
	procedure, ok := loadProcedure(c)
	if !ok {
		return
	}

	force := strings.EqualFold(c.Query("force"), "true")

	reviews, err := assignmentService().Assign(procedure, force)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Assignment failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"reviews": reviews,
		"total":   len(reviews),
	})
}

func loadProcedure(c *gin.Context) (*models.Procedure, bool) {
	procedureID, err := strconv.Atoi(c.Param("id"))
	if err != nil || procedureID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid procedure ID"})
		return nil, false
	}

	var procedure models.Procedure
	if err := config.DB.Where("procedure_id = ?", procedureID).First(&procedure).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Procedure not found"})
		return nil, false
	}
	return &procedure, true
}

// newFolio builds the human-readable unique identifier for a procedure,
// e.g. GDL-2026-4F9A21C3.
func newFolio(municipalityCode string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("%s-%d-%s", strings.ToUpper(municipalityCode), now.Year(), suffix)
}
