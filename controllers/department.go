package controllers

import (
	"net/http"

	"permit-management-api/config"
	"permit-management-api/middleware"
	"permit-management-api/models"

	"github.com/gin-gonic/gin"
)

// GetDepartments lists the reviewing departments of the acting user's
// municipality. Read-only: departments are configuration, maintained outside
// this API.
func GetDepartments(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	var departments []models.Department
	if err := config.DB.Preload("Roles").
		Where("municipality_id = ? AND delete_at IS NULL", actor.MunicipalityID).
		Order("department_id ASC").
		Find(&departments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch departments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"departments": departments,
		"total":       len(departments),
	})
}
