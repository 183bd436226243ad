package controllers

import (
	"net/http"
	"strconv"

	"permit-management-api/config"
	"permit-management-api/middleware"
	"permit-management-api/models"

	"github.com/gin-gonic/gin"
)

// GetMyNotifications lists the acting user's notification audit rows, newest
// first. Rows are append-only; there is nothing to mark read here.
func GetMyNotifications(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	var notifications []models.Notification
	query := config.DB.Where("user_id = ?", actor.UserID).
		Order("create_at DESC").
		Limit(limit)
	if folio := c.Query("folio"); folio != "" {
		query = query.Where("folio = ?", folio)
	}
	if err := query.Find(&notifications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"notifications": notifications,
		"total":         len(notifications),
	})
}
