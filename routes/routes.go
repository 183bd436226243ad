package routes

import (
	"permit-management-api/controllers"
	"permit-management-api/middleware"
	"permit-management-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)
			public.POST("/refresh", controllers.RefreshToken)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Permit Management API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)

			// Procedures
			procedures := protected.Group("/procedures")
			{
				procedures.GET("", controllers.GetProcedures)
				procedures.GET("/:id", controllers.GetProcedure)
				procedures.GET("/:id/status", controllers.GetProcedureStatus)
				procedures.POST("", controllers.CreateProcedure)

				// Re-running assignment is an administrative action
				procedures.POST("/:id/assign",
					middleware.RequireRole(models.RoleAdmin),
					controllers.AssignProcedure)
			}

			// Reviews
			reviews := protected.Group("/reviews")
			{
				reviews.GET("", controllers.GetReviews)
				reviews.POST("/:id/resolutions", controllers.PostResolution)
				reviews.POST("/:id/director-decision",
					middleware.RequireRole(models.RoleDirector, models.RoleAdmin),
					controllers.DirectorDecision)
			}

			// Notifications (audit rows for the acting user)
			protected.GET("/notifications", controllers.GetMyNotifications)

			// Departments (read-only configuration)
			protected.GET("/departments", controllers.GetDepartments)
		}

	}

	// 404 catch-all for unknown paths
	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "Endpoint not found"})
	})
}
