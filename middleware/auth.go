package middleware

import (
	"net/http"
	"os"
	"strings"

	"permit-management-api/config"
	"permit-management-api/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	RoleID int    `json:"role_id"`
	jwt.RegisteredClaims
}

// Actor is the caller's fully resolved capability set. It is built once here
// at the boundary; the routing engine never inspects tokens or role shapes.
type Actor struct {
	UserID         int
	RoleID         int
	MunicipalityID int
	DepartmentIDs  []int
	IsDirector     bool
	IsAdmin        bool
}

// CanReviewDepartment reports whether the actor belongs to the department.
func (a *Actor) CanReviewDepartment(departmentID int) bool {
	for _, id := range a.DepartmentIDs {
		if id == departmentID {
			return true
		}
	}
	return false
}

const actorKey = "actor"

// AuthMiddleware validates the JWT token and resolves the acting user's
// capability set into the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(*Claims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		var user models.User
		if err := config.DB.Where("user_id = ? AND delete_at IS NULL", claims.UserID).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			c.Abort()
			return
		}

		actor := Actor{
			UserID:         user.UserID,
			RoleID:         user.RoleID,
			MunicipalityID: user.MunicipalityID,
			IsDirector:     user.RoleID == models.RoleDirector,
			IsAdmin:        user.RoleID == models.RoleAdmin,
		}
		if err := config.DB.Model(&models.DepartmentUserAssignment{}).
			Where("user_id = ? AND is_active_for_reviews = ?", user.UserID, true).
			Pluck("department_id", &actor.DepartmentIDs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve permissions"})
			c.Abort()
			return
		}

		c.Set("userID", user.UserID)
		c.Set("email", user.Email)
		c.Set("roleID", user.RoleID)
		c.Set(actorKey, actor)

		c.Next()
	}
}

// GetActor returns the resolved capability set placed by AuthMiddleware.
func GetActor(c *gin.Context) (Actor, bool) {
	value, exists := c.Get(actorKey)
	if !exists {
		return Actor{}, false
	}
	actor, ok := value.(Actor)
	return actor, ok
}

// RequireRole checks if the user has one of the given roles.
func RequireRole(roleIDs ...int) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRoleID, exists := c.Get("roleID")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "Role not found"})
			c.Abort()
			return
		}

		userRole := userRoleID.(int)
		allowed := false
		for _, roleID := range roleIDs {
			if userRole == roleID {
				allowed = true
				break
			}
		}

		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}
