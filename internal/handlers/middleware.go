package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/scholaris-edu/lms-service/internal/models"
	"github.com/scholaris-edu/lms-service/internal/repositories"
	"github.com/scholaris-edu/lms-service/internal/utils"
)

// AuthMiddleware resolves the authenticated user from the X-User-ID header
// set by the upstream gateway and stores the identity in the request context.
// Student accounts additionally get their student record id resolved so
// attempt endpoints can scope queries without an extra lookup.
func AuthMiddleware(users repositories.UserRepository, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Authentication required",
			})
			return
		}

		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid user identity",
			})
			return
		}

		user, err := users.GetByID(c.Request.Context(), uint(id))
		if err != nil {
			logger.Warn("Unknown user in auth header", "user_id", id, "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Authentication required",
			})
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user_role", user.Role)

		if user.Role == models.RoleStudent {
			student, err := users.GetStudentByUserID(c.Request.Context(), user.ID)
			if err != nil {
				logger.Warn("Student record missing for user", "user_id", user.ID, "error", err)
				c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
					Message: "Student account required",
				})
				return
			}
			c.Set("student_id", student.ID)
		}

		c.Next()
	}
}

// RequireRole restricts an endpoint to the given roles.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get("user_role")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Authentication required",
			})
			return
		}
		role, ok := v.(models.UserRole)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Authentication required",
			})
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: "Insufficient permissions",
		})
	}
}
