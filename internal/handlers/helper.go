package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/scholaris-edu/lms-service/internal/models"
)

// parseIDParam extracts and validates a numeric path parameter.
// It writes a 400 response and returns false when the value is not a positive integer.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name + " parameter",
			Details: map[string]string{name: raw},
		})
		return 0, false
	}
	return uint(id), true
}

// parseUintQuery reads an optional numeric query parameter, returning nil when absent.
func parseUintQuery(c *gin.Context, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, err
	}
	id := uint(v)
	return &id, nil
}

// parsePagination reads limit/offset query parameters with sane bounds.
func parsePagination(c *gin.Context) (limit, offset int) {
	limit = 20
	offset = 0
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

// parseQuarterParam extracts a school-year quarter (Q1-Q4) from the path.
func parseQuarterParam(c *gin.Context, name string) (models.Quarter, bool) {
	q := models.Quarter(c.Param(name))
	switch q {
	case models.QuarterFirst, models.QuarterSecond, models.QuarterThird, models.QuarterFourth:
		return q, true
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Message: "Invalid quarter, expected Q1-Q4",
		Details: map[string]string{name: c.Param(name)},
	})
	return "", false
}

// currentUserID returns the authenticated user id set by the auth middleware.
func currentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return 0, false
	}
	id, ok := v.(uint)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return 0, false
	}
	return id, true
}

// currentStudentID returns the student record id resolved by the auth middleware.
// Only requests from STUDENT users carry one.
func currentStudentID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("student_id")
	if !exists {
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Student account required"})
		return 0, false
	}
	id, ok := v.(uint)
	if !ok {
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Student account required"})
		return 0, false
	}
	return id, true
}
