package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/scholaris-edu/lms-service/internal/services"
	"github.com/scholaris-edu/lms-service/internal/utils"
)

// AnalyticsHandler handles quiz item-analysis endpoints
type AnalyticsHandler struct {
	BaseHandler
	analyticsService services.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService services.AnalyticsService, logger utils.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler:      NewBaseHandler(logger),
		analyticsService: analyticsService,
	}
}

// GetQuizAnalytics handles GET /api/v1/quizzes/:id/analytics
func (h *AnalyticsHandler) GetQuizAnalytics(c *gin.Context) {
	quizID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	analytics, err := h.analyticsService.GetQuizAnalytics(c.Request.Context(), quizID, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: analytics})
}
