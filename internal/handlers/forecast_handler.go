package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/scholaris-edu/lms-service/internal/models"
	"github.com/scholaris-edu/lms-service/internal/services"
	"github.com/scholaris-edu/lms-service/internal/utils"
)

// ForecastHandler handles grade forecast endpoints
type ForecastHandler struct {
	BaseHandler
	forecastService services.ForecastService
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(forecastService services.ForecastService, logger utils.Logger) *ForecastHandler {
	return &ForecastHandler{
		BaseHandler:     NewBaseHandler(logger),
		forecastService: forecastService,
	}
}

// GenerateForecast handles POST /api/v1/forecasts/students/:student_id/offerings/:offering_id
func (h *ForecastHandler) GenerateForecast(c *gin.Context) {
	studentID, offeringID, ok := h.forecastScope(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Generating forecast", "student_id", studentID, "offering_id", offeringID)

	forecast, err := h.forecastService.Generate(c.Request.Context(), studentID, offeringID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Forecast generated",
		Data:    forecast,
	})
}

// GetForecast handles GET /api/v1/forecasts/students/:student_id/offerings/:offering_id
func (h *ForecastHandler) GetForecast(c *gin.Context) {
	studentID, offeringID, ok := h.forecastScope(c)
	if !ok {
		return
	}

	forecast, err := h.forecastService.Get(c.Request.Context(), studentID, offeringID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: forecast})
}

// GetTopicPerformance handles GET /api/v1/forecasts/students/:student_id/offerings/:offering_id/topics
func (h *ForecastHandler) GetTopicPerformance(c *gin.Context) {
	studentID, offeringID, ok := h.forecastScope(c)
	if !ok {
		return
	}

	perfs, err := h.forecastService.GetTopicPerformance(c.Request.Context(), studentID, offeringID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: perfs})
}

// ListOfferingForecasts handles GET /api/v1/forecasts/offerings/:offering_id
func (h *ForecastHandler) ListOfferingForecasts(c *gin.Context) {
	offeringID, ok := parseIDParam(c, "offering_id")
	if !ok {
		return
	}

	forecasts, err := h.forecastService.ListByOffering(c.Request.Context(), offeringID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: forecasts})
}

// forecastScope parses the path scope and restricts students to their own record.
func (h *ForecastHandler) forecastScope(c *gin.Context) (studentID, offeringID uint, ok bool) {
	studentID, ok = parseIDParam(c, "student_id")
	if !ok {
		return 0, 0, false
	}
	offeringID, ok = parseIDParam(c, "offering_id")
	if !ok {
		return 0, 0, false
	}

	if role, exists := c.Get("user_role"); exists && role == models.RoleStudent {
		ownID, ok := currentStudentID(c)
		if !ok {
			return 0, 0, false
		}
		if ownID != studentID {
			c.JSON(http.StatusForbidden, ErrorResponse{Message: "Access denied"})
			return 0, 0, false
		}
	}
	return studentID, offeringID, true
}
