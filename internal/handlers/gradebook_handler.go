package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scholaris-edu/lms-service/internal/services"
	"github.com/scholaris-edu/lms-service/internal/utils"
)

// GradebookHandler handles quarterly grade endpoints
type GradebookHandler struct {
	BaseHandler
	gradebookService services.GradebookService
}

// NewGradebookHandler creates a new gradebook handler
func NewGradebookHandler(gradebookService services.GradebookService, logger utils.Logger) *GradebookHandler {
	return &GradebookHandler{
		BaseHandler:      NewBaseHandler(logger),
		gradebookService: gradebookService,
	}
}

// GetMyGrades handles GET /api/v1/grades/my
func (h *GradebookHandler) GetMyGrades(c *gin.Context) {
	studentID, ok := currentStudentID(c)
	if !ok {
		return
	}

	grades, err := h.gradebookService.GetStudentGrades(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: grades})
}

// GetQuarterlyGrade handles GET /api/v1/grades/students/:student_id/offerings/:offering_id/:quarter
func (h *GradebookHandler) GetQuarterlyGrade(c *gin.Context) {
	studentID, ok := parseIDParam(c, "student_id")
	if !ok {
		return
	}
	offeringID, ok := parseIDParam(c, "offering_id")
	if !ok {
		return
	}
	quarter, ok := parseQuarterParam(c, "quarter")
	if !ok {
		return
	}

	grade, err := h.gradebookService.GetQuarterlyGrade(c.Request.Context(), studentID, offeringID, quarter)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: grade})
}

// GetMyQuarterSummary handles GET /api/v1/grades/my/offerings/:offering_id/summary
func (h *GradebookHandler) GetMyQuarterSummary(c *gin.Context) {
	studentID, ok := currentStudentID(c)
	if !ok {
		return
	}
	offeringID, ok := parseIDParam(c, "offering_id")
	if !ok {
		return
	}

	summary, err := h.gradebookService.GetQuarterSummary(c.Request.Context(), studentID, offeringID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: summary})
}

// GetQuarterSummary handles GET /api/v1/grades/students/:student_id/offerings/:offering_id/summary
func (h *GradebookHandler) GetQuarterSummary(c *gin.Context) {
	studentID, ok := parseIDParam(c, "student_id")
	if !ok {
		return
	}
	offeringID, ok := parseIDParam(c, "offering_id")
	if !ok {
		return
	}

	summary, err := h.gradebookService.GetQuarterSummary(c.Request.Context(), studentID, offeringID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: summary})
}

// GetClassGradebook handles GET /api/v1/gradebook/offerings/:offering_id/:quarter
func (h *GradebookHandler) GetClassGradebook(c *gin.Context) {
	offeringID, ok := parseIDParam(c, "offering_id")
	if !ok {
		return
	}
	quarter, ok := parseQuarterParam(c, "quarter")
	if !ok {
		return
	}

	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	grades, err := h.gradebookService.GetClassGradebook(c.Request.Context(), offeringID, quarter, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: grades})
}

// UpdateWeights handles PUT /api/v1/gradebook/students/:student_id/offerings/:offering_id/:quarter/weights
func (h *GradebookHandler) UpdateWeights(c *gin.Context) {
	studentID, ok := parseIDParam(c, "student_id")
	if !ok {
		return
	}
	offeringID, ok := parseIDParam(c, "offering_id")
	if !ok {
		return
	}
	quarter, ok := parseQuarterParam(c, "quarter")
	if !ok {
		return
	}

	h.LogRequest(c, "Updating grade weights",
		"student_id", studentID,
		"offering_id", offeringID,
		"quarter", quarter)

	var req services.UpdateWeightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	grade, err := h.gradebookService.UpdateWeights(c.Request.Context(), studentID, offeringID, quarter, &req, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Component weights updated",
		Data:    grade,
	})
}

// ExportGradebook handles GET /api/v1/gradebook/offerings/:offering_id/:quarter/export
func (h *GradebookHandler) ExportGradebook(c *gin.Context) {
	offeringID, ok := parseIDParam(c, "offering_id")
	if !ok {
		return
	}
	quarter, ok := parseQuarterParam(c, "quarter")
	if !ok {
		return
	}

	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting gradebook", "offering_id", offeringID, "quarter", quarter)

	data, err := h.gradebookService.ExportGradebook(c.Request.Context(), offeringID, quarter, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("gradebook_%d_%s_%s.xlsx", offeringID, quarter, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
