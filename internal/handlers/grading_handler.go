package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/scholaris-edu/lms-service/internal/repositories"
	"github.com/scholaris-edu/lms-service/internal/services"
	"github.com/scholaris-edu/lms-service/internal/utils"
)

// GradingHandler handles manual grading endpoints
type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
}

// NewGradingHandler creates a new grading handler
func NewGradingHandler(gradingService services.GradingService, logger utils.Logger) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
	}
}

// GetPendingAnswers handles GET /api/v1/quizzes/:id/pending-answers
func (h *GradingHandler) GetPendingAnswers(c *gin.Context) {
	quizID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	answers, err := h.gradingService.GetPendingAnswers(c.Request.Context(), quizID, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: answers})
}

// GradeAnswer handles POST /api/v1/answers/:id/grade
func (h *GradingHandler) GradeAnswer(c *gin.Context) {
	answerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Grading answer", "answer_id", answerID)

	var req services.GradeAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	answer, err := h.gradingService.GradeAnswer(c.Request.Context(), answerID, &req, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Answer graded successfully",
		Data:    answer,
	})
}

// GetChangeLog handles GET /api/v1/grades/change-log
func (h *GradingHandler) GetChangeLog(c *gin.Context) {
	var filters repositories.ChangeLogFilters
	filters.Limit, filters.Offset = parsePagination(c)

	teacherID, err := parseUintQuery(c, "teacher_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid teacher_id parameter"})
		return
	}
	filters.TeacherID = teacherID

	studentID, err := parseUintQuery(c, "student_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid student_id parameter"})
		return
	}
	filters.StudentID = studentID

	entries, total, err := h.gradingService.GetChangeLog(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:   entries,
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
}
