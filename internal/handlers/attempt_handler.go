package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/scholaris-edu/lms-service/internal/models"
	"github.com/scholaris-edu/lms-service/internal/repositories"
	"github.com/scholaris-edu/lms-service/internal/services"
	"github.com/scholaris-edu/lms-service/internal/utils"
)

// AttemptHandler handles quiz attempt lifecycle endpoints
type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	uploadDir      string
}

// NewAttemptHandler creates a new attempt handler
func NewAttemptHandler(attemptService services.AttemptService, uploadDir string, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		uploadDir:      uploadDir,
	}
}

// StartAttempt handles POST /api/v1/quizzes/:id/attempts
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	quizID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	studentID, ok := currentStudentID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Starting attempt", "quiz_id", quizID, "student_id", studentID)

	attempt, err := h.attemptService.Start(c.Request.Context(), quizID, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusCreated
	message := "Attempt started successfully"
	if len(attempt.Answers) > 0 {
		status = http.StatusOK
		message = "Attempt resumed"
	}
	c.JSON(status, SuccessResponse{
		Message: message,
		Data:    attempt,
	})
}

// GetAttempt handles GET /api/v1/attempts/:id
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attemptID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.GetByID(c.Request.Context(), attemptID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: attempt})
}

// SaveAnswer handles PUT /api/v1/attempts/:id/answers
func (h *AttemptHandler) SaveAnswer(c *gin.Context) {
	attemptID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.SaveAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	studentID, ok := currentStudentID(c)
	if !ok {
		return
	}

	answer, err := h.attemptService.SaveAnswer(c.Request.Context(), attemptID, studentID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Answer saved",
		Data:    answer,
	})
}

// UploadAnswerFile handles POST /api/v1/attempts/:id/answers/:question_id/file.
// The uploaded document is validated, stored on disk, and recorded as the
// answer's file path for later manual grading.
func (h *AttemptHandler) UploadAnswerFile(c *gin.Context) {
	attemptID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	questionID, ok := parseIDParam(c, "question_id")
	if !ok {
		return
	}

	studentID, ok := currentStudentID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Missing file in form data", err)
		return
	}

	data, err := utils.ValidateUpload(fileHeader)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	path, err := utils.SaveUpload(h.uploadDir, fileHeader.Filename, data)
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to store uploaded file", err)
		return
	}

	h.LogRequest(c, "Answer file uploaded",
		"attempt_id", attemptID,
		"question_id", questionID,
		"file_name", fileHeader.Filename,
		"size", len(data))

	req := services.SaveAnswerRequest{
		QuestionID: questionID,
		FilePath:   &path,
	}
	answer, err := h.attemptService.SaveAnswer(c.Request.Context(), attemptID, studentID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Answer file uploaded",
		Data:    answer,
	})
}

// SubmitAttempt handles POST /api/v1/attempts/:id/submit
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	attemptID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	studentID, ok := currentStudentID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Submitting attempt", "attempt_id", attemptID, "student_id", studentID)

	attempt, err := h.attemptService.Submit(c.Request.Context(), attemptID, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Attempt submitted successfully",
		Data:    attempt,
	})
}

// ListMyAttempts handles GET /api/v1/attempts/my
func (h *AttemptHandler) ListMyAttempts(c *gin.Context) {
	studentID, ok := currentStudentID(c)
	if !ok {
		return
	}

	filters := h.buildAttemptFilters(c)
	attempts, total, err := h.attemptService.ListByStudent(c.Request.Context(), studentID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:   attempts,
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
}

// ListQuizAttempts handles GET /api/v1/quizzes/:id/attempts
func (h *AttemptHandler) ListQuizAttempts(c *gin.Context) {
	quizID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	filters := h.buildAttemptFilters(c)
	attempts, total, err := h.attemptService.ListByQuiz(c.Request.Context(), quizID, teacherID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:   attempts,
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
}

func (h *AttemptHandler) buildAttemptFilters(c *gin.Context) repositories.AttemptFilters {
	var filters repositories.AttemptFilters
	filters.Limit, filters.Offset = parsePagination(c)

	if raw := c.Query("status"); raw != "" {
		status := models.AttemptStatus(raw)
		filters.Status = &status
	}
	return filters
}
