package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/scholaris-edu/lms-service/internal/models"
	"github.com/scholaris-edu/lms-service/internal/repositories"
	"github.com/scholaris-edu/lms-service/internal/services"
	"github.com/scholaris-edu/lms-service/internal/utils"
)

// QuizHandler handles quiz authoring and lifecycle endpoints
type QuizHandler struct {
	BaseHandler
	quizService services.QuizService
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quizService services.QuizService, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		quizService: quizService,
	}
}

// CreateQuiz handles POST /api/v1/quizzes
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	h.LogRequest(c, "Creating quiz")

	var req services.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	quiz, err := h.quizService.Create(c.Request.Context(), &req, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Quiz created successfully",
		Data:    quiz,
	})
}

// GetQuiz handles GET /api/v1/quizzes/:id
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var (
		quiz *models.Quiz
		err  error
	)
	if c.Query("include") == "questions" {
		quiz, err = h.quizService.GetByIDWithQuestions(c.Request.Context(), quizID)
	} else {
		quiz, err = h.quizService.GetByID(c.Request.Context(), quizID)
	}
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: studentView(c, quiz)})
}

// GetQuizByCode handles GET /api/v1/quizzes/code/:code
func (h *QuizHandler) GetQuizByCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Quiz code is required"})
		return
	}

	quiz, err := h.quizService.GetByCode(c.Request.Context(), code)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: studentView(c, quiz)})
}

// studentView strips the answer key before a quiz is returned to a student.
// Teachers and admins get the quiz unchanged.
func studentView(c *gin.Context, quiz *models.Quiz) *models.Quiz {
	role, exists := c.Get("user_role")
	if !exists || role != models.RoleStudent {
		return quiz
	}

	out := *quiz
	out.Questions = make([]models.QuizQuestion, len(quiz.Questions))
	copy(out.Questions, quiz.Questions)
	for i := range out.Questions {
		choices := make([]models.QuizChoice, len(out.Questions[i].Choices))
		copy(choices, out.Questions[i].Choices)
		for j := range choices {
			choices[j].IsCorrect = false
		}
		out.Questions[i].Choices = choices
	}
	return &out
}

// ListQuizzes handles GET /api/v1/quizzes
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	filters, ok := h.buildQuizFilters(c)
	if !ok {
		return
	}

	quizzes, total, err := h.quizService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:   quizzes,
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
}

// UpdateQuiz handles PUT /api/v1/quizzes/:id
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	quizID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Updating quiz", "quiz_id", quizID)

	var req services.UpdateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	quiz, err := h.quizService.Update(c.Request.Context(), quizID, &req, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Quiz updated successfully",
		Data:    quiz,
	})
}

// DeleteQuiz handles DELETE /api/v1/quizzes/:id
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	quizID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting quiz", "quiz_id", quizID)

	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.quizService.Delete(c.Request.Context(), quizID, teacherID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Quiz deleted successfully"})
}

// PublishQuiz handles POST /api/v1/quizzes/:id/publish
func (h *QuizHandler) PublishQuiz(c *gin.Context) {
	quizID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Publishing quiz", "quiz_id", quizID)

	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	quiz, err := h.quizService.Publish(c.Request.Context(), quizID, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Quiz published successfully",
		Data:    quiz,
	})
}

// CloseQuiz handles POST /api/v1/quizzes/:id/close
func (h *QuizHandler) CloseQuiz(c *gin.Context) {
	quizID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Closing quiz", "quiz_id", quizID)

	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	quiz, err := h.quizService.Close(c.Request.Context(), quizID, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Quiz closed successfully",
		Data:    quiz,
	})
}

// AddQuestion handles POST /api/v1/quizzes/:id/questions
func (h *QuizHandler) AddQuestion(c *gin.Context) {
	quizID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Adding question", "quiz_id", quizID)

	var req services.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	question, err := h.quizService.AddQuestion(c.Request.Context(), quizID, &req, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Question added successfully",
		Data:    question,
	})
}

// UpdateQuestion handles PUT /api/v1/quizzes/:id/questions/:question_id
func (h *QuizHandler) UpdateQuestion(c *gin.Context) {
	quizID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	questionID, ok := parseIDParam(c, "question_id")
	if !ok {
		return
	}

	h.LogRequest(c, "Updating question", "quiz_id", quizID, "question_id", questionID)

	var req services.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	question, err := h.quizService.UpdateQuestion(c.Request.Context(), quizID, questionID, &req, teacherID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Question updated successfully",
		Data:    question,
	})
}

// DeleteQuestion handles DELETE /api/v1/quizzes/:id/questions/:question_id
func (h *QuizHandler) DeleteQuestion(c *gin.Context) {
	quizID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	questionID, ok := parseIDParam(c, "question_id")
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting question", "quiz_id", quizID, "question_id", questionID)

	teacherID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.quizService.DeleteQuestion(c.Request.Context(), quizID, questionID, teacherID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Question deleted successfully"})
}

func (h *QuizHandler) buildQuizFilters(c *gin.Context) (repositories.QuizFilters, bool) {
	var filters repositories.QuizFilters
	filters.Limit, filters.Offset = parsePagination(c)
	filters.SortBy = c.Query("sort_by")
	filters.SortOrder = c.Query("sort_order")

	if raw := c.Query("status"); raw != "" {
		status := models.QuizStatus(raw)
		filters.Status = &status
	}
	if raw := c.Query("quarter"); raw != "" {
		quarter := models.Quarter(raw)
		filters.Quarter = &quarter
	}
	if raw := c.Query("grade_component"); raw != "" {
		component := models.GradeComponent(raw)
		filters.GradeComponent = &component
	}

	teacherID, err := parseUintQuery(c, "teacher_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid teacher_id parameter"})
		return filters, false
	}
	filters.TeacherID = teacherID

	offeringID, err := parseUintQuery(c, "subject_offering_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid subject_offering_id parameter"})
		return filters, false
	}
	filters.SubjectOfferingID = offeringID

	return filters, true
}
