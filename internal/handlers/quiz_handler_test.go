package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/scholaris-edu/lms-service/internal/models"
)

func quizWithAnswerKey() *models.Quiz {
	return &models.Quiz{
		ID:    1,
		Title: "Fractions Review",
		Questions: []models.QuizQuestion{
			{
				ID:           2,
				QuizID:       1,
				QuestionText: "1/2 + 1/4 = ?",
				QuestionType: models.MultipleChoice,
				Choices: []models.QuizChoice{
					{ID: 21, QuestionID: 2, ChoiceText: "3/4", IsCorrect: true},
					{ID: 22, QuestionID: 2, ChoiceText: "2/6", IsCorrect: false},
				},
			},
		},
	}
}

func testContextWithRole(role models.UserRole) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set("user_role", role)
	return c
}

func TestStudentView_StripsAnswerKeyForStudents(t *testing.T) {
	quiz := quizWithAnswerKey()
	c := testContextWithRole(models.RoleStudent)

	got := studentView(c, quiz)

	assert.False(t, got.Questions[0].Choices[0].IsCorrect)
	assert.False(t, got.Questions[0].Choices[1].IsCorrect)
	assert.Equal(t, "3/4", got.Questions[0].Choices[0].ChoiceText)

	// original stays intact for later use in the request
	assert.True(t, quiz.Questions[0].Choices[0].IsCorrect)
}

func TestStudentView_PreservesAnswerKeyForTeachers(t *testing.T) {
	quiz := quizWithAnswerKey()
	c := testContextWithRole(models.RoleTeacher)

	got := studentView(c, quiz)

	assert.Same(t, quiz, got)
	assert.True(t, got.Questions[0].Choices[0].IsCorrect)
}
