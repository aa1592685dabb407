package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/scholaris-edu/lms-service/internal/models"
	"github.com/scholaris-edu/lms-service/internal/repositories"
	"github.com/scholaris-edu/lms-service/internal/services"
	"github.com/scholaris-edu/lms-service/internal/utils"
)

// HandlerManager manages all HTTP handlers
type HandlerManager struct {
	quizHandler      *QuizHandler
	attemptHandler   *AttemptHandler
	gradingHandler   *GradingHandler
	gradebookHandler *GradebookHandler
	analyticsHandler *AnalyticsHandler
	forecastHandler  *ForecastHandler

	users  repositories.UserRepository
	logger utils.Logger
}

// Services bundles the service dependencies of the HTTP layer.
type Services struct {
	Quiz      services.QuizService
	Attempt   services.AttemptService
	Grading   services.GradingService
	Gradebook services.GradebookService
	Analytics services.AnalyticsService
	Forecast  services.ForecastService
}

// NewHandlerManager creates handlers for all endpoint groups
func NewHandlerManager(svcs Services, users repositories.UserRepository, uploadDir string, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		quizHandler:      NewQuizHandler(svcs.Quiz, logger),
		attemptHandler:   NewAttemptHandler(svcs.Attempt, uploadDir, logger),
		gradingHandler:   NewGradingHandler(svcs.Grading, logger),
		gradebookHandler: NewGradebookHandler(svcs.Gradebook, logger),
		analyticsHandler: NewAnalyticsHandler(svcs.Analytics, logger),
		forecastHandler:  NewForecastHandler(svcs.Forecast, logger),
		users:            users,
		logger:           logger,
	}
}

// SetupRoutes registers all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "lms-service",
		})
	})

	teacherOrAdmin := RequireRole(models.RoleTeacher, models.RoleAdmin)
	studentOnly := RequireRole(models.RoleStudent)

	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(hm.users, hm.logger))
	{
		quizzes := v1.Group("/quizzes")
		{
			quizzes.POST("", teacherOrAdmin, hm.quizHandler.CreateQuiz)
			quizzes.GET("", hm.quizHandler.ListQuizzes)
			quizzes.GET("/code/:code", hm.quizHandler.GetQuizByCode)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.PUT("/:id", teacherOrAdmin, hm.quizHandler.UpdateQuiz)
			quizzes.DELETE("/:id", teacherOrAdmin, hm.quizHandler.DeleteQuiz)
			quizzes.POST("/:id/publish", teacherOrAdmin, hm.quizHandler.PublishQuiz)
			quizzes.POST("/:id/close", teacherOrAdmin, hm.quizHandler.CloseQuiz)

			quizzes.POST("/:id/questions", teacherOrAdmin, hm.quizHandler.AddQuestion)
			quizzes.PUT("/:id/questions/:question_id", teacherOrAdmin, hm.quizHandler.UpdateQuestion)
			quizzes.DELETE("/:id/questions/:question_id", teacherOrAdmin, hm.quizHandler.DeleteQuestion)

			quizzes.POST("/:id/attempts", studentOnly, hm.attemptHandler.StartAttempt)
			quizzes.GET("/:id/attempts", teacherOrAdmin, hm.attemptHandler.ListQuizAttempts)
			quizzes.GET("/:id/pending-answers", teacherOrAdmin, hm.gradingHandler.GetPendingAnswers)
			quizzes.GET("/:id/analytics", teacherOrAdmin, hm.analyticsHandler.GetQuizAnalytics)
		}

		attempts := v1.Group("/attempts")
		{
			attempts.GET("/my", studentOnly, hm.attemptHandler.ListMyAttempts)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.PUT("/:id/answers", studentOnly, hm.attemptHandler.SaveAnswer)
			attempts.POST("/:id/answers/:question_id/file", studentOnly, hm.attemptHandler.UploadAnswerFile)
			attempts.POST("/:id/submit", studentOnly, hm.attemptHandler.SubmitAttempt)
		}

		answers := v1.Group("/answers")
		{
			answers.POST("/:id/grade", teacherOrAdmin, hm.gradingHandler.GradeAnswer)
		}

		grades := v1.Group("/grades")
		{
			grades.GET("/my", studentOnly, hm.gradebookHandler.GetMyGrades)
			grades.GET("/my/offerings/:offering_id/summary", studentOnly, hm.gradebookHandler.GetMyQuarterSummary)
			grades.GET("/change-log", teacherOrAdmin, hm.gradingHandler.GetChangeLog)
			grades.GET("/students/:student_id/offerings/:offering_id/:quarter", teacherOrAdmin, hm.gradebookHandler.GetQuarterlyGrade)
			grades.GET("/summary/students/:student_id/offerings/:offering_id", teacherOrAdmin, hm.gradebookHandler.GetQuarterSummary)
		}

		gradebook := v1.Group("/gradebook", teacherOrAdmin)
		{
			gradebook.GET("/offerings/:offering_id/:quarter", hm.gradebookHandler.GetClassGradebook)
			gradebook.GET("/offerings/:offering_id/:quarter/export", hm.gradebookHandler.ExportGradebook)
			gradebook.PUT("/students/:student_id/offerings/:offering_id/:quarter/weights", hm.gradebookHandler.UpdateWeights)
		}

		forecasts := v1.Group("/forecasts")
		{
			forecasts.GET("/offerings/:offering_id", teacherOrAdmin, hm.forecastHandler.ListOfferingForecasts)
			forecasts.POST("/students/:student_id/offerings/:offering_id", teacherOrAdmin, hm.forecastHandler.GenerateForecast)
			forecasts.GET("/students/:student_id/offerings/:offering_id", hm.forecastHandler.GetForecast)
			forecasts.GET("/students/:student_id/offerings/:offering_id/topics", hm.forecastHandler.GetTopicPerformance)
		}
	}
}
