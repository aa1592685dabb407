package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scholaris-edu/lms-service/internal/cache"
	"github.com/scholaris-edu/lms-service/internal/config"
	"github.com/scholaris-edu/lms-service/internal/events"
	"github.com/scholaris-edu/lms-service/internal/handlers"
	"github.com/scholaris-edu/lms-service/internal/models"
	"github.com/scholaris-edu/lms-service/internal/repositories/postgres"
	"github.com/scholaris-edu/lms-service/internal/services"
	"github.com/scholaris-edu/lms-service/internal/utils"
	"github.com/scholaris-edu/lms-service/pkg"
	"github.com/scholaris-edu/lms-service/pkg/ai"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.IsProduction() {
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Section{},
		&models.SubjectOffering{},
		&models.Student{},
		&models.Quiz{},
		&models.QuizQuestion{},
		&models.QuizChoice{},
		&models.QuizAttempt{},
		&models.QuizAnswer{},
		&models.QuarterlyGrade{},
		&models.GradeChangeLog{},
		&models.GradeForecast{},
		&models.QuizTopicPerformance{},
	); err != nil {
		logger.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	cacheService := cache.NewRedisCache(redisClient, logger)

	publisher, err := events.NewKafkaEventPublisher(events.PublisherConfig{
		KafkaBrokers: cfg.KafkaBrokers,
		TopicName:    cfg.KafkaTopic,
		Logger:       slogger,
	})
	if err != nil {
		logger.Error("Failed to create Kafka publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	var forecaster ai.Forecaster
	if cfg.ForecastingEnabled() {
		forecaster, err = ai.NewOpenAIForecaster(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: slogger,
		})
		if err != nil {
			logger.Error("Failed to create forecasting client", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("OPENAI_API_KEY not set, forecasts will use the statistical model only")
	}

	repo := postgres.NewRepository(db)
	validator := utils.NewValidator()

	analytics := services.NewAnalyticsService(repo, cacheService, slogger)
	svcs := handlers.Services{
		Quiz:      services.NewQuizService(repo, publisher, slogger, validator),
		Attempt:   services.NewAttemptService(repo, publisher, slogger, validator, analytics),
		Grading:   services.NewGradingService(repo, publisher, slogger, validator, analytics),
		Gradebook: services.NewGradebookService(repo, publisher, slogger, validator),
		Analytics: analytics,
		Forecast:  services.NewForecastService(repo, forecaster, publisher, slogger),
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(utils.ContextLogger(logger))

	manager := handlers.NewHandlerManager(svcs, repo.Users(), cfg.UploadDir, logger)
	manager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
	if err := redisClient.Close(); err != nil {
		logger.Warn("Failed to close Redis client", "error", err)
	}
	logger.Info("Server exited")
}
