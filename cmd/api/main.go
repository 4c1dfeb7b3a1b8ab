package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/evalia-api/internal/config"
	"github.com/noah-isme/evalia-api/internal/database"
	"github.com/noah-isme/evalia-api/internal/events"
	"github.com/noah-isme/evalia-api/internal/grading"
	"github.com/noah-isme/evalia-api/internal/handler"
	"github.com/noah-isme/evalia-api/internal/middleware"
	"github.com/noah-isme/evalia-api/internal/models"
	"github.com/noah-isme/evalia-api/internal/repository"
	"github.com/noah-isme/evalia-api/internal/router"
	"github.com/noah-isme/evalia-api/internal/service"
	"github.com/noah-isme/evalia-api/pkg/ai"
	"github.com/noah-isme/evalia-api/pkg/localstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.StudentProfile{},
		&models.ProfessorProfile{},
		&models.AdminProfile{},
		&models.Course{},
		&models.FileRecord{},
		&models.Exercise{},
		&models.ReferenceCorrection{},
		&models.Submission{},
		&models.Correction{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	store, err := localstore.New(localstore.Config{Root: cfg.UploadDir}, logger)
	if err != nil {
		log.Fatalf("failed to initialise file storage: %v", err)
	}
	stopCleanup := store.StartCleanup(cfg.CleanupInterval, cfg.TempFileTTL)
	defer stopCleanup()

	evaluator, err := ai.NewChatEvaluator(ai.ChatConfig{
		APIKey:      cfg.AIAPIKey,
		BaseURL:     cfg.AIBaseURL,
		Model:       cfg.AIModel,
		MaxTokens:   cfg.AIMaxTokens,
		Temperature: cfg.AITemperature,
		Logger:      logger,
	})
	if err != nil {
		log.Fatalf("failed to create ai evaluator: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	publisher := events.NewPublisher(natsConn, logger)

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	exerciseRepo := repository.NewExerciseRepository(db)
	referenceRepo := repository.NewReferenceCorrectionRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	correctionRepo := repository.NewCorrectionRepository(db)
	fileRepo := repository.NewFileRepository(db)

	gradingService := service.NewGradingService(submissionRepo, referenceRepo, correctionRepo, store, evaluator, publisher, cfg.AITimeout, logger)

	dispatcher := grading.NewDispatcher(gradingService, grading.Config{
		Workers:   cfg.GradingWorkers,
		QueueSize: cfg.GradingQueueSize,
		Timeout:   cfg.AITimeout + 30*time.Second,
		Logger:    logger,
	})
	dispatcher.Start()
	defer dispatcher.Stop()

	authService := service.NewAuthService(userRepo, validate, cfg.JWTSecret, cfg.TokenTTL, logger)
	exerciseService := service.NewExerciseService(exerciseRepo, courseRepo, validate, logger)
	uploadService := service.NewUploadService(fileRepo, exerciseRepo, referenceRepo, store, validate, int64(cfg.UploadMaxMB), logger)
	submissionService := service.NewSubmissionService(submissionRepo, exerciseRepo, fileRepo, store, dispatcher, publisher, validate, int64(cfg.SubmissionMaxMB), logger)
	correctionService := service.NewCorrectionService(correctionRepo, submissionRepo, validate, logger)
	dashboardService := service.NewDashboardService(submissionRepo, exerciseRepo, redisClient, cfg.DashboardCacheTTL, logger)
	adminUserService := service.NewAdminUserService(userRepo, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    cfg.UploadMaxMB << 20,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, logger),
		ExerciseHandler:   handler.NewExerciseHandler(exerciseService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		CorrectionHandler: handler.NewCorrectionHandler(correctionService, gradingService, logger),
		UploadHandler:     handler.NewUploadHandler(uploadService, logger),
		DashboardHandler:  handler.NewDashboardHandler(dashboardService, logger),
		AdminUserHandler:  handler.NewAdminUserHandler(adminUserService, logger),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
