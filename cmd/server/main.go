package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/onegreenvn/tutorial-bundler-backend/docs"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/config"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/database"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/database/repository"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/router"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/bundle"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/completion"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/generation"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/ideas"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/llm"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services/scraper"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/utils"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// @title Tutorial Bundler API
// @version 1.0
// @description Crawls documentation sites, proposes tutorials with language models and packages them into downloadable bundles
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.one-green.io/support
// @contact.email support@one-green.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Swagger base path dynamically
	docs.SwaggerInfo.BasePath = cfg.BasePath

	// Configure logging
	configureLogging(cfg)

	// Initialize Sentry
	if utils.InitSentry() {
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize database connection
	db, err := database.InitDB()
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	tutorialRepo := repository.NewTutorialRepository(db)
	runRepo := repository.NewBundleRunRepository(db)
	logRepo := repository.NewProgressLogRepository(db)
	fileRepo := repository.NewFileRepository(db)

	// Create SSE Hub (shared by the progress log service and the stream handler)
	sseHub := services.NewSSEHub()

	// Initialize RabbitMQ service. Progress events are mirrored to the queue when it is available.
	var publisher services.ProgressPublisher
	rabbitMQService, err := services.NewRabbitMQService()
	if err != nil {
		logrus.Warnf("Failed to initialize RabbitMQ: %v", err)
	} else {
		logrus.Info("RabbitMQ service initialized")
		defer rabbitMQService.Close()
		publisher = rabbitMQService
	}

	progressLogService := services.NewProgressLogService(logRepo, sseHub, publisher)
	// Start log cleanup service (cleanup every 6 hours)
	progressLogService.StartLogCleanup(6*time.Hour, cfg.LogRetentionDays)
	defer progressLogService.StopLogCleanup()

	// Remote backends, crawling and generation
	registry := llm.NewRegistry(cfg.LLM)
	crawler := scraper.NewScraper(cfg.Scraper)
	ideaService := ideas.NewService(registry, cfg.LLM.IdeaBackends)
	generator := generation.NewClient(registry, crawler, cfg.LLM.GenerationBackends)
	engine := completion.NewEngine(generator, completion.NewPacer(cfg.Pacing))

	fileService := services.NewFileService(fileRepo, cfg.BaseURL, cfg.Storage)
	bundleService := services.NewBundleService(runRepo, tutorialRepo, engine, bundle.NewAssembler(), fileService, progressLogService)
	tutorialService := services.NewTutorialService(tutorialRepo, crawler, ideaService, generator, bundleService)

	// Runs left over from a previous process can no longer make progress
	bundleService.RecoverInterrupted()

	r := router.SetupRouter(router.Services{
		Tutorials: tutorialService,
		Bundles:   bundleService,
		Files:     fileService,
		SSEHub:    sseHub,
	})

	// Configure HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logrus.Infof("Server starting on port %s", cfg.Port)
		logrus.Infof("API Health Check: http://localhost:%s/api/v1/health", cfg.Port)
		logrus.Infof("Swagger UI: http://localhost:%s/swagger/index.html", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop bundle runs first so open progress streams receive their final event
	if err := bundleService.Shutdown(ctx); err != nil {
		logrus.Warnf("Bundle runs did not stop cleanly: %v", err)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited properly")
}

func configureLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if cfg.LogFile != "" {
		logrus.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     cfg.LogRetentionDays,
			LocalTime:  true,
		}))
	}
}
