package router

import (
	"time"

	"github.com/onegreenvn/tutorial-bundler-backend/internal/handlers"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/middleware"
	"github.com/onegreenvn/tutorial-bundler-backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Services bundles the shared services the HTTP layer depends on
type Services struct {
	Tutorials *services.TutorialService
	Bundles   *services.BundleService
	Files     *services.FileService
	SSEHub    *services.SSEHub
}

// SetupRouter configures the Gin router with the tutorial and bundle routes
func SetupRouter(svc Services) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	// Create a new router
	r := gin.New()

	// Use middleware
	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	r.Use(middleware.Logger())

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Create handlers with services
	tutorialHandler := handlers.NewTutorialHandler(svc.Tutorials)
	bundleHandler := handlers.NewBundleHandler(svc.Bundles, svc.Files, svc.SSEHub)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	logrus.Info("Swagger UI endpoint registered at /swagger/index.html")

	// API v1 routes
	api := r.Group("/api/v1")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
				"time":   time.Now().Format(time.RFC3339),
			})
		})

		batches := api.Group("/batches")
		{
			batches.POST("", tutorialHandler.CreateBatch)
			batches.GET("", tutorialHandler.ListBatches)
			batches.GET("/:id", tutorialHandler.GetBatch)
			batches.POST("/:id/regenerate", tutorialHandler.RegenerateBatch)
			batches.POST("/:id/bundles", bundleHandler.StartBundle)
			batches.GET("/:id/bundles", bundleHandler.ListBundles)
		}

		tutorials := api.Group("/tutorials")
		{
			tutorials.POST("/:id/generate", tutorialHandler.GenerateContent)
			tutorials.PUT("/:id/content", tutorialHandler.UpdateContent)
		}

		bundles := api.Group("/bundles")
		{
			bundles.GET("/:id", bundleHandler.GetBundle)
			bundles.POST("/:id/cancel", bundleHandler.CancelBundle)
			bundles.GET("/:id/events", bundleHandler.GetBundleEvents)
			bundles.GET("/:id/stream", bundleHandler.StreamBundle)
			bundles.GET("/:id/download", bundleHandler.DownloadBundle)
		}
	}

	return r
}
