package main

import (
	"fmt"
	"net/http"
	"os"

	"aktiva/internal/config"
	"aktiva/internal/database"
	"aktiva/internal/handlers"
	"aktiva/internal/logger"
	"aktiva/internal/middleware"
	"aktiva/internal/services"
	"aktiva/internal/validator"
	"aktiva/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// @title           Aktiva API
// @version         1.0
// @description     Aktiva is a fixed-asset register with a batch depreciation engine, amortization schedule projection, and recurring depreciation schedules.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Redis is used for batch run progress; the API works without it.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     appConfig.RedisAddr,
		Password: appConfig.RedisPassword,
		DB:       appConfig.RedisDB,
	})
	progress := worker.NewRedisProgress(redisClient)

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	categoryService := services.NewCategoryService(db)
	assetService := services.NewAssetService(db)
	depreciationService := services.NewDepreciationService(db, appConfig.BatchConcurrency, nil, progress)
	scheduleService := services.NewScheduleService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	assetHandler := handlers.NewAssetHandler(assetService, auditService)
	depreciationHandler := handlers.NewDepreciationHandler(depreciationService, auditService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService, auditService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Asset routes
	assets := protected.Group("/assets")
	assets.POST("", assetHandler.CreateAsset)
	assets.GET("", assetHandler.GetAssets)
	assets.GET("/:id", assetHandler.GetAssetByID)
	assets.PUT("/:id", assetHandler.UpdateAsset)
	assets.DELETE("/:id", assetHandler.DeleteAsset)
	assets.GET("/:id/depreciation-schedule", depreciationHandler.GetAssetSchedule)
	assets.POST("/:id/depreciation-adjustments", depreciationHandler.RecordAdjustment)

	// Depreciation routes
	depreciation := protected.Group("/depreciation")
	depreciation.POST("/run", depreciationHandler.RunDepreciation)
	depreciation.GET("/executions", depreciationHandler.ListExecutions)
	depreciation.GET("/executions/:id", depreciationHandler.GetExecution)

	// Schedule routes
	schedules := protected.Group("/schedules")
	schedules.POST("", scheduleHandler.CreateSchedule)
	schedules.GET("", scheduleHandler.GetSchedules)
	schedules.GET("/:id", scheduleHandler.GetScheduleByID)
	schedules.PUT("/:id", scheduleHandler.UpdateSchedule)
	schedules.PUT("/:id/active", scheduleHandler.SetScheduleActive)
	schedules.DELETE("/:id", scheduleHandler.DeleteSchedule)

	log.Infof("Starting Aktiva backend server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
