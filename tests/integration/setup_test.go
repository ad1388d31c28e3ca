package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"aktiva/internal/handlers"
	"aktiva/internal/logger"
	"aktiva/internal/middleware"
	"aktiva/internal/models"
	"aktiva/internal/services"
	"aktiva/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.AssetCategory{},
		&models.Asset{},
		&models.DepreciationRecord{},
		&models.DepreciationExecution{},
		&models.DepreciationSchedule{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	categoryService := services.NewCategoryService(db)
	assetService := services.NewAssetService(db)
	depreciationService := services.NewDepreciationService(db, 2, nil, nil)
	scheduleService := services.NewScheduleService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	assetHandler := handlers.NewAssetHandler(assetService, auditService)
	depreciationHandler := handlers.NewDepreciationHandler(depreciationService, auditService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService, auditService)

	router := gin.New()
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())
	protected.GET("/profile", authHandler.GetProfile)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	assets := protected.Group("/assets")
	assets.POST("", assetHandler.CreateAsset)
	assets.GET("", assetHandler.GetAssets)
	assets.GET("/:id", assetHandler.GetAssetByID)
	assets.PUT("/:id", assetHandler.UpdateAsset)
	assets.DELETE("/:id", assetHandler.DeleteAsset)
	assets.GET("/:id/depreciation-schedule", depreciationHandler.GetAssetSchedule)
	assets.POST("/:id/depreciation-adjustments", depreciationHandler.RecordAdjustment)

	depreciation := protected.Group("/depreciation")
	depreciation.POST("/run", depreciationHandler.RunDepreciation)
	depreciation.GET("/executions", depreciationHandler.ListExecutions)
	depreciation.GET("/executions/:id", depreciationHandler.GetExecution)

	schedules := protected.Group("/schedules")
	schedules.POST("", scheduleHandler.CreateSchedule)
	schedules.GET("", scheduleHandler.GetSchedules)
	schedules.GET("/:id", scheduleHandler.GetScheduleByID)
	schedules.PUT("/:id", scheduleHandler.UpdateSchedule)
	schedules.PUT("/:id/active", scheduleHandler.SetScheduleActive)
	schedules.DELETE("/:id", scheduleHandler.DeleteSchedule)

	return &testApp{DB: db, Router: router}
}

// request performs an HTTP request against the test app, optionally with a bearer token.
func (app *testApp) request(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// registerAndLogin creates a user through the API and returns a token.
func (app *testApp) registerAndLogin(t *testing.T, email string) string {
	t.Helper()

	body := fmt.Sprintf(`{"email":%q,"password":"password123"}`, email)
	rec := app.request("POST", "/api/v1/auth/register", "", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("registration failed with %d: %s", rec.Code, rec.Body.String())
	}

	result := decodeJSON(t, rec)
	token, ok := result["token"].(string)
	if !ok || token == "" {
		t.Fatalf("no token in registration response: %s", rec.Body.String())
	}
	return token
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}
