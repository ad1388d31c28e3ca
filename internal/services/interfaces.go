package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"aktiva/internal/depreciation"
	"aktiva/internal/models"
	"aktiva/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
}

// CategoryServicer defines the contract for asset-category business logic.
type CategoryServicer interface {
	CreateCategory(name, code, description string) (*models.AssetCategory, error)
	GetCategories(page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.AssetCategory], error)
	GetCategoryByID(categoryID uint) (*models.AssetCategory, error)
	UpdateCategory(categoryID uint, name, description string, isActive *bool) (*models.AssetCategory, error)
	DeleteCategory(categoryID uint) error
}

// CreateAssetInput carries the fields accepted when registering an asset.
// The pre-depreciation anchor fields are set together or not at all.
type CreateAssetInput struct {
	CategoryID  uint
	Name        string
	Tag         string
	Description string

	PurchasePrice         decimal.Decimal
	SalvageValue          decimal.Decimal
	UsefulLifeMonths      int
	DepreciationMethod    models.DepreciationMethod
	DepreciationStartDate *time.Time
	DecliningBalanceRate  decimal.Decimal
	TotalEstimatedUnits   int64

	IsPreDepreciated         bool
	OriginalPurchaseDate     *time.Time
	OriginalPurchasePrice    decimal.Decimal
	OriginalUsefulLifeMonths int
	PriorDepreciationAmount  decimal.Decimal
	PriorDepreciationMonths  int
	SystemEntryDate          *time.Time
}

// UpdateAssetInput carries the mutable descriptive fields of an asset.
// Depreciation configuration can be changed only while no periods have
// been committed.
type UpdateAssetInput struct {
	Name        *string
	Description *string
	IsActive    *bool

	SalvageValue          *decimal.Decimal
	UsefulLifeMonths      *int
	DepreciationMethod    *models.DepreciationMethod
	DepreciationStartDate *time.Time
}

// AssetFilter holds optional filter parameters for listing assets.
type AssetFilter struct {
	CategoryID         *uint
	IsActive           *bool
	IsFullyDepreciated *bool
	Method             *models.DepreciationMethod
}

// AssetServicer defines the contract for asset-related business logic.
type AssetServicer interface {
	CreateAsset(input CreateAssetInput) (*models.Asset, error)
	GetAssets(page pagination.PageRequest, filter AssetFilter) (*pagination.PageResponse[models.Asset], error)
	GetAssetByID(assetID uint) (*models.Asset, error)
	UpdateAsset(assetID uint, input UpdateAssetInput) (*models.Asset, error)
	DeleteAsset(assetID uint) error
}

// OutcomeStatus classifies how a single asset fared in a batch run.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// AssetOutcome is the per-asset result of a batch run.
type AssetOutcome struct {
	AssetID      uint            `json:"asset_id"`
	AssetTag     string          `json:"asset_tag"`
	CategoryID   uint            `json:"category_id"`
	Status       OutcomeStatus   `json:"status"`
	Amount       decimal.Decimal `json:"amount"`
	PeriodMonths int             `json:"period_months"`
	Reason       string          `json:"reason,omitempty"`
}

// CategorySubtotal aggregates committed depreciation per asset category.
type CategorySubtotal struct {
	CategoryID   uint            `json:"category_id"`
	CategoryName string          `json:"category_name"`
	AssetCount   int             `json:"asset_count"`
	Total        decimal.Decimal `json:"total"`
}

// ExecutionResult is the full outcome of a batch run: the persisted
// execution row plus per-asset and per-category detail.
type ExecutionResult struct {
	Execution *models.DepreciationExecution `json:"execution"`
	Outcomes  []AssetOutcome                `json:"outcomes"`
	Subtotals []CategorySubtotal            `json:"subtotals"`
	DryRun    bool                          `json:"dry_run"`
}

// BatchConfig parameterizes one batch depreciation run.
type BatchConfig struct {
	CalculationDate    time.Time
	Granularity        models.Cadence
	IncludeCategoryIDs []uint
	ExcludeCategoryIDs []uint
	DryRun             bool
	ScheduleID         *uint
	TriggeredByID      *uint
}

// ExecutionFilter holds optional filter parameters for listing executions.
type ExecutionFilter struct {
	Status     *models.ExecutionStatus
	ScheduleID *uint
	FromDate   *time.Time
	ToDate     *time.Time
}

// UnitsUsageFn reports the usage units an asset consumed for a period
// ending at the given date. Units-of-production assets cannot be
// depreciated without one.
type UnitsUsageFn func(asset *models.Asset, periodEnd time.Time) (int64, error)

// ProgressReporter receives batch progress updates. Implementations must
// tolerate being called from multiple goroutines.
type ProgressReporter interface {
	Report(executionRef string, processed, total int)
}

// DepreciationServicer defines the contract for the depreciation engine.
type DepreciationServicer interface {
	RunBatch(ctx context.Context, cfg BatchConfig) (*ExecutionResult, error)
	PreviewSchedule(assetID uint, now time.Time) ([]depreciation.Entry, error)
	ListExecutions(page pagination.PageRequest, filter ExecutionFilter) (*pagination.PageResponse[models.DepreciationExecution], error)
	GetExecution(executionID uint) (*models.DepreciationExecution, error)
	RecordManualAdjustment(assetID uint, amount decimal.Decimal, reason string, triggeredByID *uint) (*models.DepreciationRecord, error)
}

// CreateScheduleInput carries the fields accepted when creating a
// recurring depreciation schedule.
type CreateScheduleInput struct {
	Name               string
	Cadence            models.Cadence
	ExecutionDay       int
	IncludeCategoryIDs []uint
	ExcludeCategoryIDs []uint
	CreatedByID        uint
}

// UpdateScheduleInput carries the mutable fields of a schedule.
type UpdateScheduleInput struct {
	Name               *string
	Cadence            *models.Cadence
	ExecutionDay       *int
	IncludeCategoryIDs []uint
	ExcludeCategoryIDs []uint
}

// ScheduleServicer defines the contract for recurring-schedule management.
type ScheduleServicer interface {
	CreateSchedule(input CreateScheduleInput) (*models.DepreciationSchedule, error)
	GetSchedules(page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.DepreciationSchedule], error)
	GetScheduleByID(scheduleID uint) (*models.DepreciationSchedule, error)
	UpdateSchedule(scheduleID uint, input UpdateScheduleInput) (*models.DepreciationSchedule, error)
	DeleteSchedule(scheduleID uint) error
	SetActive(scheduleID uint, active bool) (*models.DepreciationSchedule, error)
	DueSchedules(asOf time.Time) ([]models.DepreciationSchedule, error)
	MarkExecuted(scheduleID uint, executedAt time.Time) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
