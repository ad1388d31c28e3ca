package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "aktiva/internal/errors"
	"aktiva/internal/models"
	"aktiva/internal/pagination"
	"aktiva/internal/services"
)

// DepreciationHandler handles batch runs, run history, schedule previews,
// and manual adjustments.
type DepreciationHandler struct {
	depreciationService services.DepreciationServicer
	auditService        services.AuditServicer
}

// NewDepreciationHandler creates a new DepreciationHandler.
func NewDepreciationHandler(depreciationService services.DepreciationServicer, auditService services.AuditServicer) *DepreciationHandler {
	return &DepreciationHandler{depreciationService: depreciationService, auditService: auditService}
}

// RunDepreciationRequest represents the request payload for a batch run.
type RunDepreciationRequest struct {
	CalculationDate    string         `json:"calculation_date" binding:"required"`
	Granularity        models.Cadence `json:"granularity" binding:"omitempty,cadence"`
	IncludeCategoryIDs []uint         `json:"include_category_ids"`
	ExcludeCategoryIDs []uint         `json:"exclude_category_ids"`
	DryRun             bool           `json:"dry_run"`
}

// AdjustmentRequest represents the request payload for a manual
// depreciation adjustment.
type AdjustmentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Reason string          `json:"reason" binding:"required,min=1,max=500"`
}

// RunDepreciation handles a batch depreciation run
// @Summary     Run batch depreciation
// @Description Calculate and commit depreciation for all matching assets, or preview it with dry_run
// @Tags        depreciation
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body RunDepreciationRequest true "Run parameters"
// @Success     200 {object} services.ExecutionResult "Run result"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /depreciation/run [post]
func (h *DepreciationHandler) RunDepreciation(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RunDepreciationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	calcDate, err := time.Parse("2006-01-02", req.CalculationDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidCalculationDate, "Invalid calculation_date, expected YYYY-MM-DD"))
		return
	}

	result, err := h.depreciationService.RunBatch(c.Request.Context(), services.BatchConfig{
		CalculationDate:    calcDate,
		Granularity:        req.Granularity,
		IncludeCategoryIDs: req.IncludeCategoryIDs,
		ExcludeCategoryIDs: req.ExcludeCategoryIDs,
		DryRun:             req.DryRun,
		TriggeredByID:      &userID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	if !req.DryRun {
		h.auditService.Log(userID, "RUN_DEPRECIATION", "execution", result.Execution.ID, c.ClientIP(),
			map[string]interface{}{
				"calculation_date": req.CalculationDate,
				"granularity":      result.Execution.Granularity,
				"assets_processed": result.Execution.AssetsProcessed,
			})
	}

	c.JSON(http.StatusOK, result)
}

// ListExecutions handles the retrieval of run history
// @Summary     List depreciation executions
// @Description Get a paginated run history, newest first
// @Tags        depreciation
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Param       status query string false "Filter by status"
// @Param       schedule_id query int false "Filter by schedule"
// @Param       from query string false "Calculation date lower bound (YYYY-MM-DD)"
// @Param       to query string false "Calculation date upper bound (YYYY-MM-DD)"
// @Success     200 {object} pagination.PageResponse[models.DepreciationExecution] "Run history"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /depreciation/executions [get]
func (h *DepreciationHandler) ListExecutions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter services.ExecutionFilter
	if raw := c.Query("status"); raw != "" {
		status := models.ExecutionStatus(raw)
		filter.Status = &status
	}
	scheduleID, err := parseUintQuery(c, "schedule_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.ScheduleID = scheduleID

	from, err := parseDateQuery(c, "from")
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.FromDate = from

	to, err := parseDateQuery(c, "to")
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.ToDate = to

	result, err := h.depreciationService.ListExecutions(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetExecution handles the retrieval of one run
// @Summary     Get execution by ID
// @Description Get a single depreciation execution
// @Tags        depreciation
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Execution ID"
// @Success     200 {object} models.DepreciationExecution "Execution details"
// @Failure     400 {object} ErrorResponse "Invalid execution ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Execution not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /depreciation/executions/{id} [get]
func (h *DepreciationHandler) GetExecution(c *gin.Context) {
	executionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	execution, err := h.depreciationService.GetExecution(executionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"execution": execution})
}

// GetAssetSchedule handles the amortization table projection
// @Summary     Get asset depreciation schedule
// @Description Project the asset's full amortization table; empty when the asset has no depreciation configuration
// @Tags        depreciation
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Asset ID"
// @Success     200 {array} depreciation.Entry "Amortization table"
// @Failure     400 {object} ErrorResponse "Invalid asset ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets/{id}/depreciation-schedule [get]
func (h *DepreciationHandler) GetAssetSchedule(c *gin.Context) {
	assetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	entries, err := h.depreciationService.PreviewSchedule(assetID, time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedule": entries})
}

// RecordAdjustment handles a manual depreciation adjustment
// @Summary     Record manual adjustment
// @Description Record a one-off depreciation adjustment for impairments or partial disposals
// @Tags        depreciation
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Asset ID"
// @Param       request body AdjustmentRequest true "Adjustment details"
// @Success     201 {object} models.DepreciationRecord "Adjustment recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Failure     409 {object} ErrorResponse "Asset fully depreciated or concurrently modified"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets/{id}/depreciation-adjustments [post]
func (h *DepreciationHandler) RecordAdjustment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	assetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	record, err := h.depreciationService.RecordManualAdjustment(assetID, req.Amount, req.Reason, &userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "RECORD_ADJUSTMENT", "asset", assetID, c.ClientIP(),
		map[string]interface{}{"amount": req.Amount.String(), "reason": req.Reason})

	c.JSON(http.StatusCreated, gin.H{"record": record})
}
