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

// AssetHandler handles asset-register requests.
type AssetHandler struct {
	assetService services.AssetServicer
	auditService services.AuditServicer
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(assetService services.AssetServicer, auditService services.AuditServicer) *AssetHandler {
	return &AssetHandler{assetService: assetService, auditService: auditService}
}

// CreateAssetRequest represents the request payload for registering an asset.
// Dates are YYYY-MM-DD. The pre-depreciation fields are for assets migrated
// from a legacy system with depreciation already applied.
type CreateAssetRequest struct {
	CategoryID  uint   `json:"category_id" binding:"required"`
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Tag         string `json:"tag" binding:"required,min=1,max=64"`
	Description string `json:"description" binding:"max=500"`

	PurchasePrice         decimal.Decimal           `json:"purchase_price"`
	SalvageValue          decimal.Decimal           `json:"salvage_value"`
	UsefulLifeMonths      int                       `json:"useful_life_months" binding:"gte=0"`
	DepreciationMethod    models.DepreciationMethod `json:"depreciation_method" binding:"omitempty,depreciation_method"`
	DepreciationStartDate *string                   `json:"depreciation_start_date"`
	DecliningBalanceRate  decimal.Decimal           `json:"declining_balance_rate"`
	TotalEstimatedUnits   int64                     `json:"total_estimated_units" binding:"gte=0"`

	IsPreDepreciated         bool            `json:"is_pre_depreciated"`
	OriginalPurchaseDate     *string         `json:"original_purchase_date"`
	OriginalPurchasePrice    decimal.Decimal `json:"original_purchase_price"`
	OriginalUsefulLifeMonths int             `json:"original_useful_life_months" binding:"gte=0"`
	PriorDepreciationAmount  decimal.Decimal `json:"prior_depreciation_amount"`
	PriorDepreciationMonths  int             `json:"prior_depreciation_months" binding:"gte=0"`
	SystemEntryDate          *string         `json:"system_entry_date"`
}

// UpdateAssetRequest represents the request payload for updating an asset.
type UpdateAssetRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active"`

	SalvageValue          *decimal.Decimal           `json:"salvage_value"`
	UsefulLifeMonths      *int                       `json:"useful_life_months" binding:"omitempty,gt=0"`
	DepreciationMethod    *models.DepreciationMethod `json:"depreciation_method" binding:"omitempty,depreciation_method"`
	DepreciationStartDate *string                    `json:"depreciation_start_date"`
}

// parseDateField parses an optional YYYY-MM-DD body field.
func parseDateField(raw *string, name string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	value, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+name+", expected YYYY-MM-DD")
	}
	return &value, nil
}

// CreateAsset handles asset registration
// @Summary     Register an asset
// @Description Register a new fixed asset, optionally with depreciation configuration
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateAssetRequest true "Asset details"
// @Success     201 {object} models.Asset "Asset created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Duplicate asset tag"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets [post]
func (h *AssetHandler) CreateAsset(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	startDate, err := parseDateField(req.DepreciationStartDate, "depreciation_start_date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	originalDate, err := parseDateField(req.OriginalPurchaseDate, "original_purchase_date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	entryDate, err := parseDateField(req.SystemEntryDate, "system_entry_date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	asset, err := h.assetService.CreateAsset(services.CreateAssetInput{
		CategoryID:            req.CategoryID,
		Name:                  req.Name,
		Tag:                   req.Tag,
		Description:           req.Description,
		PurchasePrice:         req.PurchasePrice,
		SalvageValue:          req.SalvageValue,
		UsefulLifeMonths:      req.UsefulLifeMonths,
		DepreciationMethod:    req.DepreciationMethod,
		DepreciationStartDate: startDate,
		DecliningBalanceRate:  req.DecliningBalanceRate,
		TotalEstimatedUnits:   req.TotalEstimatedUnits,

		IsPreDepreciated:         req.IsPreDepreciated,
		OriginalPurchaseDate:     originalDate,
		OriginalPurchasePrice:    req.OriginalPurchasePrice,
		OriginalUsefulLifeMonths: req.OriginalUsefulLifeMonths,
		PriorDepreciationAmount:  req.PriorDepreciationAmount,
		PriorDepreciationMonths:  req.PriorDepreciationMonths,
		SystemEntryDate:          entryDate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_ASSET", "asset", asset.ID, c.ClientIP(),
		map[string]interface{}{"tag": asset.Tag, "category_id": asset.CategoryID})

	c.JSON(http.StatusCreated, gin.H{"asset": asset})
}

// GetAssets handles the retrieval of assets
// @Summary     List assets
// @Description Get a paginated, filtered list of assets
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Param       category_id query int false "Filter by category"
// @Param       is_active query bool false "Filter by active state"
// @Param       is_fully_depreciated query bool false "Filter by depreciation completion"
// @Param       method query string false "Filter by depreciation method"
// @Success     200 {object} pagination.PageResponse[models.Asset] "List of assets"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets [get]
func (h *AssetHandler) GetAssets(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter services.AssetFilter
	categoryID, err := parseUintQuery(c, "category_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.CategoryID = categoryID

	isActive, err := parseBoolQuery(c, "is_active")
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.IsActive = isActive

	isFully, err := parseBoolQuery(c, "is_fully_depreciated")
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.IsFullyDepreciated = isFully

	if raw := c.Query("method"); raw != "" {
		method := models.DepreciationMethod(raw)
		if !method.Valid() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid method"))
			return
		}
		filter.Method = &method
	}

	result, err := h.assetService.GetAssets(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAssetByID handles the retrieval of a specific asset
// @Summary     Get asset by ID
// @Description Get a specific asset with its category
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Asset ID"
// @Success     200 {object} models.Asset "Asset details"
// @Failure     400 {object} ErrorResponse "Invalid asset ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets/{id} [get]
func (h *AssetHandler) GetAssetByID(c *gin.Context) {
	assetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	asset, err := h.assetService.GetAssetByID(assetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

// UpdateAsset handles updating an asset
// @Summary     Update asset
// @Description Update an asset's descriptive fields, and its depreciation configuration while no periods are committed
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Asset ID"
// @Param       request body UpdateAssetRequest true "Updated asset details"
// @Success     200 {object} models.Asset "Updated asset"
// @Failure     400 {object} ErrorResponse "Invalid input or asset ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets/{id} [put]
func (h *AssetHandler) UpdateAsset(c *gin.Context) {
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

	var req UpdateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	startDate, err := parseDateField(req.DepreciationStartDate, "depreciation_start_date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	asset, err := h.assetService.UpdateAsset(assetID, services.UpdateAssetInput{
		Name:                  req.Name,
		Description:           req.Description,
		IsActive:              req.IsActive,
		SalvageValue:          req.SalvageValue,
		UsefulLifeMonths:      req.UsefulLifeMonths,
		DepreciationMethod:    req.DepreciationMethod,
		DepreciationStartDate: startDate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_ASSET", "asset", asset.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

// DeleteAsset handles deleting an asset
// @Summary     Delete asset
// @Description Soft-delete an asset, keeping its depreciation ledger
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Asset ID"
// @Success     200 {object} MessageResponse "Asset deleted"
// @Failure     400 {object} ErrorResponse "Invalid asset ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets/{id} [delete]
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
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

	if err := h.assetService.DeleteAsset(assetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_ASSET", "asset", assetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Asset deleted successfully"})
}
