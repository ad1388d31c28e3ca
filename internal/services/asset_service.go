package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "aktiva/internal/errors"
	"aktiva/internal/models"
	"aktiva/internal/pagination"
)

// assetService handles asset registration and maintenance.
type assetService struct {
	db *gorm.DB
}

// NewAssetService creates a new AssetServicer.
func NewAssetService(db *gorm.DB) AssetServicer {
	return &assetService{db: db}
}

// CreateAsset registers a new asset. Depreciation configuration is
// optional at registration; assets without it are simply not picked up by
// batch runs until it is completed.
func (s *assetService) CreateAsset(input CreateAssetInput) (*models.Asset, error) {
	if input.Name == "" || input.Tag == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "asset name and tag are required")
	}
	if input.PurchasePrice.IsNegative() || input.SalvageValue.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amounts must not be negative")
	}
	if input.SalvageValue.GreaterThan(input.PurchasePrice) && !input.PurchasePrice.IsZero() {
		return nil, apperrors.ErrSalvageExceedsPrice
	}
	if input.DepreciationMethod != "" && !input.DepreciationMethod.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown depreciation method")
	}

	// Category must exist and be active
	var category models.AssetCategory
	if err := s.db.First(&category, input.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	tag := strings.TrimSpace(input.Tag)
	var count int64
	if err := s.db.Model(&models.Asset{}).Where("tag = ?", tag).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateAssetTag
	}

	method := input.DepreciationMethod
	if method == "" {
		method = models.MethodNone
	}

	asset := &models.Asset{
		CategoryID:            input.CategoryID,
		Name:                  input.Name,
		Tag:                   tag,
		Description:           input.Description,
		IsActive:              true,
		PurchasePrice:         input.PurchasePrice,
		SalvageValue:          input.SalvageValue,
		UsefulLifeMonths:      input.UsefulLifeMonths,
		DepreciationMethod:    method,
		DepreciationStartDate: input.DepreciationStartDate,
		DecliningBalanceRate:  input.DecliningBalanceRate,
		TotalEstimatedUnits:   input.TotalEstimatedUnits,
		CurrentBookValue:      input.PurchasePrice,
	}

	if input.IsPreDepreciated {
		if err := applyPreDepreciationAnchor(asset, input); err != nil {
			return nil, err
		}
	}

	if err := s.db.Create(asset).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	asset.Category = category
	return asset, nil
}

// applyPreDepreciationAnchor validates and sets the migration anchor for
// an asset that arrives with partial depreciation from a legacy system.
func applyPreDepreciationAnchor(asset *models.Asset, input CreateAssetInput) error {
	if input.OriginalPurchasePrice.IsZero() || input.OriginalUsefulLifeMonths <= 0 || input.SystemEntryDate == nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput,
			"pre-depreciated assets require original purchase price, original useful life, and system entry date")
	}
	if input.PriorDepreciationMonths < 0 || input.PriorDepreciationMonths >= input.OriginalUsefulLifeMonths {
		return apperrors.WithMessage(apperrors.ErrInvalidInput,
			"prior depreciation months must be within the original useful life")
	}
	if input.PriorDepreciationAmount.IsNegative() ||
		input.PriorDepreciationAmount.GreaterThan(input.OriginalPurchasePrice) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput,
			"prior depreciation amount must be within the original purchase price")
	}

	entryBook := input.OriginalPurchasePrice.Sub(input.PriorDepreciationAmount)
	asset.IsPreDepreciated = true
	asset.OriginalPurchaseDate = input.OriginalPurchaseDate
	asset.OriginalPurchasePrice = input.OriginalPurchasePrice
	asset.OriginalUsefulLifeMonths = input.OriginalUsefulLifeMonths
	asset.PriorDepreciationAmount = input.PriorDepreciationAmount
	asset.PriorDepreciationMonths = input.PriorDepreciationMonths
	asset.SystemEntryDate = input.SystemEntryDate
	asset.SystemEntryBookValue = entryBook
	asset.CurrentBookValue = entryBook
	return nil
}

// GetAssets retrieves a paginated, filtered list of assets.
func (s *assetService) GetAssets(page pagination.PageRequest, filter AssetFilter) (*pagination.PageResponse[models.Asset], error) {
	page.Defaults()

	base := s.db.Model(&models.Asset{})
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.IsActive != nil {
		base = base.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IsFullyDepreciated != nil {
		base = base.Where("is_fully_depreciated = ?", *filter.IsFullyDepreciated)
	}
	if filter.Method != nil {
		base = base.Where("depreciation_method = ?", *filter.Method)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var assets []models.Asset
	if err := base.Preload("Category").Order("tag").Scopes(pagination.Paginate(page)).Find(&assets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(assets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAssetByID retrieves an asset by ID with its category.
func (s *assetService) GetAssetByID(assetID uint) (*models.Asset, error) {
	var asset models.Asset
	if err := s.db.Preload("Category").First(&asset, assetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAssetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &asset, nil
}

// UpdateAsset updates an asset. Depreciation configuration is frozen once
// periods have been committed to the ledger; descriptive fields stay
// editable.
func (s *assetService) UpdateAsset(assetID uint, input UpdateAssetInput) (*models.Asset, error) {
	asset, err := s.GetAssetByID(assetID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if input.Name != nil && *input.Name != "" {
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	configChange := input.SalvageValue != nil || input.UsefulLifeMonths != nil ||
		input.DepreciationMethod != nil || input.DepreciationStartDate != nil
	if configChange {
		if asset.PeriodsDepreciated > 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
				"depreciation configuration cannot change after periods have been committed")
		}
		if input.SalvageValue != nil {
			if input.SalvageValue.IsNegative() || input.SalvageValue.GreaterThan(asset.PurchasePrice) {
				return nil, apperrors.ErrSalvageExceedsPrice
			}
			updates["salvage_value"] = *input.SalvageValue
		}
		if input.UsefulLifeMonths != nil {
			if *input.UsefulLifeMonths <= 0 {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "useful life months must be positive")
			}
			updates["useful_life_months"] = *input.UsefulLifeMonths
		}
		if input.DepreciationMethod != nil {
			if !input.DepreciationMethod.Valid() {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown depreciation method")
			}
			updates["depreciation_method"] = *input.DepreciationMethod
		}
		if input.DepreciationStartDate != nil {
			updates["depreciation_start_date"] = *input.DepreciationStartDate
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(asset).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetAssetByID(assetID)
}

// DeleteAsset soft-deletes an asset. Its depreciation records are kept
// for the ledger.
func (s *assetService) DeleteAsset(assetID uint) error {
	asset, err := s.GetAssetByID(assetID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(asset).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
