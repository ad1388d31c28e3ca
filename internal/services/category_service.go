package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "aktiva/internal/errors"
	"aktiva/internal/models"
	"aktiva/internal/pagination"
)

// categoryService handles asset-category business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new asset category
func (s *categoryService) CreateCategory(name, code, description string) (*models.AssetCategory, error) {
	// Validate input
	if name == "" || code == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name and code are required")
	}
	code = strings.ToUpper(code)

	// Codes are unique across the whole register
	var count int64
	if err := s.db.Model(&models.AssetCategory{}).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateCategoryCode
	}

	category := &models.AssetCategory{
		Name:        name,
		Code:        code,
		Description: description,
		IsActive:    true,
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// GetCategories retrieves a paginated list of categories, optionally
// filtered by active state.
func (s *categoryService) GetCategories(page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.AssetCategory], error) {
	page.Defaults()

	base := s.db.Model(&models.AssetCategory{})
	if isActive != nil {
		base = base.Where("is_active = ?", *isActive)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.AssetCategory
	if err := base.Order("code").Scopes(pagination.Paginate(page)).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoryByID retrieves a category by ID
func (s *categoryService) GetCategoryByID(categoryID uint) (*models.AssetCategory, error) {
	var category models.AssetCategory
	if err := s.db.First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory updates an existing category. The code is immutable
// because batch run filters and reports reference it.
func (s *categoryService) UpdateCategory(categoryID uint, name, description string, isActive *bool) (*models.AssetCategory, error) {
	category, err := s.GetCategoryByID(categoryID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if description != "" {
		updates["description"] = description
	}
	if isActive != nil {
		updates["is_active"] = *isActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return category, nil
}

// DeleteCategory soft-deletes a category. Categories with registered
// assets cannot be deleted; deactivate them instead.
func (s *categoryService) DeleteCategory(categoryID uint) error {
	category, err := s.GetCategoryByID(categoryID)
	if err != nil {
		return err
	}

	var assetCount int64
	if err := s.db.Model(&models.Asset{}).Where("category_id = ?", categoryID).Count(&assetCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if assetCount > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := s.db.Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
