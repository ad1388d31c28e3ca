package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"aktiva/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates an asset category with a unique code.
func CreateTestCategory(t *testing.T, db *gorm.DB) *models.AssetCategory {
	t.Helper()

	n := nextID()
	category := &models.AssetCategory{
		Name:     fmt.Sprintf("Test Category %d", n),
		Code:     fmt.Sprintf("CAT%d", n),
		IsActive: true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestAsset creates a straight-line asset with the given purchase
// price, salvage value, useful life, and start date.
func CreateTestAsset(t *testing.T, db *gorm.DB, categoryID uint, price, salvage decimal.Decimal, lifeMonths int, startDate time.Time) *models.Asset {
	t.Helper()

	n := nextID()
	asset := &models.Asset{
		CategoryID:            categoryID,
		Name:                  fmt.Sprintf("Test Asset %d", n),
		Tag:                   fmt.Sprintf("AST-%d", n),
		IsActive:              true,
		PurchasePrice:         price,
		SalvageValue:          salvage,
		UsefulLifeMonths:      lifeMonths,
		DepreciationMethod:    models.MethodStraightLine,
		DepreciationStartDate: &startDate,
		CurrentBookValue:      price,
	}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("failed to create test asset: %v", err)
	}
	return asset
}

// CreateTestAssetWithMethod creates an asset with the given method and
// otherwise standard terms.
func CreateTestAssetWithMethod(t *testing.T, db *gorm.DB, categoryID uint, method models.DepreciationMethod, price, salvage decimal.Decimal, lifeMonths int, startDate time.Time) *models.Asset {
	t.Helper()

	asset := CreateTestAsset(t, db, categoryID, price, salvage, lifeMonths, startDate)
	if err := db.Model(asset).Update("depreciation_method", method).Error; err != nil {
		t.Fatalf("failed to set test asset method: %v", err)
	}
	asset.DepreciationMethod = method
	return asset
}

// CreateTestUnconfiguredAsset creates an asset with no depreciation
// method, which batch runs report as failed.
func CreateTestUnconfiguredAsset(t *testing.T, db *gorm.DB, categoryID uint, price decimal.Decimal) *models.Asset {
	t.Helper()

	n := nextID()
	asset := &models.Asset{
		CategoryID:         categoryID,
		Name:               fmt.Sprintf("Test Asset %d", n),
		Tag:                fmt.Sprintf("AST-%d", n),
		IsActive:           true,
		PurchasePrice:      price,
		DepreciationMethod: models.MethodNone,
		CurrentBookValue:   price,
	}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("failed to create test asset: %v", err)
	}
	return asset
}

// CreateTestPreDepreciatedAsset creates an asset migrated with partial
// depreciation already applied. The original terms drive per-month
// amounts; entryDate is period zero for the remaining life.
func CreateTestPreDepreciatedAsset(t *testing.T, db *gorm.DB, categoryID uint, originalPrice, priorAmount decimal.Decimal, originalLifeMonths, priorMonths int, entryDate time.Time) *models.Asset {
	t.Helper()

	n := nextID()
	entryBook := originalPrice.Sub(priorAmount)
	asset := &models.Asset{
		CategoryID:               categoryID,
		Name:                     fmt.Sprintf("Migrated Asset %d", n),
		Tag:                      fmt.Sprintf("MIG-%d", n),
		IsActive:                 true,
		DepreciationMethod:       models.MethodStraightLine,
		IsPreDepreciated:         true,
		OriginalPurchasePrice:    originalPrice,
		OriginalUsefulLifeMonths: originalLifeMonths,
		PriorDepreciationAmount:  priorAmount,
		PriorDepreciationMonths:  priorMonths,
		SystemEntryDate:          &entryDate,
		SystemEntryBookValue:     entryBook,
		CurrentBookValue:         entryBook,
	}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("failed to create test pre-depreciated asset: %v", err)
	}
	return asset
}

// CreateTestSchedule creates an active monthly schedule.
func CreateTestSchedule(t *testing.T, db *gorm.DB, createdByID uint, cadence models.Cadence, executionDay int) *models.DepreciationSchedule {
	t.Helper()

	schedule := &models.DepreciationSchedule{
		Name:         fmt.Sprintf("Test Schedule %d", nextID()),
		Cadence:      cadence,
		ExecutionDay: executionDay,
		IsActive:     true,
		CreatedByID:  createdByID,
	}
	if err := db.Create(schedule).Error; err != nil {
		t.Fatalf("failed to create test schedule: %v", err)
	}
	return schedule
}
