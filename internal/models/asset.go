package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepreciationMethod enumerates the supported depreciation methods.
type DepreciationMethod string

const (
	MethodNone              DepreciationMethod = "none"
	MethodStraightLine      DepreciationMethod = "straight_line"
	MethodDecliningBalance  DepreciationMethod = "declining_balance"
	MethodUnitsOfProduction DepreciationMethod = "units_of_production"
	MethodSumOfYearsDigits  DepreciationMethod = "sum_of_years_digits"
)

// Valid reports whether m is one of the enumerated methods.
func (m DepreciationMethod) Valid() bool {
	switch m {
	case MethodNone, MethodStraightLine, MethodDecliningBalance,
		MethodUnitsOfProduction, MethodSumOfYearsDigits:
		return true
	}
	return false
}

// Asset represents a fixed asset and its financial (depreciation) facet.
//
// The financial fields are mutated only by the batch execution engine;
// the schedule projection reads them and never writes.
type Asset struct {
	Base
	CategoryID  uint   `gorm:"not null;index" json:"category_id"`
	Name        string `gorm:"not null" json:"name"`
	Tag         string `gorm:"size:64;uniqueIndex;not null" json:"tag"`
	Description string `json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	// Financial facet
	PurchasePrice         decimal.Decimal    `gorm:"type:decimal(20,2);not null;default:0" json:"purchase_price"`
	SalvageValue          decimal.Decimal    `gorm:"type:decimal(20,2);not null;default:0" json:"salvage_value"`
	UsefulLifeMonths      int                `gorm:"not null;default:0" json:"useful_life_months"`
	DepreciationMethod    DepreciationMethod `gorm:"size:32;not null;default:'none'" json:"depreciation_method"`
	DepreciationStartDate *time.Time         `json:"depreciation_start_date,omitempty"`

	// Annual declining-balance rate. Zero means double-declining,
	// derived from the useful life.
	DecliningBalanceRate decimal.Decimal `gorm:"type:decimal(10,6);not null;default:0" json:"declining_balance_rate"`

	// Lifetime unit estimate for the units-of-production method.
	TotalEstimatedUnits int64 `gorm:"not null;default:0" json:"total_estimated_units"`

	AccumulatedDepreciation decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"accumulated_depreciation"`
	CurrentBookValue        decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"current_book_value"`
	IsFullyDepreciated      bool            `gorm:"default:false" json:"is_fully_depreciated"`

	// Months of depreciation committed to the ledger by this system.
	// Acts as the compare-and-swap token for concurrent batch runs.
	PeriodsDepreciated   int        `gorm:"not null;default:0" json:"periods_depreciated"`
	LastDepreciationDate *time.Time `json:"last_depreciation_date,omitempty"`
	NextDepreciationDate *time.Time `json:"next_depreciation_date,omitempty"`

	// Pre-depreciation anchor, present only for assets migrated from a
	// legacy system with partial depreciation already applied. When set,
	// the anchor rather than the nominal purchase fields is the basis for
	// remaining periods and the opening book value.
	IsPreDepreciated         bool            `gorm:"default:false" json:"is_pre_depreciated"`
	OriginalPurchaseDate     *time.Time      `json:"original_purchase_date,omitempty"`
	OriginalPurchasePrice    decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"original_purchase_price"`
	OriginalUsefulLifeMonths int             `gorm:"not null;default:0" json:"original_useful_life_months"`
	PriorDepreciationAmount  decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"prior_depreciation_amount"`
	PriorDepreciationMonths  int             `gorm:"not null;default:0" json:"prior_depreciation_months"`
	SystemEntryDate          *time.Time      `json:"system_entry_date,omitempty"`
	SystemEntryBookValue     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"system_entry_book_value"`

	// Relationships
	Category            AssetCategory        `gorm:"foreignKey:CategoryID" json:"category"`
	DepreciationRecords []DepreciationRecord `gorm:"foreignKey:AssetID" json:"depreciation_records,omitempty"`
}
