package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepreciationRecord is one immutable ledger entry for an asset period.
// Records are created by the batch execution engine (or a manual
// adjustment) and are never updated or deleted.
type DepreciationRecord struct {
	Base
	AssetID     uint  `gorm:"not null;index:idx_record_asset_period" json:"asset_id"`
	ExecutionID *uint `gorm:"index" json:"execution_id,omitempty"`

	// 1-based index of the first life month this record covers. Zero for
	// manual adjustments, which are not tied to a period.
	PeriodIndex int `gorm:"not null;index:idx_record_asset_period" json:"period_index"`
	// Number of life months covered (1 for monthly, 3 quarterly, 12 annually).
	PeriodMonths int `gorm:"not null;default:1" json:"period_months"`

	PeriodStart      time.Time `gorm:"not null" json:"period_start"`
	PeriodEnd        time.Time `gorm:"not null" json:"period_end"`
	DepreciationDate time.Time `gorm:"not null" json:"depreciation_date"`

	Method DepreciationMethod `gorm:"size:32;not null" json:"method"`

	BookValueBefore         decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"book_value_before"`
	Amount                  decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	BookValueAfter          decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"book_value_after"`
	AccumulatedDepreciation decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"accumulated_depreciation"`

	IsManualAdjustment bool   `gorm:"default:false" json:"is_manual_adjustment"`
	AdjustmentReason   string `json:"adjustment_reason,omitempty"`

	TriggeredByID *uint `json:"triggered_by_id,omitempty"`

	// Relationships
	Asset Asset `gorm:"foreignKey:AssetID" json:"asset,omitempty"`
}
