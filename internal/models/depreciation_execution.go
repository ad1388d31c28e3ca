package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"aktiva/internal/uuid"
)

// Cadence is the length of one depreciation period. It is used both as
// the granularity of a batch run and as the recurrence of a schedule.
type Cadence string

const (
	CadenceMonthly   Cadence = "monthly"
	CadenceQuarterly Cadence = "quarterly"
	CadenceAnnually  Cadence = "annually"
)

// Valid reports whether c is one of the enumerated cadences.
func (c Cadence) Valid() bool {
	switch c {
	case CadenceMonthly, CadenceQuarterly, CadenceAnnually:
		return true
	}
	return false
}

// Months returns the number of life months one period of this cadence covers.
func (c Cadence) Months() int {
	switch c {
	case CadenceQuarterly:
		return 3
	case CadenceAnnually:
		return 12
	default:
		return 1
	}
}

// ExecutionStatus is the state of a batch depreciation run.
type ExecutionStatus string

const (
	ExecutionPending   ExecutionStatus = "pending"
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
	ExecutionCancelled ExecutionStatus = "cancelled"
)

// IsTerminal reports whether the status is final. Terminal executions are
// never transitioned again.
func (s ExecutionStatus) IsTerminal() bool {
	switch s {
	case ExecutionCompleted, ExecutionFailed, ExecutionCancelled:
		return true
	}
	return false
}

// CanTransition reports whether the run state machine allows moving
// from s to next. Runs go from pending to running to a terminal state.
func (s ExecutionStatus) CanTransition(next ExecutionStatus) bool {
	switch s {
	case ExecutionPending:
		return next == ExecutionRunning || next == ExecutionCancelled
	case ExecutionRunning:
		return next.IsTerminal()
	}
	return false
}

// DepreciationExecution records one batch depreciation run, manual or
// scheduled. It is created when the run starts and finalized exactly once.
type DepreciationExecution struct {
	Base
	Reference       string    `gorm:"size:36;uniqueIndex;not null" json:"reference"`
	CalculationDate time.Time `gorm:"not null" json:"calculation_date"`
	Granularity     Cadence   `gorm:"size:16;not null" json:"granularity"`

	// JSON-encoded category id lists; empty means no filter.
	IncludeCategoryIDs string `json:"include_category_ids,omitempty"`
	ExcludeCategoryIDs string `json:"exclude_category_ids,omitempty"`

	Status ExecutionStatus `gorm:"size:16;not null;default:'pending';index" json:"status"`

	AssetsProcessed        int `gorm:"not null;default:0" json:"assets_processed"`
	SuccessfulCalculations int `gorm:"not null;default:0" json:"successful_calculations"`
	FailedCalculations     int `gorm:"not null;default:0" json:"failed_calculations"`
	SkippedAssets          int `gorm:"not null;default:0" json:"skipped_assets"`

	TotalDepreciation decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"total_depreciation"`
	DurationMillis    int64           `gorm:"not null;default:0" json:"duration_millis"`
	ErrorMessage      string          `json:"error_message,omitempty"`

	ScheduleID    *uint      `gorm:"index" json:"schedule_id,omitempty"`
	TriggeredByID *uint      `json:"triggered_by_id,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// BeforeCreate assigns a time-ordered reference for external tracking
// (worker task ids, progress keys).
func (e *DepreciationExecution) BeforeCreate(tx *gorm.DB) error {
	if e.Reference == "" {
		e.Reference = uuid.New()
	}
	return nil
}

// SetIncludeCategories stores ids as the JSON include filter.
func (e *DepreciationExecution) SetIncludeCategories(ids []uint) {
	e.IncludeCategoryIDs = encodeIDList(ids)
}

// SetExcludeCategories stores ids as the JSON exclude filter.
func (e *DepreciationExecution) SetExcludeCategories(ids []uint) {
	e.ExcludeCategoryIDs = encodeIDList(ids)
}

// IncludeCategories returns the decoded include filter.
func (e *DepreciationExecution) IncludeCategories() []uint {
	return decodeIDList(e.IncludeCategoryIDs)
}

// ExcludeCategories returns the decoded exclude filter.
func (e *DepreciationExecution) ExcludeCategories() []uint {
	return decodeIDList(e.ExcludeCategoryIDs)
}

func encodeIDList(ids []uint) string {
	if len(ids) == 0 {
		return ""
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return ""
	}
	return string(data)
}

func decodeIDList(s string) []uint {
	if s == "" {
		return nil
	}
	var ids []uint
	if err := json.Unmarshal([]byte(s), &ids); err != nil {
		return nil
	}
	return ids
}
