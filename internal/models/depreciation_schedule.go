package models

import "time"

// DepreciationSchedule is a named recurring configuration for unattended
// batch depreciation runs. The next execution date is derived from the
// cadence and execution day, never stored.
type DepreciationSchedule struct {
	Base
	Name         string  `gorm:"not null" json:"name"`
	Cadence      Cadence `gorm:"size:16;not null" json:"cadence"`
	ExecutionDay int     `gorm:"not null" json:"execution_day"`
	IsActive     bool    `gorm:"default:true" json:"is_active"`

	// JSON-encoded category id lists; empty means no filter.
	IncludeCategoryIDs string `json:"include_category_ids,omitempty"`
	ExcludeCategoryIDs string `json:"exclude_category_ids,omitempty"`

	CreatedByID    uint       `gorm:"not null" json:"created_by_id"`
	LastExecutedAt *time.Time `json:"last_executed_at,omitempty"`

	// Derived at read time from cadence + execution day + today.
	NextExecutionDate *time.Time `gorm:"-" json:"next_execution_date,omitempty"`

	// Relationships
	CreatedBy  User                    `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Executions []DepreciationExecution `gorm:"foreignKey:ScheduleID" json:"executions,omitempty"`
}

// SetIncludeCategories stores ids as the JSON include filter.
func (s *DepreciationSchedule) SetIncludeCategories(ids []uint) {
	s.IncludeCategoryIDs = encodeIDList(ids)
}

// SetExcludeCategories stores ids as the JSON exclude filter.
func (s *DepreciationSchedule) SetExcludeCategories(ids []uint) {
	s.ExcludeCategoryIDs = encodeIDList(ids)
}

// IncludeCategories returns the decoded include filter.
func (s *DepreciationSchedule) IncludeCategories() []uint {
	return decodeIDList(s.IncludeCategoryIDs)
}

// ExcludeCategories returns the decoded exclude filter.
func (s *DepreciationSchedule) ExcludeCategories() []uint {
	return decodeIDList(s.ExcludeCategoryIDs)
}
