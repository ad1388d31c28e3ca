package models

// AssetCategory groups assets for reporting and for batch run filters.
type AssetCategory struct {
	Base
	Name        string `gorm:"not null" json:"name"`
	Code        string `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Description string `json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	// Relationships
	Assets []Asset `gorm:"foreignKey:CategoryID" json:"assets,omitempty"`
}
