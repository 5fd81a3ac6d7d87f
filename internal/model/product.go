package model

// Product is a produceable/sellable SKU. Products referenced by the ledger are
// deactivated, never deleted.
type Product struct {
	BaseModel
	SKU      string `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku" validate:"required"`
	Name     string `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Size     string `gorm:"type:varchar(50)" json:"size"`
	Unit     string `gorm:"type:varchar(20)" json:"unit"`
	IsActive bool   `gorm:"default:true;not null" json:"is_active"`
}
