package model

type LocationType string

const (
	LocationWarehouse         LocationType = "WAREHOUSE"
	LocationRestaurant        LocationType = "RESTAURANT"
	LocationFulfillmentCenter LocationType = "FULFILLMENT_CENTER"
	LocationMarket            LocationType = "MARKET"
	LocationEvent             LocationType = "EVENT"
)

// DefaultMainWarehouseName is the location released batches land in.
const DefaultMainWarehouseName = "Main Warehouse"

// Location is a physical or logical place stock can reside. Names are unique so that
// the main warehouse can be find-or-created by name.
type Location struct {
	BaseModel
	Name     string       `gorm:"type:varchar(255);uniqueIndex;not null" json:"name" validate:"required"`
	Type     LocationType `gorm:"type:varchar(30);not null" json:"type" validate:"required,oneof=WAREHOUSE RESTAURANT FULFILLMENT_CENTER MARKET EVENT"`
	IsActive bool         `gorm:"default:true;not null" json:"is_active"`
}

// CoPackerPartner is an external manufacturer producing batches on our behalf.
type CoPackerPartner struct {
	BaseModel
	Name         string `gorm:"type:varchar(255);uniqueIndex;not null" json:"name" validate:"required"`
	ContactNotes string `gorm:"type:text" json:"contact_notes"`
	IsActive     bool   `gorm:"default:true;not null" json:"is_active"`
}
