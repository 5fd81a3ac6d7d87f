package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductionSource string

const (
	SourceInHouse  ProductionSource = "IN_HOUSE"
	SourceCoPacker ProductionSource = "CO_PACKER"
)

// Batch is one production run. Removal is only ever a deactivation; the row stays
// queryable for audit.
type Batch struct {
	BaseModel
	BatchCode      string           `gorm:"type:varchar(30);uniqueIndex;not null" json:"batch_code"`
	ProductID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"product_id"`
	Product        *Product         `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	ProductionDate time.Time        `gorm:"type:date;not null;index" json:"production_date"`
	Source         ProductionSource `gorm:"type:varchar(20);not null" json:"production_source"`

	// Co-packer fields, only set when Source is CO_PACKER
	CoPackerPartnerID    *uuid.UUID       `gorm:"type:uuid;index" json:"co_packer_partner_id,omitempty"`
	CoPackerPartner      *CoPackerPartner `gorm:"foreignKey:CoPackerPartnerID" json:"co_packer_partner,omitempty"`
	CoPackerLotNumber    string           `gorm:"type:varchar(100)" json:"co_packer_lot_number,omitempty"`
	CoPackerReceivedDate *time.Time       `gorm:"type:date" json:"co_packer_received_date,omitempty"`

	TotalUnits int         `gorm:"not null" json:"total_units"`
	Notes      string      `gorm:"type:text" json:"notes"`
	Status     BatchStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Version    int         `gorm:"not null;default:1" json:"version"`

	IsActive      bool       `gorm:"not null;index" json:"is_active"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
	DeletedReason string     `gorm:"type:text" json:"deleted_reason,omitempty"`

	Allocations []BatchAllocation `gorm:"foreignKey:BatchID" json:"allocations,omitempty"`
	QCTests     []QCTest          `gorm:"foreignKey:BatchID" json:"qc_tests,omitempty"`
}

// BatchAllocation records the planned distribution of a batch's units to a location.
type BatchAllocation struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	BatchID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_batch_allocation_location" json:"batch_id"`
	LocationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_batch_allocation_location" json:"location_id"`
	Location   *Location `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
}

func (a *BatchAllocation) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
