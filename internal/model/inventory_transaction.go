package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TxBatchCompletion TransactionType = "BATCH_COMPLETION"
	TxTransferIn      TransactionType = "TRANSFER_IN"
	TxTransferOut     TransactionType = "TRANSFER_OUT"
	TxSaleDeduction   TransactionType = "SALE_DEDUCTION"
	TxAdjustment      TransactionType = "ADJUSTMENT"
)

// ErrLedgerImmutable is returned by the ledger model hooks on update or delete.
var ErrLedgerImmutable = errors.New("inventory transactions are append-only")

// CommonAdjustmentReasons is the closed list the UI offers. The ledger accepts any
// non-empty reason.
var CommonAdjustmentReasons = []string{
	"Damaged",
	"Expired",
	"Shrinkage",
	"Sample / Giveaway",
	"Count Correction",
	"Other",
}

// InventoryTransaction is an immutable ledger entry. Current stock for a
// (product, location) pair is the sum of QuantityChange over its rows; there is
// no other stock figure anywhere in the schema.
//
// The partial unique index on ReferenceID guarantees at most one BATCH_COMPLETION
// per batch at the store level.
type InventoryTransaction struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_product_location" json:"product_id"`
	Product        *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	LocationID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_product_location" json:"location_id"`
	Location       *Location       `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Type           TransactionType `gorm:"type:varchar(20);not null;index" json:"type"`
	QuantityChange int             `gorm:"not null" json:"quantity_change"`
	ReferenceID    *uuid.UUID      `gorm:"type:uuid;index;uniqueIndex:idx_ledger_batch_completion_once,where:type = 'BATCH_COMPLETION'" json:"reference_id,omitempty"`
	Reason         string          `gorm:"type:varchar(255)" json:"reason,omitempty"`
	Notes          string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy      string          `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt      time.Time       `gorm:"not null;index" json:"created_at"`
}

func (t *InventoryTransaction) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}

// BeforeUpdate rejects any attempt to rewrite ledger history through gorm.
func (t *InventoryTransaction) BeforeUpdate(tx *gorm.DB) (err error) {
	return ErrLedgerImmutable
}

// BeforeDelete rejects any attempt to remove ledger history through gorm.
func (t *InventoryTransaction) BeforeDelete(tx *gorm.DB) (err error) {
	return ErrLedgerImmutable
}
