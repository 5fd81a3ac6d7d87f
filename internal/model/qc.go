package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type QCTestType string

const (
	QCTestPH          QCTestType = "PH"
	QCTestVisualTaste QCTestType = "VISUAL_TASTE"
)

// MaxSafePhLevel is the exclusive upper bound for shelf-stable product. A reading at or
// above it always fails.
var MaxSafePhLevel = decimal.RequireFromString("4.6")

// QCTest is one append-only quality-control observation against a batch.
type QCTest struct {
	ID       uuid.UUID        `gorm:"type:uuid;primary_key;" json:"id"`
	BatchID  uuid.UUID        `gorm:"type:uuid;not null;index" json:"batch_id"`
	TestType QCTestType       `gorm:"type:varchar(20);not null" json:"test_type"`
	PhLevel  *decimal.Decimal `gorm:"type:numeric(4,2)" json:"ph_level,omitempty"`
	Passed   bool             `gorm:"not null" json:"passed"`
	Notes    string           `gorm:"type:text" json:"notes"`
	TestedBy string           `gorm:"type:varchar(255);not null" json:"tested_by"`
	TestedAt time.Time        `gorm:"not null;index" json:"tested_at"`
}

func (QCTest) TableName() string {
	return "qc_tests"
}

func (t *QCTest) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
